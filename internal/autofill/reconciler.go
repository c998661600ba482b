// Package autofill binds forms to the extraction store. A Reconciler turns the
// stored raw fields into typed form values and applies them exactly once per
// distinct extraction.
package autofill

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/docfill/internal/fieldmap"
	"github.com/sells-group/docfill/internal/model"
)

// Store is the part of the extraction store a Reconciler reads and clears.
type Store interface {
	Get() (model.ExtractionResult, bool)
	Clear(ctx context.Context)
}

// Config is supplied by the form a Reconciler is bound to.
type Config struct {
	// Apply receives the processed fields. Nil means evaluate only.
	Apply func(model.ProcessedFieldSet)
	// FormType overrides the type derived from the stored classification.
	FormType string
	// FieldOverrides maps raw labels to canonical keys ahead of the form
	// tables. An empty value drops the label.
	FieldOverrides map[string]string
	// DropdownOptions holds candidate options per canonical key.
	DropdownOptions map[string][]model.Option
	// ClearAfterApply clears the store once an apply succeeds.
	ClearAfterApply bool
	// LastApplied seeds the fingerprint of the last apply, for callers that
	// keep it outside the process.
	LastApplied string
}

// State is the form binding view of the current extraction.
type State struct {
	ProcessedFields model.ProcessedFieldSet `json:"processedFields"`
	RawFields       map[string]string       `json:"rawFields"`
	Category        string                  `json:"category"`
	SubCategory     string                  `json:"subCategory"`
	FormType        string                  `json:"formType"`
	Fingerprint     string                  `json:"fingerprint"`
	HasData         bool                    `json:"hasData"`
}

// Reconciler is constructed per open form.
type Reconciler struct {
	store  Store
	mapper *fieldmap.Mapper
	cfg    Config
	log    *zap.Logger

	mu          sync.Mutex
	lastApplied string
}

// New creates a Reconciler over store. A nil mapper uses the built-in tables.
func New(store Store, mapper *fieldmap.Mapper, cfg Config) *Reconciler {
	if mapper == nil {
		mapper = fieldmap.New()
	}
	return &Reconciler{
		store:       store,
		mapper:      mapper,
		cfg:         cfg,
		log:         zap.L().With(zap.String("component", "autofill")),
		lastApplied: cfg.LastApplied,
	}
}

// State computes the current view without applying anything.
func (r *Reconciler) State() State {
	result, ok := r.store.Get()
	if !ok {
		return State{}
	}
	return r.build(result)
}

func (r *Reconciler) build(result model.ExtractionResult) State {
	formType := r.cfg.FormType
	if formType == "" {
		formType = r.mapper.FormType(result.Category, result.SubCategory)
	}
	return State{
		ProcessedFields: Process(r.mapper, formType, result.DataFields, r.cfg.FieldOverrides, r.cfg.DropdownOptions),
		RawFields:       result.DataFields,
		Category:        result.Category,
		SubCategory:     result.SubCategory,
		FormType:        formType,
		Fingerprint:     Fingerprint(result.DataFields),
		HasData:         true,
	}
}

// Evaluate applies the current extraction if its fingerprint differs from the
// last one applied. It reports whether Apply ran.
func (r *Reconciler) Evaluate(ctx context.Context) (State, bool) {
	return r.run(ctx, false)
}

// ApplyNow applies the current extraction even if it was already applied.
func (r *Reconciler) ApplyNow(ctx context.Context) (State, bool) {
	return r.run(ctx, true)
}

func (r *Reconciler) run(ctx context.Context, force bool) (State, bool) {
	r.mu.Lock()
	result, ok := r.store.Get()
	if !ok {
		r.mu.Unlock()
		return State{}, false
	}
	st := r.build(result)
	if !force && st.Fingerprint == r.lastApplied {
		r.mu.Unlock()
		return st, false
	}
	// Recorded before Apply so an evaluation triggered from inside Apply is
	// skipped.
	r.lastApplied = st.Fingerprint
	r.mu.Unlock()

	if r.cfg.Apply != nil {
		r.cfg.Apply(st.ProcessedFields)
	}
	r.log.Debug("autofill: applied",
		zap.String("form_type", st.FormType),
		zap.Int("fields", len(st.ProcessedFields)),
		zap.Bool("forced", force),
	)

	if r.cfg.ClearAfterApply {
		r.Clear(ctx)
	}
	return st, true
}

// LastApplied returns the fingerprint of the last apply, or "" if none is
// recorded.
func (r *Reconciler) LastApplied() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastApplied
}

// Clear empties the store and forgets the last applied fingerprint.
func (r *Reconciler) Clear(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.Clear(ctx)
	r.lastApplied = ""
}
