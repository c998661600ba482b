// Package extraction holds the most recent document extraction result for a
// session and mirrors it into a session KV so it survives page loads.
package extraction

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/docfill/internal/model"
	"github.com/sells-group/docfill/internal/store"
)

// Namespace prefixes every key the Store writes.
const Namespace = "docfill:"

// Durable keys under Namespace.
const (
	KeyFileHandle   = Namespace + "file_handle"
	KeyFileName     = Namespace + "file_name"
	KeyFileType     = Namespace + "file_type"
	KeyDataFields   = Namespace + "data_fields"
	KeyCategory     = Namespace + "category"
	KeySubCategory  = Namespace + "sub_category"
	KeyAutoFill     = Namespace + "auto_fill"
	KeyLastAnalysis = Namespace + "last_analysis"
)

// Option configures a Store.
type Option func(*Store)

// WithPersistAnalysis also writes the full analysis payload. It is never
// rehydrated by Load.
func WithPersistAnalysis(on bool) Option {
	return func(s *Store) { s.persistAnalysis = on }
}

// WithLogger sets the logger used for swallowed persistence errors.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Store is the extraction state of one session: Empty until Set, Populated
// until Clear. The in-memory copy is authoritative; persistence failures are
// logged and otherwise ignored.
type Store struct {
	kv              store.KV
	persistAnalysis bool
	log             *zap.Logger

	mu  sync.RWMutex
	cur *model.ExtractionResult
}

// New creates an empty Store backed by kv. A nil kv keeps state in memory only.
func New(kv store.KV, opts ...Option) *Store {
	s := &Store{kv: kv}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.L()
	}
	s.log = s.log.With(zap.String("component", "extraction_store"))
	return s
}

// Get returns a copy of the current result and whether the store is Populated.
func (s *Store) Get() (model.ExtractionResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return model.ExtractionResult{}, false
	}
	return s.cur.Clone(), true
}

// HasData reports whether the store is Populated.
func (s *Store) HasData() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur != nil
}

// Set replaces the current result unconditionally and persists it.
func (s *Store) Set(ctx context.Context, result model.ExtractionResult) {
	r := result.Clone()
	if r.DataFields == nil {
		r.DataFields = map[string]string{}
	}

	s.mu.Lock()
	s.cur = &r
	s.mu.Unlock()

	s.persist(ctx, r)
}

func (s *Store) persist(ctx context.Context, r model.ExtractionResult) {
	if s.kv == nil {
		return
	}

	fields, err := json.Marshal(r.DataFields)
	if err != nil {
		s.log.Warn("extraction: serialize data fields", zap.Error(err))
		return
	}

	// Drop the previous record marker first so a write that fails partway
	// leaves no record rather than a mix of two results.
	if err := s.kv.Delete(ctx, KeyDataFields); err != nil {
		s.log.Warn("extraction: invalidate persisted record", zap.Error(err))
		return
	}

	entries := []struct{ key, value string }{
		{KeyFileHandle, r.File.Handle},
		{KeyFileName, r.File.Name},
		{KeyFileType, r.File.MediaType},
		{KeyCategory, r.Category},
		{KeySubCategory, r.SubCategory},
		{KeyAutoFill, strconv.FormatBool(r.AutoFillIntent)},
		// data_fields last: Load treats its presence as "a record exists".
		{KeyDataFields, string(fields)},
	}
	for _, e := range entries {
		if err := s.kv.Set(ctx, e.key, e.value); err != nil {
			s.log.Warn("extraction: persist entry", zap.String("key", e.key), zap.Error(err))
			return
		}
	}

	if !s.persistAnalysis {
		s.deleteQuietly(ctx, KeyLastAnalysis)
		return
	}
	if len(r.AnalysisPayload) == 0 {
		s.deleteQuietly(ctx, KeyLastAnalysis)
		return
	}
	if err := s.kv.Set(ctx, KeyLastAnalysis, string(r.AnalysisPayload)); err != nil {
		s.log.Warn("extraction: persist analysis payload", zap.Error(err))
	}
}

func (s *Store) deleteQuietly(ctx context.Context, key string) {
	if err := s.kv.Delete(ctx, key); err != nil {
		s.log.Debug("extraction: delete entry", zap.String("key", key), zap.Error(err))
	}
}

// Clear resets the store to Empty and removes every namespaced entry.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.cur = nil
	s.mu.Unlock()

	if s.kv == nil {
		return
	}
	if _, err := s.kv.DeletePrefix(ctx, Namespace); err != nil {
		s.log.Warn("extraction: clear persisted entries", zap.Error(err))
	}
}

// Load rehydrates the store from the KV. The analysis payload is not restored.
// It reports whether the store is Populated afterwards.
func (s *Store) Load(ctx context.Context) bool {
	if s.kv == nil {
		return s.HasData()
	}

	raw, ok, err := s.kv.Get(ctx, KeyDataFields)
	if err != nil {
		s.log.Warn("extraction: read data fields", zap.Error(err))
		return s.HasData()
	}
	if !ok {
		return s.HasData()
	}

	var fields map[string]string
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		s.log.Warn("extraction: decode persisted data fields", zap.Error(err))
		return s.HasData()
	}
	if fields == nil {
		fields = map[string]string{}
	}

	r := model.ExtractionResult{
		File: model.FileRef{
			Handle:    s.read(ctx, KeyFileHandle),
			Name:      s.read(ctx, KeyFileName),
			MediaType: s.read(ctx, KeyFileType),
		},
		Category:    s.read(ctx, KeyCategory),
		SubCategory: s.read(ctx, KeySubCategory),
		DataFields:  fields,
	}
	r.AutoFillIntent, _ = strconv.ParseBool(s.read(ctx, KeyAutoFill))

	s.mu.Lock()
	s.cur = &r
	s.mu.Unlock()

	s.log.Debug("extraction: rehydrated",
		zap.String("category", r.Category),
		zap.Int("fields", len(r.DataFields)),
	)
	return true
}

func (s *Store) read(ctx context.Context, key string) string {
	v, _, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.Warn("extraction: read entry", zap.String("key", key), zap.Error(err))
		return ""
	}
	return v
}

// LastAnalysis returns the persisted analysis payload, if any. It reads the KV
// directly because the payload is not held after a reload.
func (s *Store) LastAnalysis(ctx context.Context) (json.RawMessage, bool) {
	s.mu.RLock()
	if s.cur != nil && len(s.cur.AnalysisPayload) > 0 {
		out := append(json.RawMessage(nil), s.cur.AnalysisPayload...)
		s.mu.RUnlock()
		return out, true
	}
	s.mu.RUnlock()

	if s.kv == nil {
		return nil, false
	}
	v, ok, err := s.kv.Get(ctx, KeyLastAnalysis)
	if err != nil {
		s.log.Warn("extraction: read analysis payload", zap.Error(err))
		return nil, false
	}
	if !ok || !json.Valid([]byte(v)) {
		return nil, false
	}
	return json.RawMessage(v), true
}
