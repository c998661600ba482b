package server

import (
	"encoding/json"
	"errors"
	"io"
	"maps"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/docfill/internal/autofill"
	"github.com/sells-group/docfill/internal/model"
	"github.com/sells-group/docfill/internal/options"
	"github.com/sells-group/docfill/pkg/extractor"
)

type extractionView struct {
	HasData        bool              `json:"hasData"`
	File           *model.FileRef    `json:"file,omitempty"`
	Category       string            `json:"category,omitempty"`
	SubCategory    string            `json:"subCategory,omitempty"`
	RawFields      map[string]string `json:"rawFields,omitempty"`
	AutoFillIntent bool              `json:"autoFillIntent"`
	FormType       string            `json:"formType,omitempty"`
}

func (s *Server) view(r *http.Request) extractionView {
	res, ok := sessionFrom(r).Get()
	if !ok {
		return extractionView{}
	}
	return extractionView{
		HasData:        true,
		File:           &res.File,
		Category:       res.Category,
		SubCategory:    res.SubCategory,
		RawFields:      res.DataFields,
		AutoFillIntent: res.AutoFillIntent,
		FormType:       s.cfg.Mapper.FormType(res.Category, res.SubCategory),
	}
}

func (s *Server) handleGetExtraction(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.view(r))
}

func (s *Server) handlePutExtraction(w http.ResponseWriter, r *http.Request) {
	var res model.ExtractionResult
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if res.Category == "" {
		writeError(w, http.StatusBadRequest, "category is required")
		return
	}
	sessionFrom(r).Set(r.Context(), res)
	writeJSON(w, http.StatusOK, s.view(r))
}

func (s *Server) handleDeleteExtraction(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).Clear(r.Context())
	writeJSON(w, http.StatusOK, extractionView{})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	payload, ok := sessionFrom(r).LastAnalysis(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "no analysis payload")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// handleUpload forwards a multipart "file" to the extraction service and
// stores the result. ?autoFill=true sets the auto-fill intent.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Extractor == nil {
		writeError(w, http.StatusNotImplemented, "extraction service not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}

	up := extractor.Upload{Name: hdr.Filename, MediaType: hdr.Header.Get("Content-Type"), Data: data}
	resp, raw, err := s.cfg.Extractor.Analyze(r.Context(), up)
	if err != nil {
		s.log.Warn("server: analyze failed", zap.String("file", hdr.Filename), zap.Error(err))
		writeError(w, http.StatusBadGateway, "extraction failed")
		return
	}

	autoFill, _ := strconv.ParseBool(r.URL.Query().Get("autoFill"))
	ref := model.FileRef{Handle: r.URL.Query().Get("handle"), Name: hdr.Filename, MediaType: up.MediaType}
	res, err := model.ResultFromAnalysis(ref, resp, raw, autoFill)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sessionFrom(r).Set(r.Context(), res)
	writeJSON(w, http.StatusOK, s.view(r))
}

type fillRequest struct {
	Values          map[string]any            `json:"values"`
	Overrides       map[string]string         `json:"overrides"`
	Options         map[string][]model.Option `json:"options"`
	ClearAfterApply *bool                     `json:"clearAfterApply"`
	Force           bool                      `json:"force"`
	LastApplied     string                    `json:"lastApplied"`
}

type fillResponse struct {
	Values          map[string]any          `json:"values"`
	AutoFilled      []string                `json:"autoFilled"`
	ProcessedFields model.ProcessedFieldSet `json:"processedFields"`
	FormType        string                  `json:"formType"`
	Applied         bool                    `json:"applied"`
	Fingerprint     string                  `json:"fingerprint"`
	HasData         bool                    `json:"hasData"`
}

// handleFill runs one reconciliation for the form in the body. The client
// keeps lastApplied between calls; formType "auto" derives it from the
// stored classification.
func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	var req fillRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	formType := chi.URLParam(r, "formType")
	if formType == "auto" {
		formType = ""
	}

	clearAfter := s.cfg.ClearAfterApply
	if req.ClearAfterApply != nil {
		clearAfter = *req.ClearAfterApply
	}

	st := sessionFrom(r)
	form := autofill.NewForm(req.Values)
	cfg := autofill.Config{
		Apply:           form.Apply,
		FormType:        formType,
		FieldOverrides:  req.Overrides,
		ClearAfterApply: clearAfter,
		LastApplied:     req.LastApplied,
	}
	cfg.DropdownOptions = s.dropdowns(r, st, cfg, req.Options)

	rec := autofill.New(st, s.cfg.Mapper, cfg)
	var (
		state   autofill.State
		applied bool
	)
	if req.Force {
		state, applied = rec.ApplyNow(r.Context())
	} else {
		state, applied = rec.Evaluate(r.Context())
	}

	writeJSON(w, http.StatusOK, fillResponse{
		Values:          form.Values(),
		AutoFilled:      nonNil(form.AutoFilled()),
		ProcessedFields: state.ProcessedFields,
		FormType:        state.FormType,
		Applied:         applied,
		Fingerprint:     rec.LastApplied(),
		HasData:         st.HasData(),
	})
}

// dropdowns loads option lists for the choice fields the current extraction
// produces. Lists sent by the client win.
func (s *Server) dropdowns(r *http.Request, st autofill.Store, cfg autofill.Config, supplied map[string][]model.Option) map[string][]model.Option {
	out := make(map[string][]model.Option)
	if s.cfg.Options != nil {
		probe := autofill.New(st, s.cfg.Mapper, autofill.Config{FormType: cfg.FormType, FieldOverrides: cfg.FieldOverrides})
		state := probe.State()

		var fields []string
		for _, key := range autofill.ChoiceKeys(s.cfg.Mapper, state.FormType, state.ProcessedFields) {
			if _, ok := supplied[key]; !ok {
				fields = append(fields, key)
			}
		}
		if len(fields) > 0 {
			out = options.LoadAll(r.Context(), s.cfg.Options, fields, s.cfg.OptionWorkers)
		}
	}
	maps.Copy(out, supplied)
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
