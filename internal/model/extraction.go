package model

import (
	"encoding/json"
	"maps"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// FileRef points at an uploaded supporting document.
type FileRef struct {
	Handle    string `json:"handle"` // opaque content reference (object key, path, data URL)
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
}

// ExtractionResult is what the extraction service produced for one uploaded file.
// DataFields always holds the raw strings as received.
type ExtractionResult struct {
	File            FileRef           `json:"file"`
	Category        string            `json:"category"`
	SubCategory     string            `json:"sub_category,omitempty"`
	DataFields      map[string]string `json:"data_fields"`
	AnalysisPayload json.RawMessage   `json:"analysis_payload,omitempty"`
	AutoFillIntent  bool              `json:"auto_fill_intent"`
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (r ExtractionResult) Clone() ExtractionResult {
	out := r
	out.DataFields = maps.Clone(r.DataFields)
	if r.AnalysisPayload != nil {
		out.AnalysisPayload = append(json.RawMessage(nil), r.AnalysisPayload...)
	}
	return out
}

// Classification is the classifier section of the extraction service response.
type Classification struct {
	Category    string            `json:"category"`
	SubCategory string            `json:"subCategory,omitempty"`
	DataFields  map[string]string `json:"dataFields"`
}

// AnalysisResponse is the decoded extraction service response. Only the
// classification is interpreted; the rest is passed through.
type AnalysisResponse struct {
	Success        bool           `json:"success"`
	Classification Classification `json:"classification"`
	ExtractedText  string         `json:"extractedText,omitempty"`
	FileType       string         `json:"fileType,omitempty"`
	FileName       string         `json:"fileName,omitempty"`
	Timestamp      time.Time      `json:"timestamp,omitzero"`
}

// ResultFromAnalysis builds an ExtractionResult from a decoded response and the
// verbatim response body.
func ResultFromAnalysis(file FileRef, resp *AnalysisResponse, raw []byte, autoFill bool) (ExtractionResult, error) {
	if resp == nil {
		return ExtractionResult{}, eris.New("model: nil analysis response")
	}
	if !resp.Success {
		return ExtractionResult{}, eris.New("model: extraction service reported failure")
	}
	if strings.TrimSpace(resp.Classification.Category) == "" {
		return ExtractionResult{}, eris.New("model: analysis response has no category")
	}

	if file.Name == "" {
		file.Name = resp.FileName
	}
	if file.MediaType == "" {
		file.MediaType = resp.FileType
	}

	fields := make(map[string]string, len(resp.Classification.DataFields))
	for k, v := range resp.Classification.DataFields {
		fields[k] = v
	}

	return ExtractionResult{
		File:            file,
		Category:        resp.Classification.Category,
		SubCategory:     resp.Classification.SubCategory,
		DataFields:      fields,
		AnalysisPayload: append(json.RawMessage(nil), raw...),
		AutoFillIntent:  autoFill,
	}, nil
}
