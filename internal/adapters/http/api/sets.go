package api

import (
	"net/http"
	"strings"

	"github.com/okian/setres/internal/domain/build"
)

// Input kinds accepted by the import endpoint.
const (
	kindText   = "text"
	kindPacked = "packed"
)

// SetsHandler handles set text conversion requests.
type SetsHandler struct {
	deps SetDependencies
}

// NewSetsHandler creates a new sets handler.
func NewSetsHandler(deps SetDependencies) *SetsHandler {
	return &SetsHandler{deps: deps}
}

type textRequest struct {
	Text   string `json:"text"`
	Format string `json:"format,omitempty"`
}

type importRequest struct {
	Text   string `json:"text"`
	Format string `json:"format,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Source string `json:"source,omitempty"`
}

type recordsResponse struct {
	Records []build.Record `json:"records"`
	Errors  []string       `json:"errors,omitempty"`
}

type exportRequest struct {
	Records []build.Record `json:"records"`
}

type exportResponse struct {
	Text string `json:"text"`
}

type importResponse struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors,omitempty"`
}

// HandleParse handles POST /v1/sets/parse requests. Text that holds no
// recognisable set yields an empty list, not an error.
func (h *SetsHandler) HandleParse(w http.ResponseWriter, r *http.Request) {
	const op = "api.parse"
	var req textRequest
	if err := decode(r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	recs := h.deps.Parse(r.Context(), req.Text, req.Format)
	writeJSON(w, http.StatusOK, recordsResponse{Records: nonNil(recs)})
}

// HandleUnpack handles POST /v1/sets/unpack requests. Teams that fail to
// decode are reported next to the ones that did.
func (h *SetsHandler) HandleUnpack(w http.ResponseWriter, r *http.Request) {
	const op = "api.unpack"
	var req textRequest
	if err := decode(r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	recs, err := h.deps.Unpack(r.Context(), req.Text)
	writeJSON(w, http.StatusOK, recordsResponse{Records: nonNil(recs), Errors: lines(err)})
}

// HandleExport handles POST /v1/sets/export requests.
func (h *SetsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	var req exportRequest
	if err := decode(r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exportResponse{Text: h.deps.Export(r.Context(), req.Records)})
}

// HandleImport handles POST /v1/sets/import requests: the text is decoded
// and the records are cached and offered to resolution.
func (h *SetsHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	const op = "api.import"
	var req importRequest
	if err := decode(r, op, &req); err != nil {
		writeError(w, err)
		return
	}

	var (
		recs []build.Record
		errs []string
	)
	switch strings.ToLower(req.Kind) {
	case "", kindText:
		recs = h.deps.Parse(r.Context(), req.Text, req.Format)
	case kindPacked:
		var err error
		recs, err = h.deps.Unpack(r.Context(), req.Text)
		errs = lines(err)
	default:
		writeError(w, NewKind(op, ErrBadRequest))
		return
	}

	if req.Source != "" {
		src := build.Source(strings.ToLower(req.Source))
		if !src.Valid() {
			writeError(w, WrapKind(op, ErrBadRequest, errUnknownSource))
			return
		}
		if src.Authoritative() {
			writeError(w, WrapKind(op, ErrBadRequest, errUntrustedSource))
			return
		}
		for i := range recs {
			recs[i].Source = src
		}
	}
	if err := h.deps.Import(r.Context(), recs); err != nil {
		writeError(w, classify(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, importResponse{Imported: len(recs), Errors: errs})
}

func nonNil(recs []build.Record) []build.Record {
	if recs == nil {
		return []build.Record{}
	}
	return recs
}

// lines splits a joined error into one message per failure.
func lines(err error) []string {
	if err == nil {
		return nil
	}
	return strings.Split(err.Error(), "\n")
}
