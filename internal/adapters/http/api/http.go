// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/setres/internal/app"
	"github.com/okian/setres/internal/domain/build"
	"github.com/okian/setres/internal/domain/preset"
	"github.com/okian/setres/internal/domain/resolve"
)

// maxBodyBytes bounds request bodies; a full box export stays well below it.
const maxBodyBytes = 1 << 20

// SetDependencies turns text into build records and back.
type SetDependencies interface {
	Parse(ctx context.Context, text, format string) []build.Record
	Unpack(ctx context.Context, text string) ([]build.Record, error)
	Export(ctx context.Context, records []build.Record) string
	Import(ctx context.Context, records []build.Record) error
}

// RosterDependencies exposes the live roster.
type RosterDependencies interface {
	SetRoster(ctx context.Context, format string, sides []resolve.Side) error
	Roster(ctx context.Context) (string, []resolve.Side)
	Participant(ctx context.Context, side, key string) (preset.Participant, error)
	Reveal(ctx context.Context, side, key string, r preset.Reveals) (bool, error)
	ChangeForme(ctx context.Context, side, key, species, transformed string) error
	Trigger(ctx context.Context, reason string) bool
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SetDependencies
	RosterDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	setsHandler   *SetsHandler
	rosterHandler *RosterHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
		setsHandler:   NewSetsHandler(deps),
		rosterHandler: NewRosterHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /v1/sets/parse", MetricsMiddleware(s.setsHandler.HandleParse, "sets_parse"))
	mux.HandleFunc("POST /v1/sets/unpack", MetricsMiddleware(s.setsHandler.HandleUnpack, "sets_unpack"))
	mux.HandleFunc("POST /v1/sets/export", MetricsMiddleware(s.setsHandler.HandleExport, "sets_export"))
	mux.HandleFunc("POST /v1/sets/import", MetricsMiddleware(s.setsHandler.HandleImport, "sets_import"))

	mux.HandleFunc("GET /v1/roster", MetricsMiddleware(s.rosterHandler.HandleGetRoster, "roster"))
	mux.HandleFunc("PUT /v1/roster", MetricsMiddleware(s.rosterHandler.HandlePutRoster, "roster"))
	mux.HandleFunc("POST /v1/roster/resolve", MetricsMiddleware(s.rosterHandler.HandleResolve, "roster_resolve"))
	mux.HandleFunc("GET /v1/roster/{side}/{key}", MetricsMiddleware(s.rosterHandler.HandleGetParticipant, "participant"))
	mux.HandleFunc("POST /v1/roster/{side}/{key}/reveal", MetricsMiddleware(s.rosterHandler.HandleReveal, "participant_reveal"))
	mux.HandleFunc("POST /v1/roster/{side}/{key}/forme", MetricsMiddleware(s.rosterHandler.HandleForme, "participant_forme"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	msg := http.StatusText(status)
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(r *http.Request, op string, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}

// classify lifts service errors to API kinds.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, service.ErrUnknownSide), errors.Is(err, service.ErrUnknownParticipant):
		return WrapKind(op, ErrNotFound, err)
	case errors.Is(err, service.ErrInvalidRoster), errors.Is(err, service.ErrNoRecords):
		return WrapKind(op, ErrUnprocessable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
