package api

import (
	"net/http"

	"github.com/okian/setres/internal/domain/preset"
	"github.com/okian/setres/internal/domain/resolve"
)

// RosterHandler handles roster and participant requests.
type RosterHandler struct {
	deps RosterDependencies
}

// NewRosterHandler creates a new roster handler.
func NewRosterHandler(deps RosterDependencies) *RosterHandler {
	return &RosterHandler{deps: deps}
}

type sideBody struct {
	Key          string               `json:"key"`
	Participants []preset.Participant `json:"participants"`
}

type rosterBody struct {
	Format string     `json:"format"`
	Sides  []sideBody `json:"sides"`
}

type revealResponse struct {
	Changed bool `json:"changed"`
}

type formeRequest struct {
	Species     string `json:"species,omitempty"`
	Transformed string `json:"transformed,omitempty"`
}

type triggerResponse struct {
	Queued bool `json:"queued"`
}

// HandleGetRoster handles GET /v1/roster requests.
func (h *RosterHandler) HandleGetRoster(w http.ResponseWriter, r *http.Request) {
	format, sides := h.deps.Roster(r.Context())
	out := rosterBody{Format: format, Sides: make([]sideBody, len(sides))}
	for i, side := range sides {
		out.Sides[i].Key = side.Key
		out.Sides[i].Participants = make([]preset.Participant, len(side.Participants))
		for j, p := range side.Participants {
			out.Sides[i].Participants[j] = *p
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// HandlePutRoster handles PUT /v1/roster requests.
func (h *RosterHandler) HandlePutRoster(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_roster"
	var req rosterBody
	if err := decode(r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	sides := make([]resolve.Side, len(req.Sides))
	for i, side := range req.Sides {
		sides[i].Key = side.Key
		for j := range side.Participants {
			sides[i].Participants = append(sides[i].Participants, &side.Participants[j])
		}
	}
	if err := h.deps.SetRoster(r.Context(), req.Format, sides); err != nil {
		writeError(w, classify(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleResolve handles POST /v1/roster/resolve requests.
func (h *RosterHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	const op = "api.resolve"
	if !h.deps.Trigger(r.Context(), "api") {
		writeError(w, NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, triggerResponse{Queued: true})
}

// HandleGetParticipant handles GET /v1/roster/{side}/{key} requests.
func (h *RosterHandler) HandleGetParticipant(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_participant"
	p, err := h.deps.Participant(r.Context(), r.PathValue("side"), r.PathValue("key"))
	if err != nil {
		writeError(w, classify(op, err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleReveal handles POST /v1/roster/{side}/{key}/reveal requests.
func (h *RosterHandler) HandleReveal(w http.ResponseWriter, r *http.Request) {
	const op = "api.reveal"
	var req preset.Reveals
	if err := decode(r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	changed, err := h.deps.Reveal(r.Context(), r.PathValue("side"), r.PathValue("key"), req)
	if err != nil {
		writeError(w, classify(op, err))
		return
	}
	writeJSON(w, http.StatusOK, revealResponse{Changed: changed})
}

// HandleForme handles POST /v1/roster/{side}/{key}/forme requests.
func (h *RosterHandler) HandleForme(w http.ResponseWriter, r *http.Request) {
	const op = "api.forme"
	var req formeRequest
	if err := decode(r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.deps.ChangeForme(r.Context(), r.PathValue("side"), r.PathValue("key"), req.Species, req.Transformed); err != nil {
		writeError(w, classify(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
