package httpapi

import (
	"encoding/json"
	"net/http"
)

// handleListInstruments implements GET /api/v1/public/instrument.
func (s *Services) handleListInstruments(w http.ResponseWriter, r *http.Request) {
	list, err := s.Instruments.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type createInstrumentRequest struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// handleCreateInstrument implements POST /api/v1/admin/instrument.
func (s *Services) handleCreateInstrument(w http.ResponseWriter, r *http.Request) {
	var req createInstrumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	if err := s.Instruments.Create(r.Context(), req.Name, req.Ticker); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Success bool `json:"success"`
	}{true})
}

// handleDeleteInstrument implements DELETE /api/v1/admin/instrument/{ticker}.
func (s *Services) handleDeleteInstrument(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	if err := s.Instruments.Delete(r.Context(), ticker); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
