package httpapi

import (
	"encoding/json"
	"net/http"
)

type registerRequest struct {
	Name string `json:"name"`
}

// registerResponse surfaces the freshly issued API key once, at creation
// time — models.User itself never serializes it (json:"-") so it can't
// leak back out through any other endpoint.
type registerResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	APIKey string `json:"api_key"`
}

// handleRegister implements POST /api/v1/public/register: creates a USER-role
// principal and returns the freshly issued API key.
func (s *Services) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}

	u, err := s.Users.Register(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		ID:     u.ID.String(),
		Name:   u.Name,
		Role:   string(u.Role),
		APIKey: u.APIKey,
	})
}
