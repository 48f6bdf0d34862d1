package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"clobrub/internal/engine"
	"clobrub/internal/models"
)

type submitOrderResponse struct {
	Success  bool          `json:"success"`
	OrderID  uuid.UUID     `json:"order_id"`
	FilledQty int64        `json:"filled_qty"`
	Status   models.Status `json:"status"`
}

// handleSubmitOrder implements POST /api/v1/order.
func (s *Services) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	u := userFromContext(r)

	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}

	order, trades, err := s.Engine.Submit(r.Context(), u, req)
	if err != nil {
		writeError(w, err)
		return
	}

	s.Log.Info().
		Str("order_id", order.ID.String()).
		Int("trades", len(trades)).
		Msg("order submitted via http")

	writeJSON(w, http.StatusCreated, submitOrderResponse{
		Success:   true,
		OrderID:   order.ID,
		FilledQty: order.Filled,
		Status:    order.Status,
	})
}

// handleListOrders implements GET /api/v1/order: every order the
// authenticated user has ever submitted.
func (s *Services) handleListOrders(w http.ResponseWriter, r *http.Request) {
	u := userFromContext(r)
	orders, err := s.Engine.ListOrders(r.Context(), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// handleGetOrder implements GET /api/v1/order/{id}.
func (s *Services) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, engine.ErrOrderNotFound)
		return
	}
	order, err := s.Engine.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	u := userFromContext(r)
	if order.UserID != u.ID && u.Role != models.RoleAdmin {
		writeError(w, engine.ErrForbidden)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// handleCancelOrder implements DELETE /api/v1/order/{id}.
func (s *Services) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, engine.ErrOrderNotFound)
		return
	}
	u := userFromContext(r)
	order, err := s.Engine.Cancel(r.Context(), u, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
