package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/shopkeeper/internal/cart"
	"github.com/and161185/shopkeeper/internal/model"
	"github.com/and161185/shopkeeper/internal/service"
)

type orderItemDTO struct {
	ProductID int64  `json:"pid"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
}

type orderDTO struct {
	OrderID  string         `json:"orderId"`
	Status   string         `json:"status"`
	Total    string         `json:"total"`
	Currency string         `json:"currency"`
	Items    []orderItemDTO `json:"items"`
}

func toOrderDTO(o *model.Order) orderDTO {
	d := orderDTO{
		OrderID:  o.ID.String(),
		Status:   string(o.Status),
		Total:    service.FormatCents(o.TotalCents),
		Currency: o.Currency,
	}
	for _, it := range o.Items {
		d.Items = append(d.Items, orderItemDTO{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     service.FormatCents(it.PriceCents),
			Quantity:  it.Quantity,
		})
	}
	return d
}

// handleCreateOrder converts a submitted cart into a persisted order and
// returns the payment handoff fields. Works for guests; a logged-in caller's
// order is attributed to them.
func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items       json.RawMessage `json:"items"`
		CartVersion cart.Version    `json:"cart_version"`
		Token       string          `json:"csrf_token"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	lines, err := cart.Normalize(cart.Payload{Version: req.CartVersion, Items: req.Items})
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	var userID *uuid.UUID
	if u, ok := UserFromCtx(r.Context()); ok {
		userID = &u.ID
	}
	res, err := s.checkout.Create(r.Context(), userID, lines)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	d := toOrderDTO(res.Order)
	s.respondJSON(w, http.StatusCreated, map[string]any{
		"orderId":     d.OrderID,
		"orderDigest": res.Ref,
		"total":       d.Total,
		"currency":    d.Currency,
		"items":       d.Items,
		"payment":     res.PaymentFields,
	})
}

// handleGetOrder returns an order to its owner or to an admin.
func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		s.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	id, err := uuid.FromString(chiURLParam(r, "id"))
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid order id"})
		return
	}
	o, err := s.checkout.Get(r.Context(), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if !u.IsAdmin && (o.UserID == nil || *o.UserID != u.ID) {
		// hide existence from non-owners
		s.respondJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	s.respondJSON(w, http.StatusOK, toOrderDTO(o))
}

// handleOrderReturn settles the processor's return redirect. The signed
// reference in `ref` proves the callback matches an order we created.
func (s *Server) handleOrderReturn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := q.Get("ref")
	if ref == "" {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "missing order reference"})
		return
	}
	o, err := s.checkout.Complete(r.Context(), ref, q.Get("pp"), q.Get("tx"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toOrderDTO(o))
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ref   string `json:"ref"`
		Token string `json:"csrf_token"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Ref == "" {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "missing order reference"})
		return
	}
	o, err := s.checkout.Cancel(r.Context(), req.Ref)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toOrderDTO(o))
}
