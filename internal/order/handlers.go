package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-pasar/internal/common"
	"github.com/noah-isme/backend-pasar/internal/events"
)

// Repository is the persistence surface the handlers need.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}

// Handler exposes order read and administrative status endpoints. NotFound
// is the repository's sentinel for missing rows.
type Handler struct {
	Repo     Repository
	NotFound error
	Events   *events.Bus
}

type itemDTO struct {
	ProductID string  `json:"productId"`
	VendorID  *string `json:"vendorId,omitempty"`
	Quantity  int32   `json:"quantity"`
	Price     string  `json:"price"`
}

type orderDTO struct {
	ID             string    `json:"id"`
	CustomerID     string    `json:"customerId"`
	Status         string    `json:"status"`
	PaymentMethod  string    `json:"paymentMethod"`
	PaymentStatus  string    `json:"paymentStatus"`
	Subtotal       string    `json:"subtotal"`
	CouponDiscount string    `json:"couponDiscount"`
	ShippingCost   string    `json:"shippingCost"`
	PlatformFee    string    `json:"platformFee"`
	TaxAmount      string    `json:"taxAmount"`
	TotalAmount    string    `json:"totalAmount"`
	Items          []itemDTO `json:"items"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toDTO(o Order) orderDTO {
	items := make([]itemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		dto := itemDTO{
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
			Price:     it.Price.StringFixed(2),
		}
		if it.VendorID != nil {
			v := it.VendorID.String()
			dto.VendorID = &v
		}
		items = append(items, dto)
	}
	return orderDTO{
		ID:             o.ID.String(),
		CustomerID:     o.CustomerID.String(),
		Status:         string(o.Status),
		PaymentMethod:  string(o.PaymentMethod),
		PaymentStatus:  string(o.PaymentStatus),
		Subtotal:       o.Subtotal.StringFixed(2),
		CouponDiscount: o.CouponDiscount.StringFixed(2),
		ShippingCost:   o.ShippingCost.StringFixed(2),
		PlatformFee:    o.PlatformFee.StringFixed(2),
		TaxAmount:      o.TaxAmount.StringFixed(2),
		TotalAmount:    o.TotalAmount.StringFixed(2),
		Items:          items,
		CreatedAt:      o.CreatedAt,
	}
}

// Get returns a single order with its financial snapshot.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Repo == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order repository not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	o, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		if h.isNotFound(err) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toDTO(o)})
}

type patchStatusRequest struct {
	Status string `json:"status"`
}

// PatchStatus moves an order to a new lifecycle state. Monetary fields are
// immutable; only the status changes, and subscribers are notified so cached
// reports recompute.
func (h *Handler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	if h.Repo == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order repository not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var req patchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	status := Status(req.Status)
	if !status.Valid() {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unsupported status", nil)
		return
	}
	if err := h.Repo.UpdateStatus(r.Context(), id, status); err != nil {
		if h.isNotFound(err) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update order", nil)
		return
	}
	if h.Events != nil {
		h.Events.Publish(r.Context(), events.Event{Topic: events.TopicOrderStatusChanged, OrderID: id})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{
		"id":     id.String(),
		"status": string(status),
	}})
}

func (h *Handler) isNotFound(err error) bool {
	return h.NotFound != nil && errors.Is(err, h.NotFound)
}
