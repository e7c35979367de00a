package report

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-pasar/internal/common"
)

// Handler exposes the report read endpoints. All monetary values go out as
// 2dp decimal strings.
type Handler struct {
	Svc *Service
}

type adminSummaryDTO struct {
	From                  time.Time `json:"from"`
	To                    time.Time `json:"to"`
	TotalOrders           int       `json:"total_orders"`
	GrossOrderValue       string    `json:"gross_order_value"`
	SellerNetProfit       string    `json:"seller_net_profit"`
	PlatformProductProfit string    `json:"platform_product_profit"`
	TotalNetRevenue       string    `json:"total_net_revenue"`
	DeliveredOrders       int       `json:"delivered_orders"`
	CODOrders             int       `json:"cod_orders"`
	OnlineOrders          int       `json:"online_orders"`
	OutOfBalanceOrders    int       `json:"out_of_balance_orders"`
}

type vendorSummaryDTO struct {
	VendorID        uuid.UUID `json:"vendor_id"`
	From            time.Time `json:"from"`
	To              time.Time `json:"to"`
	TotalOrders     int       `json:"total_orders"`
	OrderValueShare string    `json:"order_value_share"`
	NetRevenue      string    `json:"net_revenue"`
	DeliveredOrders int       `json:"delivered_orders"`
	CODOrders       int       `json:"cod_orders"`
}

type dailySalesDTO struct {
	Date       string `json:"date"`
	OrderCount int    `json:"order_count"`
	GrossValue string `json:"gross_value"`
}

// AdminSummary returns the platform dashboard for the requested range.
func (h *Handler) AdminSummary(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORT_NOT_CONFIGURED", "report service not configured", nil)
		return
	}
	from, to, ok := h.window(w, r)
	if !ok {
		return
	}
	sum, err := h.Svc.Admin(r.Context(), from, to)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORT_ERROR", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": adminSummaryDTO{
		From:                  sum.From,
		To:                    sum.To,
		TotalOrders:           sum.TotalOrders,
		GrossOrderValue:       sum.GrossOrderValue.StringFixed(2),
		SellerNetProfit:       sum.SellerNetProfit.StringFixed(2),
		PlatformProductProfit: sum.PlatformProductProfit.StringFixed(2),
		TotalNetRevenue:       sum.TotalNetRevenue.StringFixed(2),
		DeliveredOrders:       sum.DeliveredOrders,
		CODOrders:             sum.CODOrders,
		OnlineOrders:          sum.OnlineOrders,
		OutOfBalanceOrders:    sum.OutOfBalanceOrders,
	}})
}

// VendorSummary returns one seller's dashboard for the requested range.
func (h *Handler) VendorSummary(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORT_NOT_CONFIGURED", "report service not configured", nil)
		return
	}
	vendorID, err := uuid.Parse(chi.URLParam(r, "vendorID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid vendor id", nil)
		return
	}
	from, to, ok := h.window(w, r)
	if !ok {
		return
	}
	sum, err := h.Svc.Vendor(r.Context(), vendorID, from, to)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORT_ERROR", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": vendorSummaryDTO{
		VendorID:        sum.VendorID,
		From:            sum.From,
		To:              sum.To,
		TotalOrders:     sum.TotalOrders,
		OrderValueShare: sum.OrderValueShare.StringFixed(2),
		NetRevenue:      sum.NetRevenue.StringFixed(2),
		DeliveredOrders: sum.DeliveredOrders,
		CODOrders:       sum.CODOrders,
	}})
}

// Sales returns the trailing per-day paid sales series.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORT_NOT_CONFIGURED", "report service not configured", nil)
		return
	}
	days := common.AtoiDefault(r.URL.Query().Get("days"), 0)
	series, err := h.Svc.Sales(r.Context(), days)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORT_ERROR", err.Error(), nil)
		return
	}
	out := make([]dailySalesDTO, 0, len(series))
	for _, b := range series {
		out = append(out, dailySalesDTO{
			Date:       b.Date,
			OrderCount: b.OrderCount,
			GrossValue: b.GrossValue.StringFixed(2),
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *Handler) window(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	query := r.URL.Query()
	fromStr := query.Get("from")
	toStr := query.Get("to")
	if fromStr == "" || toStr == "" {
		from, to := h.Svc.DefaultWindow()
		return from, to, true
	}
	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid from date", nil)
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid to date", nil)
		return time.Time{}, time.Time{}, false
	}
	if !from.Before(to) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "from must be before to", nil)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
