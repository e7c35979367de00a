package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pasar/internal/common"
	"github.com/noah-isme/backend-pasar/internal/events"
)

// Writer is the persistence surface for administrative updates.
type Writer interface {
	Set(ctx context.Context, key, value string) error
}

// Handler exposes the administrative settings endpoints. Reads go through the
// provider so responses reflect the cache the engine actually uses.
type Handler struct {
	Provider *Provider
	Writer   Writer
	Events   *events.Bus
}

// Get returns the raw value for a key, or 404 when unset.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Provider == nil {
		common.JSONError(w, http.StatusInternalServerError, "SETTINGS_NOT_CONFIGURED", "settings provider not configured", nil)
		return
	}
	key := strings.TrimSpace(chi.URLParam(r, "key"))
	value, found := h.Provider.lookup(r.Context(), key)
	if !found {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "setting not found", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"key": key, "value": value}})
}

type putSettingRequest struct {
	Value string `json:"value"`
}

// Put upserts a setting, drops the cached value and notifies subscribers.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	if h.Writer == nil {
		common.JSONError(w, http.StatusInternalServerError, "SETTINGS_NOT_CONFIGURED", "settings writer not configured", nil)
		return
	}
	key := strings.TrimSpace(chi.URLParam(r, "key"))
	if key == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "key is required", nil)
		return
	}
	var req putSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Writer.Set(r.Context(), key, req.Value); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "SETTINGS_ERROR", "failed to store setting", nil)
		return
	}
	if h.Provider != nil {
		h.Provider.Invalidate(key)
	}
	if h.Events != nil {
		h.Events.Publish(r.Context(), events.Event{Topic: events.TopicSettingsUpdated})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"key": key, "value": req.Value}})
}
