package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"stockroom/internal/core/domain"
	"stockroom/internal/core/service"
	"stockroom/internal/logging"
)

// HTTPHandler binds the inventory service to a JSON API.
type HTTPHandler struct {
	inventory *service.Inventory
	log       *slog.Logger
}

type ItemResponse struct {
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type CreateItemRequest struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type UpdateItemRequest struct {
	Quantity *int     `json:"quantity"`
	Price    *float64 `json:"price"`
}

type ThresholdPayload struct {
	Threshold int `json:"threshold"`
}

func NewHTTPHandler(inventory *service.Inventory, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{
		inventory: inventory,
		log:       logging.Default(logger).With("component", "http"),
	}
}

// Register mounts all routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /api/items", h.ListItems)
	mux.HandleFunc("POST /api/items", h.CreateItem)
	mux.HandleFunc("PUT /api/items/{name}", h.UpdateItem)
	mux.HandleFunc("DELETE /api/items/{name}", h.DeleteItem)
	mux.HandleFunc("GET /api/low-stock", h.LowStock)
	mux.HandleFunc("GET /api/search", h.SearchItems)
	mux.HandleFunc("GET /api/threshold", h.GetThreshold)
	mux.HandleFunc("POST /api/threshold", h.SetThreshold)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toResponses(h.inventory.ListAll(r.Context())))
}

func (h *HTTPHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, StatusResponse{Success: false, Message: "invalid request body"})
		return
	}

	item, err := h.inventory.Create(r.Context(), req.Name, req.Quantity, req.Price)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(*item))
}

func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, StatusResponse{Success: false, Message: "invalid request body"})
		return
	}

	item, err := h.inventory.Update(r.Context(), r.PathValue("name"), service.UpdateParams{
		Quantity: req.Quantity,
		Price:    req.Price,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(*item))
}

func (h *HTTPHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.inventory.Delete(r.Context(), r.PathValue("name")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Success: true, Message: "item deleted"})
}

func (h *HTTPHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toResponses(h.inventory.LowStock(r.Context())))
}

func (h *HTTPHandler) SearchItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	writeJSON(w, http.StatusOK, toResponses(h.inventory.Search(r.Context(), query)))
}

func (h *HTTPHandler) GetThreshold(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ThresholdPayload{Threshold: h.inventory.GetThreshold(r.Context())})
}

func (h *HTTPHandler) SetThreshold(w http.ResponseWriter, r *http.Request) {
	var req ThresholdPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, StatusResponse{Success: false, Message: "invalid request body"})
		return
	}

	if err := h.inventory.SetThreshold(r.Context(), req.Threshold); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Success: true, Message: "threshold updated"})
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
		message = "item not found"
	case errors.Is(err, service.ErrDuplicateName):
		status = http.StatusConflict
		message = "item already exists"
	case errors.Is(err, service.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
		message = "store unavailable"
	default:
		h.log.Error("unclassified error", "error", err)
	}

	writeJSON(w, status, StatusResponse{Success: false, Message: message})
}

func toResponse(item domain.Item) ItemResponse {
	return ItemResponse{
		Name:      item.Name,
		Quantity:  item.Quantity,
		Price:     item.Price,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func toResponses(items []domain.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toResponse(it))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
