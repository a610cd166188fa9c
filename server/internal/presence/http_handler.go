package presence

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HTTPHandler обрабатывает запросы обновления присутствия (Presentation Layer)
type HTTPHandler struct {
	store  Store
	logger *zap.Logger
}

// NewHTTPHandler создает новый HTTP обработчик
func NewHTTPHandler(store Store, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes регистрирует маршруты в роутере
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/presence", h.UpdatePresence).Methods("POST")
}

// UpdatePresence выполняет upsert регистрации устройства
// @Summary Обновить присутствие устройства
// @Tags presence
// @Accept json
// @Produce json
// @Param request body UpdateRequest true "Регистрация устройства"
// @Success 200 {object} Device
// @Router /api/presence [post]
func (h *HTTPHandler) UpdatePresence(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.UserID == "" {
		if req.UserID = r.Header.Get("X-User-ID"); req.UserID == "" {
			respondError(w, http.StatusBadRequest, "userId required")
			return
		}
	}

	device := Device{
		UserID:      req.UserID,
		UserCode:    req.UserCode,
		DeviceToken: req.DeviceToken,
	}

	if req.Location != nil {
		if !finiteCoords(req.Location.Latitude, req.Location.Longitude) {
			respondError(w, http.StatusBadRequest, "Valid location required")
			return
		}
		device.Location = &GeoPoint{
			Latitude:  req.Location.Latitude,
			Longitude: req.Location.Longitude,
			UpdatedAt: time.Now(),
		}
	}

	if err := h.store.Upsert(r.Context(), device); err != nil {
		h.logger.Error("Failed to upsert presence", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to update presence")
		return
	}

	respondJSON(w, http.StatusOK, device)
}

// finiteCoords проверяет, что координаты пригодны для сериализации
// и расчета расстояний (NaN и ±Inf отбрасываются на входе)
func finiteCoords(lat, lon float64) bool {
	return !math.IsNaN(lat) && !math.IsNaN(lon) &&
		!math.IsInf(lat, 0) && !math.IsInf(lon, 0)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":  message,
		"status": status,
	})
}
