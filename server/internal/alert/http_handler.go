package alert

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HTTPHandler обрабатывает HTTP запросы алертов (Presentation Layer)
type HTTPHandler struct {
	service *Service
	logger  *zap.Logger
}

// NewHTTPHandler создает новый HTTP обработчик
func NewHTTPHandler(service *Service, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes регистрирует маршруты в роутере
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/alerts").Subrouter()

	api.HandleFunc("", h.CreateAlert).Methods("POST")
	api.HandleFunc("", h.ListAlerts).Methods("GET")
	api.HandleFunc("/sms-status", h.SMSStatusCallback).Methods("POST")
}

// CreateAlert создает SOS алерт
// @Summary Создать SOS алерт
// @Description Сохраняет алерт и отвечает немедленно; каналы уведомлений работают в фоне
// @Tags alerts
// @Accept json
// @Produce json
// @Param X-User-ID header string false "Идентификатор пользователя (проверенный токен)"
// @Param request body CreateAlertRequest true "Алерт"
// @Success 201 {object} Alert
// @Failure 400 {object} map[string]interface{}
// @Router /api/alerts [post]
func (h *HTTPHandler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req CreateAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Аутентификацию выполняет внешний коллаборатор: проверенный
	// идентификатор приходит в заголовке, тело запроса служит запасным
	if id := r.Header.Get("X-User-ID"); id != "" {
		req.UserID = id
	}

	a, err := h.service.Create(r.Context(), req)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			respondError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		h.logger.Error("Failed to create alert", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to create alert")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"alert":   a,
	})
}

// ListAlerts возвращает последние алерты
// @Summary Список последних алертов
// @Tags alerts
// @Produce json
// @Param limit query int false "Лимит выдачи"
// @Success 200 {object} map[string]interface{}
// @Router /api/alerts [get]
func (h *HTTPHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	alerts, err := h.service.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list alerts", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to list alerts")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(alerts),
		"alerts":  alerts,
	})
}

// SMSStatusCallback принимает статус-коллбэк SMS провайдера.
// Всегда отвечает 200, даже если алерт не найден: провайдер не должен
// ретраить квитанции в ошибочное состояние.
// @Summary Квитанция доставки SMS (Twilio status callback)
// @Tags alerts
// @Accept x-www-form-urlencoded
// @Produce plain
// @Success 200 {string} string "OK"
// @Router /api/alerts/sms-status [post]
func (h *HTTPHandler) SMSStatusCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("Malformed sms status callback", zap.Error(err))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
		return
	}

	receipt := Receipt{
		MessageSid:    r.PostFormValue("MessageSid"),
		MessageStatus: r.PostFormValue("MessageStatus"),
		To:            r.PostFormValue("To"),
		From:          r.PostFormValue("From"),
	}
	if v := r.PostFormValue("ErrorCode"); v != "" {
		if code, err := strconv.Atoi(v); err == nil {
			receipt.ErrorCode = &code
		}
	}
	if v := r.PostFormValue("ErrorMessage"); v != "" {
		receipt.ErrorMessage = &v
	}

	h.logger.Info("SMS status callback",
		zap.String("message_sid", receipt.MessageSid),
		zap.String("status", receipt.MessageStatus),
	)

	if err := h.service.ApplyReceipt(r.Context(), receipt); err != nil {
		h.logger.Error("Failed to apply delivery receipt", zap.Error(err))
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
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
