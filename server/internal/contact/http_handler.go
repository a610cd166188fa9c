package contact

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HTTPHandler обрабатывает HTTP запросы управления контактами (Presentation Layer).
// Аутентификацию выполняет внешний коллаборатор: идентификатор пользователя
// приходит в заголовке X-User-ID (проверенный токен) с fallback на тело запроса.
type HTTPHandler struct {
	contacts Repository
	logger   *zap.Logger
}

// NewHTTPHandler создает новый HTTP обработчик
func NewHTTPHandler(contacts Repository, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		contacts: contacts,
		logger:   logger,
	}
}

// RegisterRoutes регистрирует маршруты в роутере
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/contacts").Subrouter()

	api.HandleFunc("", h.CreateContact).Methods("POST")
	api.HandleFunc("", h.ListContacts).Methods("GET")
	api.HandleFunc("/{id}", h.DeleteContact).Methods("DELETE")
}

// CreateContact добавляет экстренный контакт
// @Summary Добавить экстренный контакт
// @Tags contacts
// @Accept json
// @Produce json
// @Param X-User-ID header string false "Идентификатор пользователя"
// @Param request body CreateContactRequest true "Контакт"
// @Success 201 {object} EmergencyContact
// @Router /api/contacts [post]
func (h *HTTPHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req CreateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := requestUserID(r, req.UserID)
	if userID == "" || req.Name == "" || req.Phone == "" {
		respondError(w, http.StatusBadRequest, "userId (auth), name and phone are required")
		return
	}

	c := &EmergencyContact{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      req.Name,
		Phone:     req.Phone,
		CreatedAt: time.Now(),
	}

	if err := h.contacts.Create(r.Context(), c); err != nil {
		h.logger.Error("Failed to create contact", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to create contact")
		return
	}

	respondJSON(w, http.StatusCreated, c)
}

// ListContacts возвращает контакты текущего пользователя
// @Summary Список экстренных контактов
// @Tags contacts
// @Produce json
// @Param X-User-ID header string true "Идентификатор пользователя"
// @Success 200 {array} EmergencyContact
// @Router /api/contacts [get]
func (h *HTTPHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r, "")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "userId required (auth)")
		return
	}

	contacts, err := h.contacts.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list contacts", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to list contacts")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"contacts": contacts,
		"count":    len(contacts),
	})
}

// DeleteContact удаляет контакт текущего пользователя
// @Summary Удалить экстренный контакт
// @Tags contacts
// @Param X-User-ID header string true "Идентификатор пользователя"
// @Param id path string true "ID контакта"
// @Success 200 {object} map[string]interface{}
// @Router /api/contacts/{id} [delete]
func (h *HTTPHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	contactID := mux.Vars(r)["id"]
	userID := requestUserID(r, "")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "contact id and auth required")
		return
	}

	c, err := h.contacts.GetByID(r.Context(), contactID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respondError(w, http.StatusNotFound, "Contact not found")
			return
		}
		h.logger.Error("Failed to get contact", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete contact")
		return
	}

	if c.UserID != userID {
		respondError(w, http.StatusForbidden, "Not authorized to delete this contact")
		return
	}

	if err := h.contacts.Delete(r.Context(), contactID); err != nil {
		h.logger.Error("Failed to delete contact", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete contact")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func requestUserID(r *http.Request, fallback string) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return fallback
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
