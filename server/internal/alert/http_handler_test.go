package alert

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func setupHandler(t *testing.T) (*fakeRepo, *fakeSMS, *mux.Router) {
	t.Helper()

	repo := newFakeRepo()
	sms := &fakeSMS{}
	d := NewDispatcher(repo, &fakeResolver{}, &fakeUsers{}, &fakeSelector{}, sms, &fakePush{}, &fakeEmail{}, nil, testConfig(), zap.NewNop())
	s := newTestService(repo, d)

	router := mux.NewRouter()
	NewHTTPHandler(s, zap.NewNop()).RegisterRoutes(router)

	return repo, sms, router
}

func TestHTTPHandler_CreateAlert(t *testing.T) {
	repo, _, router := setupHandler(t)

	body := `{"userId":"user-1","location":{"latitude":55.7558,"longitude":37.6173},"message":"help"}`
	req := httptest.NewRequest(http.MethodPost, "/api/alerts", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool   `json:"success"`
		Alert   *Alert `json:"alert"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Success || resp.Alert == nil || resp.Alert.ID == "" {
		t.Errorf("Unexpected response: %+v", resp)
	}

	repo.mu.Lock()
	stored := len(repo.alerts)
	repo.mu.Unlock()
	if stored != 1 {
		t.Errorf("Expected 1 persisted alert, got %d", stored)
	}
}

func TestHTTPHandler_CreateAlert_HeaderOverridesBody(t *testing.T) {
	_, _, router := setupHandler(t)

	// Проверенный идентификатор из заголовка важнее тела запроса
	body := `{"userId":"spoofed","location":{"latitude":55.7558,"longitude":37.6173},"message":"help"}`
	req := httptest.NewRequest(http.MethodPost, "/api/alerts", strings.NewReader(body))
	req.Header.Set("X-User-ID", "authenticated-user")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", rec.Code)
	}

	var resp struct {
		Alert *Alert `json:"alert"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Alert.UserID != "authenticated-user" {
		t.Errorf("Expected header user id, got %q", resp.Alert.UserID)
	}
}

func TestHTTPHandler_CreateAlert_Validation(t *testing.T) {
	_, _, router := setupHandler(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing location", `{"userId":"user-1","message":"help"}`},
		{"missing message", `{"userId":"user-1","location":{"latitude":1,"longitude":2}}`},
		{"missing user", `{"location":{"latitude":1,"longitude":2},"message":"help"}`},
		{"malformed json", `{"userId":`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/alerts", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestHTTPHandler_SMSStatusCallback(t *testing.T) {
	repo, _, router := setupHandler(t)
	a := seedAlertWithSMS(repo, "SM2001")

	form := url.Values{}
	form.Set("MessageSid", "SM2001")
	form.Set("MessageStatus", "delivered")
	form.Set("To", operatorNumber)
	form.Set("From", fromNumber)

	req := httptest.NewRequest(http.MethodPost, "/api/alerts/sms-status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	repo.mu.Lock()
	state := repo.smsStates[a.ID]
	repo.mu.Unlock()
	if state.Status != "delivered" {
		t.Errorf("Expected delivered status applied, got %q", state.Status)
	}
}

func TestHTTPHandler_SMSStatusCallback_AlwaysAcks(t *testing.T) {
	_, _, router := setupHandler(t)

	// Неизвестный sid и мусорное тело все равно получают 200
	cases := []string{
		"MessageSid=SM9999&MessageStatus=failed",
		"%zz-not-a-form",
		"",
	}

	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/alerts/sms-status", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200 for body %q, got %d", body, rec.Code)
		}
	}
}
