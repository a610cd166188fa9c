package presence

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type recordingStore struct {
	mu      sync.Mutex
	upserts []Device
}

func (s *recordingStore) Upsert(_ context.Context, device Device) error {
	s.mu.Lock()
	s.upserts = append(s.upserts, device)
	s.mu.Unlock()
	return nil
}

func (s *recordingStore) Get(_ context.Context, _ string) (*Device, error) {
	return nil, ErrNotFound
}

func (s *recordingStore) List(_ context.Context) ([]Device, error) { return nil, nil }

func setupPresenceHandler(t *testing.T) (*recordingStore, *mux.Router) {
	t.Helper()

	store := &recordingStore{}
	router := mux.NewRouter()
	NewHTTPHandler(store, zap.NewNop()).RegisterRoutes(router)

	return store, router
}

func TestUpdatePresence_UpsertsDevice(t *testing.T) {
	store, router := setupPresenceHandler(t)

	body := `{"user_id":"user-1","device_token":"ExponentPushToken[aaa]","last_location":{"latitude":55.7558,"longitude":37.6173}}`
	req := httptest.NewRequest(http.MethodPost, "/api/presence", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.upserts) != 1 {
		t.Fatalf("Expected 1 upsert, got %d", len(store.upserts))
	}
	d := store.upserts[0]
	if d.UserID != "user-1" || d.DeviceToken != "ExponentPushToken[aaa]" || d.Location == nil {
		t.Errorf("Unexpected device upserted: %+v", d)
	}
}

func TestUpdatePresence_RejectsBadLocation(t *testing.T) {
	store, router := setupPresenceHandler(t)

	// Нечисловые и переполняющие float64 координаты не доходят до стора
	cases := []struct {
		name string
		body string
	}{
		{"overflow latitude", `{"user_id":"user-1","last_location":{"latitude":1e999,"longitude":37.6}}`},
		{"overflow longitude", `{"user_id":"user-1","last_location":{"latitude":55.7,"longitude":-1e999}}`},
		{"non-numeric latitude", `{"user_id":"user-1","last_location":{"latitude":"abc","longitude":37.6}}`},
		{"missing user", `{"last_location":{"latitude":55.7,"longitude":37.6}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/presence", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rec.Code)
			}
		})
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.upserts) != 0 {
		t.Errorf("Expected no upserts for rejected requests, got %d", len(store.upserts))
	}
}

func TestFiniteCoords(t *testing.T) {
	cases := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"valid", 55.7558, 37.6173, true},
		{"zero", 0, 0, true},
		{"nan latitude", math.NaN(), 37.6, false},
		{"nan longitude", 55.7, math.NaN(), false},
		{"positive inf", math.Inf(1), 37.6, false},
		{"negative inf", 55.7, math.Inf(-1), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := finiteCoords(tc.lat, tc.lon); got != tc.want {
				t.Errorf("Expected %v for (%v, %v), got %v", tc.want, tc.lat, tc.lon, got)
			}
		})
	}
}
