package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func floatPtr(v float64) *float64 { return &v }

func validRequest() CreateAlertRequest {
	return CreateAlertRequest{
		UserID: "user-1",
		Location: &LocationInput{
			Latitude:  floatPtr(55.7558),
			Longitude: floatPtr(37.6173),
		},
		Message: "Fall detected",
	}
}

func newTestService(repo Repository, d *Dispatcher) *Service {
	return NewService(repo, d, nil, 200, zap.NewNop())
}

func quietDispatcher(repo Repository) *Dispatcher {
	// Все каналы скипаются: ничего не сконфигурировано
	return NewDispatcher(repo, &fakeResolver{}, &fakeUsers{}, &fakeSelector{}, &fakeSMS{}, &fakePush{}, &fakeEmail{}, nil, DispatcherConfig{}, zap.NewNop())
}

func TestService_CreatePersists(t *testing.T) {
	repo := newFakeRepo()
	s := newTestService(repo, quietDispatcher(repo))

	a, err := s.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if a.ID == "" {
		t.Error("Expected generated alert ID")
	}
	if a.Location.Latitude != 55.7558 || a.Location.Longitude != 37.6173 {
		t.Errorf("Unexpected location: %+v", a.Location)
	}

	repo.mu.Lock()
	_, stored := repo.alerts[a.ID]
	repo.mu.Unlock()
	if !stored {
		t.Error("Expected alert persisted before return")
	}
}

func TestService_CreateValidation(t *testing.T) {
	repo := newFakeRepo()
	s := newTestService(repo, quietDispatcher(repo))

	cases := []struct {
		name  string
		mod   func(*CreateAlertRequest)
		field string
	}{
		{"missing user", func(r *CreateAlertRequest) { r.UserID = "" }, "userId"},
		{"missing location", func(r *CreateAlertRequest) { r.Location = nil }, "location"},
		{"missing latitude", func(r *CreateAlertRequest) { r.Location.Latitude = nil }, "location"},
		{"missing message", func(r *CreateAlertRequest) { r.Message = "" }, "message"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mod(&req)

			_, err := s.Create(context.Background(), req)

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Expected validation error, got %v", err)
			}
			if validationErr.Field != tc.field {
				t.Errorf("Expected field %q, got %q", tc.field, validationErr.Field)
			}
		})
	}

	repo.mu.Lock()
	stored := len(repo.alerts)
	repo.mu.Unlock()
	if stored != 0 {
		t.Errorf("Expected no alerts persisted for invalid requests, got %d", stored)
	}
}

func TestService_CreateReturnsBeforeChannels(t *testing.T) {
	repo := newFakeRepo()

	// Email канал блокируется до release: Create не должен его ждать
	release := make(chan struct{})
	email := &fakeEmail{block: release}
	d := NewDispatcher(repo, &fakeResolver{}, &fakeUsers{}, &fakeSelector{}, &fakeSMS{}, &fakePush{}, email, nil,
		DispatcherConfig{EmailTo: []string{"ops@example.com"}}, zap.NewNop())
	s := newTestService(repo, d)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := s.Create(context.Background(), validRequest()); err != nil {
			t.Errorf("Create failed: %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Create blocked on notification channel")
	}

	close(release)
}

func TestService_ListClampsLimit(t *testing.T) {
	repo := newFakeRepo()
	s := NewService(repo, quietDispatcher(repo), nil, 100, zap.NewNop())

	if _, err := s.List(context.Background(), 0); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	repo.mu.Lock()
	got := repo.lastLimit
	repo.mu.Unlock()
	if got != 100 {
		t.Errorf("Expected default limit 100 for zero input, got %d", got)
	}

	if _, err := s.List(context.Background(), 5000); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	repo.mu.Lock()
	got = repo.lastLimit
	repo.mu.Unlock()
	if got != 100 {
		t.Errorf("Expected limit clamped to 100, got %d", got)
	}

	if _, err := s.List(context.Background(), 10); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	repo.mu.Lock()
	got = repo.lastLimit
	repo.mu.Unlock()
	if got != 10 {
		t.Errorf("Expected limit 10 passed through, got %d", got)
	}
}
