package alert

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

// seedAlertWithSMS кладет в репозиторий алерт с отправленным операторским SMS
func seedAlertWithSMS(repo *fakeRepo, sid string) *Alert {
	a := testAlert()
	repo.alerts[a.ID] = a
	state := SMSState{
		Sid:       sid,
		Status:    "queued",
		To:        operatorNumber,
		From:      fromNumber,
		UpdatedAt: time.Now(),
	}
	repo.smsStates[a.ID] = state
	repo.bySid[sid] = a
	a.SMS = &state
	return a
}

func TestApplyReceipt_UpdatesStatus(t *testing.T) {
	repo := newFakeRepo()
	sms := &fakeSMS{}
	d := NewDispatcher(repo, &fakeResolver{}, &fakeUsers{}, &fakeSelector{}, sms, &fakePush{}, &fakeEmail{}, nil, testConfig(), zap.NewNop())
	s := newTestService(repo, d)

	a := seedAlertWithSMS(repo, "SM1001")

	err := s.ApplyReceipt(context.Background(), Receipt{
		MessageSid:    "SM1001",
		MessageStatus: "delivered",
	})
	if err != nil {
		t.Fatalf("ApplyReceipt failed: %v", err)
	}

	repo.mu.Lock()
	state := repo.smsStates[a.ID]
	fallback := repo.fallbackSent[a.ID]
	repo.mu.Unlock()

	if state.Status != "delivered" {
		t.Errorf("Expected delivered status, got %q", state.Status)
	}
	// Успешная доставка не запускает fallback
	if fallback {
		t.Error("Expected no fallback for delivered receipt")
	}
	if len(sms.sent) != 0 {
		t.Errorf("Expected no SMS sent, got %d", len(sms.sent))
	}
}

func TestApplyReceipt_TerminalFailureTriggersFallback(t *testing.T) {
	repo := newFakeRepo()
	sms := &fakeSMS{}
	d := NewDispatcher(repo, &fakeResolver{}, &fakeUsers{}, &fakeSelector{}, sms, &fakePush{}, &fakeEmail{}, nil, testConfig(), zap.NewNop())
	s := newTestService(repo, d)

	a := seedAlertWithSMS(repo, "SM1002")

	code := 30003
	err := s.ApplyReceipt(context.Background(), Receipt{
		MessageSid:    "SM1002",
		MessageStatus: "undelivered",
		ErrorCode:     &code,
	})
	if err != nil {
		t.Fatalf("ApplyReceipt failed: %v", err)
	}

	repo.mu.Lock()
	fallback := repo.fallbackSent[a.ID]
	repo.mu.Unlock()
	if !fallback {
		t.Error("Expected fallback triggered by undelivered receipt")
	}
	if len(sms.sentTo(operatorNumber)) != 1 {
		t.Errorf("Expected 1 fallback SMS, got %d", len(sms.sentTo(operatorNumber)))
	}
}

func TestApplyReceipt_DuplicateFailuresOneFallback(t *testing.T) {
	repo := newFakeRepo()
	sms := &fakeSMS{}
	d := NewDispatcher(repo, &fakeResolver{}, &fakeUsers{}, &fakeSelector{}, sms, &fakePush{}, &fakeEmail{}, nil, testConfig(), zap.NewNop())
	s := newTestService(repo, d)

	seedAlertWithSMS(repo, "SM1003")

	// Провайдер может прислать дубликаты терминальной квитанции
	for i := 0; i < 3; i++ {
		if err := s.ApplyReceipt(context.Background(), Receipt{
			MessageSid:    "SM1003",
			MessageStatus: "failed",
		}); err != nil {
			t.Fatalf("ApplyReceipt failed: %v", err)
		}
	}

	if got := len(sms.sentTo(operatorNumber)); got != 1 {
		t.Errorf("Expected exactly 1 fallback SMS for duplicate receipts, got %d", got)
	}
}

func TestApplyReceipt_UnknownSidAcknowledged(t *testing.T) {
	repo := newFakeRepo()
	sms := &fakeSMS{}
	d := NewDispatcher(repo, &fakeResolver{}, &fakeUsers{}, &fakeSelector{}, sms, &fakePush{}, &fakeEmail{}, nil, testConfig(), zap.NewNop())
	s := newTestService(repo, d)

	// Квитанция без подходящего алерта подтверждается без ошибки
	err := s.ApplyReceipt(context.Background(), Receipt{
		MessageSid:    "SM9999",
		MessageStatus: "failed",
	})
	if err != nil {
		t.Fatalf("Expected unknown sid acknowledged, got %v", err)
	}

	if len(sms.sent) != 0 {
		t.Errorf("Expected no SMS for unknown sid, got %d", len(sms.sent))
	}
}

func TestApplyReceipt_EmptySidIgnored(t *testing.T) {
	repo := newFakeRepo()
	d := quietDispatcher(repo)
	s := newTestService(repo, d)

	if err := s.ApplyReceipt(context.Background(), Receipt{}); err != nil {
		t.Fatalf("Expected empty sid ignored, got %v", err)
	}

	repo.mu.Lock()
	calls := repo.statusCalls
	repo.mu.Unlock()
	if calls != 0 {
		t.Errorf("Expected no status updates for empty sid, got %d", calls)
	}
}
