package service

import (
	"context"
	"testing"
	"time"

	"github.com/dongwonkwak/mini-notion-app-sub000/internal/entity"

	"github.com/google/uuid"
)

func seedLogins(repo *fakeEventRepo, userID uuid.UUID, count int, ip string, at time.Time) {
	for i := 0; i < count; i++ {
		addr := ip
		repo.events = append(repo.events, entity.AuthEvent{
			Type:      entity.EventLogin,
			UserID:    &userID,
			IPAddress: &addr,
			CreatedAt: at,
		})
	}
}

func TestDetectSuspiciousActivityDistinctIPs(t *testing.T) {
	repo := newFakeEventRepo()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)}
	logger := NewEventLogger(repo, testLogger(), clock, AnomalyThresholds{})
	userID := uuid.New()
	recent := clock.Now().Add(-time.Hour)

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		seedLogins(repo, userID, 1, ip, recent)
	}
	if logger.DetectSuspiciousActivity(context.Background(), userID, "10.0.0.3") {
		t.Error("3 distinct IPs is at the threshold, not over it")
	}

	seedLogins(repo, userID, 1, "10.0.0.4", recent)
	if !logger.DetectSuspiciousActivity(context.Background(), userID, "10.0.0.4") {
		t.Error("4 distinct IPs should flag")
	}
	if repo.countType(entity.EventSuspiciousActivity) != 1 {
		t.Error("flag should append a SUSPICIOUS_ACTIVITY event")
	}
}

func TestDetectSuspiciousActivityExcessiveLogins(t *testing.T) {
	repo := newFakeEventRepo()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)}
	logger := NewEventLogger(repo, testLogger(), clock, AnomalyThresholds{})
	userID := uuid.New()
	recent := clock.Now().Add(-time.Hour)

	seedLogins(repo, userID, 10, "10.0.0.1", recent)
	if logger.DetectSuspiciousActivity(context.Background(), userID, "10.0.0.1") {
		t.Error("10 logins is at the threshold, not over it")
	}

	seedLogins(repo, userID, 1, "10.0.0.1", recent)
	if !logger.DetectSuspiciousActivity(context.Background(), userID, "10.0.0.1") {
		t.Error("11 logins should flag")
	}
}

func TestDetectSuspiciousActivityIgnoresOldEvents(t *testing.T) {
	repo := newFakeEventRepo()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)}
	logger := NewEventLogger(repo, testLogger(), clock, AnomalyThresholds{})
	userID := uuid.New()

	seedLogins(repo, userID, 20, "10.0.0.1", clock.Now().Add(-25*time.Hour))
	if logger.DetectSuspiciousActivity(context.Background(), userID, "10.0.0.1") {
		t.Error("events outside the 24h window must not count")
	}
}

func TestDetectSuspiciousActivityNightLogins(t *testing.T) {
	repo := newFakeEventRepo()
	night := time.Date(2026, 3, 1, 2, 0, 0, 0, time.Local)
	clock := &fakeClock{now: night}
	logger := NewEventLogger(repo, testLogger(), clock, AnomalyThresholds{})
	userID := uuid.New()

	seedLogins(repo, userID, 3, "10.0.0.1", night.Add(-time.Hour))
	if !logger.DetectSuspiciousActivity(context.Background(), userID, "10.0.0.1") {
		t.Error("3 night logins during night hours should flag")
	}

	day := time.Date(2026, 3, 1, 14, 0, 0, 0, time.Local)
	dayRepo := newFakeEventRepo()
	dayClock := &fakeClock{now: day}
	dayLogger := NewEventLogger(dayRepo, testLogger(), dayClock, AnomalyThresholds{})
	seedLogins(dayRepo, userID, 3, "10.0.0.1", day.Add(-12*time.Hour))
	if dayLogger.DetectSuspiciousActivity(context.Background(), userID, "10.0.0.1") {
		t.Error("night heuristic must only fire during night hours")
	}
}

func TestDetectSuspiciousActivityFailsOpen(t *testing.T) {
	repo := newFakeEventRepo()
	repo.findErr = context.DeadlineExceeded
	clock := &fakeClock{now: time.Now()}
	logger := NewEventLogger(repo, testLogger(), clock, AnomalyThresholds{})

	if logger.DetectSuspiciousActivity(context.Background(), uuid.New(), "10.0.0.1") {
		t.Error("scan failure must not flag the user")
	}
}

func TestLogEventSwallowsFailures(t *testing.T) {
	repo := newFakeEventRepo()
	repo.appendErr = context.DeadlineExceeded
	logger := NewEventLogger(repo, testLogger(), &fakeClock{now: time.Now()}, AnomalyThresholds{})

	logger.LogEvent(context.Background(), AuthEventInput{
		Type:     entity.EventLogin,
		Metadata: map[string]any{"success": true},
	})
	if len(repo.events) != 0 {
		t.Error("append should have failed silently")
	}
}

func TestSecurityStatsAndCleanup(t *testing.T) {
	repo := newFakeEventRepo()
	clock := &fakeClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	logger := NewEventLogger(repo, testLogger(), clock, AnomalyThresholds{})
	userID := uuid.New()
	ctx := context.Background()

	seedLogins(repo, userID, 2, "10.0.0.1", clock.Now().Add(-time.Hour))
	seedLogins(repo, userID, 5, "10.0.0.1", clock.Now().Add(-40*24*time.Hour))
	repo.events = append(repo.events, entity.AuthEvent{
		Type:      entity.EventPasswordReset,
		UserID:    &userID,
		CreatedAt: clock.Now().Add(-2 * time.Hour),
	})

	counts, err := logger.SecurityStats(ctx, &userID, 7)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if counts[entity.EventLogin] != 2 {
		t.Errorf("logins = %d, want 2", counts[entity.EventLogin])
	}
	if counts[entity.EventPasswordReset] != 1 {
		t.Errorf("resets = %d, want 1", counts[entity.EventPasswordReset])
	}

	removed, err := logger.CleanupOldLogs(ctx, 30)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 5 {
		t.Errorf("removed = %d, want 5", removed)
	}
	if len(repo.events) != 3 {
		t.Errorf("kept = %d, want 3", len(repo.events))
	}
}
