package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dongwonkwak/mini-notion-app-sub000/internal/entity"
	"github.com/dongwonkwak/mini-notion-app-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// AnomalyThresholds gate the suspicious-activity heuristics. Zero values
// fall back to the defaults below.
type AnomalyThresholds struct {
	MaxDistinctIPs int
	MaxLogins      int
	MaxNightLogins int
}

const (
	defaultMaxDistinctIPs = 3
	defaultMaxLogins      = 10
	defaultMaxNightLogins = 2

	anomalyWindow = 24 * time.Hour
)

type AuthEventInput struct {
	Type      entity.AuthEventType
	UserID    *uuid.UUID
	IPAddress *string
	UserAgent *string
	Metadata  map[string]any
}

// EventLogger appends audit events and runs the threshold heuristics over
// them. Appends are best-effort: failures are reported to the local logger
// and otherwise swallowed.
type EventLogger struct {
	events     repository.AuthEventRepository
	logger     *logrus.Logger
	clock      Clock
	thresholds AnomalyThresholds
}

func NewEventLogger(
	events repository.AuthEventRepository,
	logger *logrus.Logger,
	clock Clock,
	thresholds AnomalyThresholds,
) *EventLogger {
	if thresholds.MaxDistinctIPs == 0 {
		thresholds.MaxDistinctIPs = defaultMaxDistinctIPs
	}
	if thresholds.MaxLogins == 0 {
		thresholds.MaxLogins = defaultMaxLogins
	}
	if thresholds.MaxNightLogins == 0 {
		thresholds.MaxNightLogins = defaultMaxNightLogins
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &EventLogger{events: events, logger: logger, clock: clock, thresholds: thresholds}
}

// LogEvent appends one audit event. It never returns an error.
func (l *EventLogger) LogEvent(ctx context.Context, input AuthEventInput) {
	event := &entity.AuthEvent{
		Type:      input.Type,
		UserID:    input.UserID,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	}
	if input.Metadata != nil {
		data, err := json.Marshal(input.Metadata)
		if err != nil {
			l.report("event.encode", err)
			return
		}
		event.Metadata = datatypes.JSON(data)
	}
	if err := l.events.Append(ctx, event); err != nil {
		l.report("event.append", err)
	}
}

// DetectSuspiciousActivity runs three independent heuristics over the
// user's last 24 hours of events. Any single hit flags the user and emits
// a SUSPICIOUS_ACTIVITY event.
func (l *EventLogger) DetectSuspiciousActivity(ctx context.Context, userID uuid.UUID, ip string) bool {
	now := l.clock.Now()
	events, err := l.events.FindByUserSince(ctx, userID, now.Add(-anomalyWindow))
	if err != nil {
		l.report("event.scan", err)
		return false
	}

	var (
		logins      int
		nightLogins int
		ips         = map[string]struct{}{}
	)
	for _, event := range events {
		if event.Type != entity.EventLogin {
			continue
		}
		logins++
		if event.IPAddress != nil && *event.IPAddress != "" {
			ips[*event.IPAddress] = struct{}{}
		}
		if isNightHour(event.CreatedAt.Local().Hour()) {
			nightLogins++
		}
	}

	var reasons []string
	if len(ips) > l.thresholds.MaxDistinctIPs {
		reasons = append(reasons, "multiple_ips")
	}
	if logins > l.thresholds.MaxLogins {
		reasons = append(reasons, "excessive_logins")
	}
	if isNightHour(now.Local().Hour()) && nightLogins > l.thresholds.MaxNightLogins {
		reasons = append(reasons, "night_hours")
	}
	if len(reasons) == 0 {
		return false
	}

	metadata := map[string]any{"reasons": reasons}
	var ipPtr *string
	if ip != "" {
		ipPtr = &ip
		metadata["ip"] = ip
	}
	l.LogEvent(ctx, AuthEventInput{
		Type:      entity.EventSuspiciousActivity,
		UserID:    &userID,
		IPAddress: ipPtr,
		Metadata:  metadata,
	})
	return true
}

// SecurityStats aggregates event counts by type over the trailing window,
// for the admin dashboard. Pass a nil userID for workspace-wide totals.
func (l *EventLogger) SecurityStats(
	ctx context.Context,
	userID *uuid.UUID,
	days int,
) (map[entity.AuthEventType]int64, error) {
	if days <= 0 {
		days = 7
	}
	since := l.clock.Now().AddDate(0, 0, -days)
	counts, err := l.events.CountByTypeSince(ctx, userID, since)
	if err != nil {
		return nil, WrapUnexpected(CodeAuthenticationError, err)
	}
	return counts, nil
}

// CleanupOldLogs deletes events older than the retention cutoff and
// returns the number removed. The retention job owns clamping daysToKeep
// to a sane range.
func (l *EventLogger) CleanupOldLogs(ctx context.Context, daysToKeep int) (int64, error) {
	cutoff := l.clock.Now().AddDate(0, 0, -daysToKeep)
	removed, err := l.events.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, WrapUnexpected(CodeAuthenticationError, err)
	}
	return removed, nil
}

func (l *EventLogger) report(op string, err error) {
	if l.logger != nil {
		l.logger.WithError(err).WithField("op", op).Warn("audit log degraded")
	}
}

// isNightHour treats local hours 23:00 through 05:59 as night.
func isNightHour(hour int) bool {
	return hour < 6 || hour >= 23
}
