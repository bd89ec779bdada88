package service

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dongwonkwak/mini-notion-app-sub000/internal/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User

	findErr    error
	createErr  error
	consumeErr error

	updateLastActiveCalls int
	setPasswordCalls      int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *fakeUserRepo) add(user *entity.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.add(user)
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.users[id], nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdateLastActive(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateLastActiveCalls++
	if user, ok := r.users[userID]; ok {
		user.LastActiveAt = time.Now()
	}
	return nil
}

func (r *fakeUserRepo) SetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setPasswordCalls++
	if user, ok := r.users[userID]; ok {
		user.PasswordHash = &passwordHash
	}
	return nil
}

func (r *fakeUserRepo) SetMFASecret(
	ctx context.Context,
	userID uuid.UUID,
	secret string,
	backupCodes datatypes.JSON,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[userID]; ok {
		user.MFASecret = &secret
		user.MFABackupCodes = backupCodes
	}
	return nil
}

func (r *fakeUserRepo) SetMFAEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[userID]; ok {
		user.MFAEnabled = enabled
	}
	return nil
}

func (r *fakeUserRepo) ClearMFA(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[userID]; ok {
		user.MFAEnabled = false
		user.MFASecret = nil
		user.MFABackupCodes = nil
	}
	return nil
}

func (r *fakeUserRepo) SetBackupCodes(ctx context.Context, userID uuid.UUID, backupCodes datatypes.JSON) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[userID]; ok {
		user.MFABackupCodes = backupCodes
	}
	return nil
}

func (r *fakeUserRepo) ConsumeBackupCode(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.consumeErr != nil {
		return false, r.consumeErr
	}
	user, ok := r.users[userID]
	if !ok || user.MFABackupCodes == nil {
		return false, nil
	}
	var codes []string
	if err := json.Unmarshal(user.MFABackupCodes, &codes); err != nil {
		return false, err
	}
	for i, stored := range codes {
		if stored == code {
			codes = append(codes[:i], codes[i+1:]...)
			encoded, err := json.Marshal(codes)
			if err != nil {
				return false, err
			}
			user.MFABackupCodes = datatypes.JSON(encoded)
			return true, nil
		}
	}
	return false, nil
}

type fakeMemberRepo struct {
	mu      sync.Mutex
	members map[string]*entity.WorkspaceMember
	findErr error
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: make(map[string]*entity.WorkspaceMember)}
}

func memberKey(userID, workspaceID uuid.UUID) string {
	return userID.String() + "|" + workspaceID.String()
}

func (r *fakeMemberRepo) add(member *entity.WorkspaceMember) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[memberKey(member.UserID, member.WorkspaceID)] = member
}

func (r *fakeMemberRepo) Create(ctx context.Context, member *entity.WorkspaceMember) error {
	r.add(member)
	return nil
}

func (r *fakeMemberRepo) Find(
	ctx context.Context,
	userID, workspaceID uuid.UUID,
) (*entity.WorkspaceMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.members[memberKey(userID, workspaceID)], nil
}

func (r *fakeMemberRepo) UpdateRole(
	ctx context.Context,
	userID, workspaceID uuid.UUID,
	role entity.WorkspaceRole,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if member, ok := r.members[memberKey(userID, workspaceID)]; ok {
		member.Role = role
	}
	return nil
}

func (r *fakeMemberRepo) Delete(ctx context.Context, userID, workspaceID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, memberKey(userID, workspaceID))
	return nil
}

func (r *fakeMemberRepo) ListByWorkspace(
	ctx context.Context,
	workspaceID uuid.UUID,
) ([]entity.WorkspaceMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var members []entity.WorkspaceMember
	for _, member := range r.members {
		if member.WorkspaceID == workspaceID {
			members = append(members, *member)
		}
	}
	return members, nil
}

type fakeEventRepo struct {
	mu        sync.Mutex
	events    []entity.AuthEvent
	appendErr error
	findErr   error
	now       func() time.Time
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{now: time.Now}
}

func (r *fakeEventRepo) Append(ctx context.Context, event *entity.AuthEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.now()
	}
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeEventRepo) FindByUserSince(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) ([]entity.AuthEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var matched []entity.AuthEvent
	for _, event := range r.events {
		if event.UserID != nil && *event.UserID == userID && !event.CreatedAt.Before(since) {
			matched = append(matched, event)
		}
	}
	return matched, nil
}

func (r *fakeEventRepo) CountByTypeSince(
	ctx context.Context,
	userID *uuid.UUID,
	since time.Time,
) (map[entity.AuthEventType]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	counts := make(map[entity.AuthEventType]int64)
	for _, event := range r.events {
		if event.CreatedAt.Before(since) {
			continue
		}
		if userID != nil && (event.UserID == nil || *event.UserID != *userID) {
			continue
		}
		counts[event.Type]++
	}
	return counts, nil
}

func (r *fakeEventRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []entity.AuthEvent
	var removed int64
	for _, event := range r.events {
		if event.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, event)
	}
	r.events = kept
	return removed, nil
}

func (r *fakeEventRepo) countType(eventType entity.AuthEventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, event := range r.events {
		if event.Type == eventType {
			count++
		}
	}
	return count
}

type fakePageRepo struct {
	pages map[uuid.UUID]*entity.Page
}

func (r *fakePageRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Page, error) {
	return r.pages[id], nil
}

type fakeDocumentRepo struct {
	documents map[uuid.UUID]*entity.Document
}

func (r *fakeDocumentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	return r.documents[id], nil
}

type fakeEmailSender struct {
	mu     sync.Mutex
	sent   []string
	tokens []string
	err    error
}

func (s *fakeEmailSender) SendPasswordResetEmail(ctx context.Context, email string, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, email)
	s.tokens = append(s.tokens, token)
	return nil
}

func newTestCache(t *testing.T, config CacheConfig, clock Clock) (*SessionCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewSessionCache(client, config, testLogger(), clock), mr
}
