package service

import (
	"context"
	"strings"

	"github.com/dongwonkwak/mini-notion-app-sub000/internal/entity"
	"github.com/dongwonkwak/mini-notion-app-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AuthService orchestrates credentials, tokens, MFA, the session cache,
// and the audit log behind a single login surface. All collaborators are
// injected; the cache and the audit log are best-effort and never fail a
// request on their own.
type AuthService struct {
	users   repository.UserRepository
	members repository.WorkspaceMemberRepository
	tokens  *TokenService
	mfa     *MFAService
	cache   *SessionCache
	events  *EventLogger
	hasher  PasswordHasher
	email   EmailSender
	logger  *logrus.Logger
	clock   Clock
}

func NewAuthService(
	users repository.UserRepository,
	members repository.WorkspaceMemberRepository,
	tokens *TokenService,
	mfa *MFAService,
	cache *SessionCache,
	events *EventLogger,
	hasher PasswordHasher,
	email EmailSender,
	logger *logrus.Logger,
	clock Clock,
) *AuthService {
	if clock == nil {
		clock = RealClock{}
	}
	return &AuthService{
		users:   users,
		members: members,
		tokens:  tokens,
		mfa:     mfa,
		cache:   cache,
		events:  events,
		hasher:  hasher,
		email:   email,
		logger:  logger,
		clock:   clock,
	}
}

// AuthenticateCredentials runs the full login sequence: lookup, suspicion
// check, password, MFA, then token issuance. Every failure path logs an
// audit event before returning its typed error.
func (s *AuthService) AuthenticateCredentials(
	ctx context.Context,
	input AuthenticateInput,
) (*AuthResult, error) {
	email := normalizeEmail(input.Email)

	user := s.cache.UserByEmail(ctx, email)
	if user == nil {
		var err error
		user, err = s.users.FindByEmail(ctx, email)
		if err != nil {
			return nil, WrapUnexpected(CodeAuthenticationError, err)
		}
		if user != nil {
			s.cache.CacheUser(ctx, user)
		}
	}
	if user == nil {
		s.events.LogEvent(ctx, AuthEventInput{
			Type:      entity.EventSuspiciousActivity,
			IPAddress: input.IPAddress,
			UserAgent: input.UserAgent,
			Metadata:  map[string]any{"reason": "unknown_email", "email": email},
		})
		return nil, NewAuthError(CodeUserNotFound)
	}

	ip := ""
	if input.IPAddress != nil {
		ip = *input.IPAddress
	}
	if s.events.DetectSuspiciousActivity(ctx, user.ID, ip) {
		s.events.LogEvent(ctx, AuthEventInput{
			Type:      entity.EventAccountLocked,
			UserID:    &user.ID,
			IPAddress: input.IPAddress,
			UserAgent: input.UserAgent,
		})
		return nil, NewAuthError(CodeAccountLocked)
	}

	if user.PasswordHash == nil || !s.hasher.Verify(*user.PasswordHash, input.Password) {
		s.logLogin(ctx, user.ID, input, false, "invalid_password")
		return nil, NewAuthError(CodeInvalidPassword)
	}

	if user.MFAEnabled {
		if input.MFAToken == "" {
			return nil, NewAuthError(CodeMFARequired)
		}
		if !s.verifySecondFactor(ctx, user, input.MFAToken) {
			s.logLogin(ctx, user.ID, input, false, "invalid_mfa_token")
			return nil, NewAuthError(CodeInvalidMFAToken)
		}
	}

	return s.completeLogin(ctx, user, input)
}

// completeLogin is the success tail of authentication: refresh activity,
// issue tokens, warm the caches, log the event.
func (s *AuthService) completeLogin(
	ctx context.Context,
	user *entity.User,
	input AuthenticateInput,
) (*AuthResult, error) {
	if err := s.users.UpdateLastActive(ctx, user.ID); err != nil {
		s.logger.WithError(err).Warn("last active update failed")
	}
	user.LastActiveAt = s.clock.Now()

	role, err := s.resolveRole(ctx, user.ID, input.WorkspaceID)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.GenerateJWT(AccessTokenInput{
		UserID:      user.ID,
		Email:       user.Email,
		Role:        role,
		WorkspaceID: input.WorkspaceID,
	})
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	public := SanitizeUser(user)
	s.cache.CacheSession(ctx, public)
	s.cache.CacheUser(ctx, user)
	s.logLogin(ctx, user.ID, input, true, "")

	return &AuthResult{User: public, Token: token, RefreshToken: refreshToken}, nil
}

// verifySecondFactor accepts a current TOTP code, falling back to one-time
// backup code redemption.
func (s *AuthService) verifySecondFactor(ctx context.Context, user *entity.User, token string) bool {
	if user.MFASecret != nil && s.mfa.VerifyMFA(*user.MFASecret, token) {
		return true
	}
	ok, err := s.mfa.VerifyBackupCode(ctx, user.ID, token)
	if err != nil {
		s.logger.WithError(err).Warn("backup code check failed")
		return false
	}
	return ok
}

// resolveRole looks up the user's role in the requested workspace. Tokens
// without a workspace context carry the guest role.
func (s *AuthService) resolveRole(
	ctx context.Context,
	userID uuid.UUID,
	workspaceID *uuid.UUID,
) (string, error) {
	if workspaceID == nil {
		return string(entity.RoleGuest), nil
	}
	member, err := s.members.Find(ctx, userID, *workspaceID)
	if err != nil {
		return "", WrapUnexpected(CodeAuthenticationError, err)
	}
	if member == nil {
		return string(entity.RoleGuest), nil
	}
	return string(member.Role), nil
}

// CreateUser registers an email or OAuth account. OAuth providers already
// verified the address, so those accounts start email-verified.
func (s *AuthService) CreateUser(ctx context.Context, input CreateUserInput) (*PublicUser, error) {
	email := normalizeEmail(input.Email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, WrapUnexpected(CodeAuthenticationError, err)
	}
	if existing != nil {
		return nil, NewAuthError(CodeUserAlreadyExists)
	}

	user := &entity.User{
		Email:    email,
		Name:     input.Name,
		Provider: input.Provider,
	}
	if input.Provider == "" {
		user.Provider = entity.ProviderEmail
	}
	if input.ProviderID != "" {
		user.ProviderID = &input.ProviderID
	}
	if input.AvatarURL != "" {
		user.AvatarURL = &input.AvatarURL
	}
	if input.Password != "" {
		hash, err := s.hasher.Hash(input.Password)
		if err != nil {
			return nil, WrapUnexpected(CodeAuthenticationError, err)
		}
		user.PasswordHash = &hash
	}
	if user.Provider != entity.ProviderEmail {
		now := s.clock.Now()
		user.EmailVerifiedAt = &now
	}

	if err := s.users.Create(ctx, user); err != nil {
		if isDuplicateKey(err) {
			return nil, NewAuthError(CodeUserAlreadyExists)
		}
		return nil, WrapUnexpected(CodeAuthenticationError, err)
	}

	public := SanitizeUser(user)
	return &public, nil
}

// CreateOAuthUser upserts the account for an OAuth callback. Repeat logins
// with the same provider identity refresh profile fields instead of
// failing.
func (s *AuthService) CreateOAuthUser(ctx context.Context, input OAuthUserInput) (*PublicUser, error) {
	email := normalizeEmail(input.Email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, WrapUnexpected(CodeAuthenticationError, err)
	}
	if existing != nil {
		existing.Name = input.Name
		existing.Provider = input.Provider
		if input.ProviderID != "" {
			existing.ProviderID = &input.ProviderID
		}
		if input.AvatarURL != "" {
			existing.AvatarURL = &input.AvatarURL
		}
		if existing.EmailVerifiedAt == nil {
			now := s.clock.Now()
			existing.EmailVerifiedAt = &now
		}
		if err := s.users.Update(ctx, existing); err != nil {
			return nil, WrapUnexpected(CodeAuthenticationError, err)
		}
		s.cache.InvalidateUser(ctx, existing.ID, existing.Email)
		public := SanitizeUser(existing)
		return &public, nil
	}

	return s.CreateUser(ctx, CreateUserInput{
		Email:      email,
		Name:       input.Name,
		Provider:   input.Provider,
		ProviderID: input.ProviderID,
		AvatarURL:  input.AvatarURL,
	})
}

// RequestPasswordReset issues a reset token and mails it. Unknown
// addresses return success without sending anything, so the endpoint
// cannot be used to probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return WrapUnexpected(CodePasswordResetFailed, err)
	}
	if user == nil {
		return nil
	}
	token, err := s.tokens.GeneratePasswordResetToken(user.ID, user.Email)
	if err != nil {
		return err
	}
	if err := s.email.SendPasswordResetEmail(ctx, user.Email, token); err != nil {
		return WrapUnexpected(CodePasswordResetFailed, err)
	}
	s.events.LogEvent(ctx, AuthEventInput{
		Type:     entity.EventPasswordReset,
		UserID:   &user.ID,
		Metadata: map[string]any{"stage": "requested"},
	})
	return nil
}

// ResetPassword redeems a reset token. Caches are invalidated only after
// the new hash is persisted, so a failed write never strands stale
// credentials.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.VerifyPasswordResetToken(token)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return NewAuthError(CodeInvalidResetToken)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return WrapUnexpected(CodePasswordResetFailed, err)
	}
	if user == nil {
		return NewAuthError(CodeUserNotFound)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return WrapUnexpected(CodePasswordResetFailed, err)
	}
	if err := s.users.SetPassword(ctx, userID, hash); err != nil {
		return WrapUnexpected(CodePasswordResetFailed, err)
	}

	s.cache.InvalidateUser(ctx, userID, user.Email)
	s.events.LogEvent(ctx, AuthEventInput{
		Type:     entity.EventPasswordReset,
		UserID:   &userID,
		Metadata: map[string]any{"stage": "completed"},
	})
	return nil
}

// RefreshSession exchanges a valid refresh token for a fresh token pair.
func (s *AuthService) RefreshSession(
	ctx context.Context,
	refreshToken string,
	workspaceID *uuid.UUID,
) (*AuthResult, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, NewAuthError(CodeInvalidRefreshToken)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, WrapUnexpected(CodeAuthenticationError, err)
	}
	if user == nil {
		return nil, NewAuthError(CodeUserNotFound)
	}
	return s.completeLogin(ctx, user, AuthenticateInput{WorkspaceID: workspaceID})
}

// VerifyJWT validates an access token, reading through the hashed-token
// cache so hot tokens skip signature checks.
func (s *AuthService) VerifyJWT(ctx context.Context, token string) (*AccessClaims, error) {
	if claims := s.cache.JWT(ctx, token); claims != nil {
		return claims, nil
	}
	claims, err := s.tokens.VerifyJWT(token)
	if err != nil {
		return nil, err
	}
	s.cache.CacheJWT(ctx, token, claims)
	return claims, nil
}

// GetCurrentUser returns the sanitized profile, reading through the user
// cache.
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*PublicUser, error) {
	user := s.cache.UserByID(ctx, userID)
	if user == nil {
		var err error
		user, err = s.users.FindByID(ctx, userID)
		if err != nil {
			return nil, WrapUnexpected(CodeAuthenticationError, err)
		}
		if user == nil {
			return nil, NewAuthError(CodeUserNotFound)
		}
		s.cache.CacheUser(ctx, user)
	}
	public := SanitizeUser(user)
	return &public, nil
}

// Logout drops the cached session and records the event.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, input AuthenticateInput) {
	s.cache.InvalidateSession(ctx, userID)
	s.events.LogEvent(ctx, AuthEventInput{
		Type:      entity.EventLogout,
		UserID:    &userID,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})
}

// SetupMFA provisions a TOTP secret for the user.
func (s *AuthService) SetupMFA(ctx context.Context, userID uuid.UUID) (*MFASetup, error) {
	setup, err := s.mfa.SetupMFA(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.events.LogEvent(ctx, AuthEventInput{
		Type:     entity.EventMFASetup,
		UserID:   &userID,
		Metadata: map[string]any{"stage": "provisioned"},
	})
	return setup, nil
}

// EnableMFA turns MFA on after the user proves possession of the secret.
func (s *AuthService) EnableMFA(ctx context.Context, userID uuid.UUID, token string) error {
	if err := s.mfa.EnableMFA(ctx, userID, token); err != nil {
		return err
	}
	s.invalidateUserByID(ctx, userID)
	s.events.LogEvent(ctx, AuthEventInput{
		Type:     entity.EventMFASetup,
		UserID:   &userID,
		Metadata: map[string]any{"stage": "enabled"},
	})
	return nil
}

// DisableMFA removes the secret and backup codes.
func (s *AuthService) DisableMFA(ctx context.Context, userID uuid.UUID) error {
	if err := s.mfa.DisableMFA(ctx, userID); err != nil {
		return err
	}
	s.invalidateUserByID(ctx, userID)
	s.events.LogEvent(ctx, AuthEventInput{
		Type:     entity.EventMFASetup,
		UserID:   &userID,
		Metadata: map[string]any{"stage": "disabled"},
	})
	return nil
}

// RegenerateBackupCodes replaces the user's backup codes.
func (s *AuthService) RegenerateBackupCodes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.mfa.RegenerateBackupCodes(ctx, userID)
}

func (s *AuthService) invalidateUserByID(ctx context.Context, userID uuid.UUID) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return
	}
	s.cache.InvalidateUser(ctx, userID, user.Email)
}

func (s *AuthService) logLogin(
	ctx context.Context,
	userID uuid.UUID,
	input AuthenticateInput,
	success bool,
	reason string,
) {
	metadata := map[string]any{"success": success}
	if reason != "" {
		metadata["reason"] = reason
	}
	s.events.LogEvent(ctx, AuthEventInput{
		Type:      entity.EventLogin,
		UserID:    &userID,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Metadata:  metadata,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "23505")
}
