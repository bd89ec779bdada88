package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenIssuer   = "collaborative-editor"
	TokenAudience = "collaborative-editor-users"

	tokenTypeRefresh = "refresh"
	tokenTypeReset   = "password-reset"
)

type TokenConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
}

// AccessClaims is the verified access-token payload. TokenType stays empty
// on access tokens; a non-empty value means the token was minted for a
// different purpose and must never pass access verification.
type AccessClaims struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	WorkspaceID string `json:"workspaceId,omitempty"`
	TokenType   string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UserID    string `json:"userId"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

type ResetClaims struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

type AccessTokenInput struct {
	UserID      uuid.UUID
	Email       string
	Role        string
	WorkspaceID *uuid.UUID
}

// TokenService issues and verifies the three token kinds. Verification is
// the only trusted path; DecodeJWT and the helpers built on it read claims
// without checking the signature and must never feed authorization
// decisions.
type TokenService struct {
	config TokenConfig
	clock  Clock
}

func NewTokenService(config TokenConfig, clock Clock) *TokenService {
	if config.AccessTTL == 0 {
		config.AccessTTL = 30 * 24 * time.Hour
	}
	if config.RefreshTTL == 0 {
		config.RefreshTTL = 90 * 24 * time.Hour
	}
	if config.ResetTTL == 0 {
		config.ResetTTL = time.Hour
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &TokenService{config: config, clock: clock}
}

func (s *TokenService) GenerateJWT(input AccessTokenInput) (string, error) {
	now := s.clock.Now()
	claims := AccessClaims{
		UserID: input.UserID.String(),
		Email:  input.Email,
		Role:   input.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			Subject:   input.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTTL)),
		},
	}
	if input.WorkspaceID != nil {
		claims.WorkspaceID = input.WorkspaceID.String()
	}
	return s.sign(&claims)
}

func (s *TokenService) VerifyJWT(tokenString string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := s.parse(tokenString, &claims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			details := map[string]any{}
			if claims.ExpiresAt != nil {
				details["expiredAt"] = claims.ExpiresAt.Time
			}
			return nil, NewAuthError(CodeExpiredJWT).WithDetails(details)
		}
		return nil, WrapUnexpected(CodeInvalidJWT, err)
	}
	if claims.TokenType != "" {
		return nil, NewAuthError(CodeInvalidJWT)
	}
	return &claims, nil
}

func (s *TokenService) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	now := s.clock.Now()
	claims := RefreshClaims{
		UserID:    userID.String(),
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.RefreshTTL)),
		},
	}
	return s.sign(&claims)
}

func (s *TokenService) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := s.parse(tokenString, &claims); err != nil {
		return nil, WrapUnexpected(CodeInvalidRefreshToken, err)
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, NewAuthError(CodeInvalidRefreshToken)
	}
	return &claims, nil
}

func (s *TokenService) GeneratePasswordResetToken(userID uuid.UUID, email string) (string, error) {
	now := s.clock.Now()
	claims := ResetClaims{
		UserID:    userID.String(),
		Email:     email,
		TokenType: tokenTypeReset,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.ResetTTL)),
		},
	}
	return s.sign(&claims)
}

func (s *TokenService) VerifyPasswordResetToken(tokenString string) (*ResetClaims, error) {
	var claims ResetClaims
	if err := s.parse(tokenString, &claims); err != nil {
		return nil, WrapUnexpected(CodeInvalidResetToken, err)
	}
	if claims.TokenType != tokenTypeReset {
		return nil, NewAuthError(CodeInvalidResetToken)
	}
	return &claims, nil
}

// DecodeJWT reads claims without verifying the signature. Returns nil when
// the token cannot be decoded.
func (s *TokenService) DecodeJWT(tokenString string) *AccessClaims {
	var claims AccessClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, &claims); err != nil {
		return nil
	}
	return &claims
}

// IsTokenExpired treats unreadable tokens and tokens without an expiry as
// expired.
func (s *TokenService) IsTokenExpired(tokenString string) bool {
	claims := s.DecodeJWT(tokenString)
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return !s.clock.Now().Before(claims.ExpiresAt.Time)
}

// TokenTimeRemaining returns 0 for expired or unreadable tokens, never a
// negative duration.
func (s *TokenService) TokenTimeRemaining(tokenString string) time.Duration {
	claims := s.DecodeJWT(tokenString)
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	remaining := claims.ExpiresAt.Time.Sub(s.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *TokenService) sign(claims jwt.Claims) (string, error) {
	if len(s.config.Secret) == 0 {
		return "", NewAuthError(CodeAuthenticationError)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.Secret)
	if err != nil {
		return "", WrapUnexpected(CodeAuthenticationError, err)
	}
	return signed, nil
}

func (s *TokenService) parse(tokenString string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return s.config.Secret, nil
		},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return jwt.ErrTokenUnverifiable
	}
	return nil
}
