package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"math/big"
	"strings"

	"github.com/dongwonkwak/mini-notion-app-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const (
	// MFAIssuer labels provisioned secrets in authenticator apps, combined
	// with the account email.
	MFAIssuer = "Collaborative Editor"

	mfaSecretSize = 32
	mfaPeriod     = 30
	// Two steps either side tolerates about a minute of clock drift.
	mfaSkew          = 2
	backupCodeCount  = 8
	backupCodeLength = 6
)

const backupCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// MFAService drives the per-user state machine
// disabled → secret-provisioned → enabled.
type MFAService struct {
	users  repository.UserRepository
	logger *logrus.Logger
	clock  Clock
}

func NewMFAService(users repository.UserRepository, logger *logrus.Logger, clock Clock) *MFAService {
	if clock == nil {
		clock = RealClock{}
	}
	return &MFAService{users: users, logger: logger, clock: clock}
}

// SetupMFA provisions a fresh secret, QR code, and backup codes. The secret
// is persisted right away, before MFA is enabled, so EnableMFA can verify
// the user's first token against it.
func (s *MFAService) SetupMFA(ctx context.Context, userID uuid.UUID) (*MFASetup, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, WrapUnexpected(CodeMFASetupFailed, err)
	}
	if user == nil {
		return nil, NewAuthError(CodeUserNotFound)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      MFAIssuer,
		AccountName: user.Email,
		SecretSize:  mfaSecretSize,
		Period:      mfaPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, WrapUnexpected(CodeMFASetupFailed, err)
	}

	qrCode, err := qrDataURL(key)
	if err != nil {
		return nil, WrapUnexpected(CodeMFASetupFailed, err)
	}

	backupCodes, err := generateBackupCodes()
	if err != nil {
		return nil, WrapUnexpected(CodeMFASetupFailed, err)
	}
	encodedCodes, err := json.Marshal(backupCodes)
	if err != nil {
		return nil, WrapUnexpected(CodeMFASetupFailed, err)
	}

	if err := s.users.SetMFASecret(ctx, userID, key.Secret(), datatypes.JSON(encodedCodes)); err != nil {
		return nil, WrapUnexpected(CodeMFASetupFailed, err)
	}

	return &MFASetup{
		Secret:      key.Secret(),
		OTPAuthURL:  key.URL(),
		QRCode:      qrCode,
		BackupCodes: backupCodes,
	}, nil
}

// EnableMFA flips the user to enabled after verifying one live token
// against the provisioned secret.
func (s *MFAService) EnableMFA(ctx context.Context, userID uuid.UUID, token string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return WrapUnexpected(CodeMFAEnableFailed, err)
	}
	if user == nil {
		return NewAuthError(CodeUserNotFound)
	}
	if user.MFASecret == nil || *user.MFASecret == "" {
		return NewAuthError(CodeMFASetupFailed)
	}
	if !s.VerifyMFA(*user.MFASecret, token) {
		return NewAuthError(CodeInvalidMFAToken)
	}
	if err := s.users.SetMFAEnabled(ctx, userID, true); err != nil {
		return WrapUnexpected(CodeMFAEnableFailed, err)
	}
	return nil
}

// DisableMFA returns the user to disabled and clears the secret and any
// remaining backup codes.
func (s *MFAService) DisableMFA(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.ClearMFA(ctx, userID); err != nil {
		return WrapUnexpected(CodeMFADisableFailed, err)
	}
	return nil
}

// VerifyMFA is a pure check with no side effects. It never fails loudly:
// any internal verification problem reads as an invalid token.
func (s *MFAService) VerifyMFA(secret string, token string) bool {
	ok, err := totp.ValidateCustom(strings.TrimSpace(token), secret, s.clock.Now(), totp.ValidateOpts{
		Period:    mfaPeriod,
		Skew:      mfaSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return ok
}

// VerifyBackupCode redeems a one-time code. The match is case-insensitive;
// a successful redemption removes that single code. No match, or no codes
// provisioned, reads as false without an error.
func (s *MFAService) VerifyBackupCode(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return false, nil
	}
	consumed, err := s.users.ConsumeBackupCode(ctx, userID, normalized)
	if err != nil {
		return false, WrapUnexpected(CodeAuthenticationError, err)
	}
	return consumed, nil
}

// RegenerateBackupCodes replaces the whole set. Requires MFA to be enabled.
func (s *MFAService) RegenerateBackupCodes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, WrapUnexpected(CodeAuthenticationError, err)
	}
	if user == nil {
		return nil, NewAuthError(CodeUserNotFound)
	}
	if !user.MFAEnabled {
		return nil, NewAuthError(CodeMFARequired)
	}

	backupCodes, err := generateBackupCodes()
	if err != nil {
		return nil, WrapUnexpected(CodeAuthenticationError, err)
	}
	encodedCodes, err := json.Marshal(backupCodes)
	if err != nil {
		return nil, WrapUnexpected(CodeAuthenticationError, err)
	}
	if err := s.users.SetBackupCodes(ctx, userID, datatypes.JSON(encodedCodes)); err != nil {
		return nil, WrapUnexpected(CodeAuthenticationError, err)
	}
	return backupCodes, nil
}

func qrDataURL(key *otp.Key) (string, error) {
	img, err := key.Image(256, 256)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func generateBackupCodes() ([]string, error) {
	codes := make([]string, 0, backupCodeCount)
	for i := 0; i < backupCodeCount; i++ {
		code, err := randomBackupCode()
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func randomBackupCode() (string, error) {
	var sb strings.Builder
	alphabetSize := big.NewInt(int64(len(backupCodeAlphabet)))
	for i := 0; i < backupCodeLength; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		sb.WriteByte(backupCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}
