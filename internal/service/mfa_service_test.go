package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dongwonkwak/mini-notion-app-sub000/internal/entity"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

func mfaTestOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    mfaPeriod,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

func TestSetupMFAPersistsSecretBeforeEnable(t *testing.T) {
	users := newFakeUserRepo()
	user := &entity.User{Email: "user@example.com"}
	users.add(user)
	svc := NewMFAService(users, testLogger(), &fakeClock{now: time.Now()})

	setup, err := svc.SetupMFA(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	stored := users.users[user.ID]
	if stored.MFASecret == nil || *stored.MFASecret != setup.Secret {
		t.Error("secret not persisted at setup")
	}
	if stored.MFAEnabled {
		t.Error("setup must not enable MFA")
	}
	if !strings.HasPrefix(setup.QRCode, "data:image/png;base64,") {
		t.Errorf("qr code prefix wrong: %.40s", setup.QRCode)
	}
	if !strings.Contains(setup.OTPAuthURL, "user%40example.com") &&
		!strings.Contains(setup.OTPAuthURL, "user@example.com") {
		t.Errorf("otpauth url missing account: %s", setup.OTPAuthURL)
	}
	if len(setup.BackupCodes) != backupCodeCount {
		t.Fatalf("backup codes = %d, want %d", len(setup.BackupCodes), backupCodeCount)
	}
	for _, code := range setup.BackupCodes {
		if len(code) != backupCodeLength {
			t.Errorf("code %q length = %d", code, len(code))
		}
		if code != strings.ToUpper(code) {
			t.Errorf("code %q not uppercase", code)
		}
	}
}

func TestEnableMFAWithLiveToken(t *testing.T) {
	users := newFakeUserRepo()
	user := &entity.User{Email: "user@example.com"}
	users.add(user)
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewMFAService(users, testLogger(), clock)
	ctx := context.Background()

	setup, err := svc.SetupMFA(ctx, user.ID)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := svc.EnableMFA(ctx, user.ID, "000000"); !IsCode(err, CodeInvalidMFAToken) {
		t.Errorf("bad token: err = %v, want INVALID_MFA_TOKEN", err)
	}
	if users.users[user.ID].MFAEnabled {
		t.Fatal("MFA enabled despite invalid token")
	}

	code, err := totp.GenerateCodeCustom(setup.Secret, clock.Now(), mfaTestOpts())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	if err := svc.EnableMFA(ctx, user.ID, code); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if !users.users[user.ID].MFAEnabled {
		t.Error("MFA not enabled")
	}
}

func TestEnableMFAWithoutSetup(t *testing.T) {
	users := newFakeUserRepo()
	user := &entity.User{Email: "user@example.com"}
	users.add(user)
	svc := NewMFAService(users, testLogger(), &fakeClock{now: time.Now()})

	if err := svc.EnableMFA(context.Background(), user.ID, "123456"); !IsCode(err, CodeMFASetupFailed) {
		t.Errorf("err = %v, want MFA_SETUP_FAILED", err)
	}
}

func TestVerifyMFAWindow(t *testing.T) {
	users := newFakeUserRepo()
	user := &entity.User{Email: "user@example.com"}
	users.add(user)
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewMFAService(users, testLogger(), clock)

	setup, err := svc.SetupMFA(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	cases := []struct {
		offset time.Duration
		want   bool
	}{
		{0, true},
		{-2 * mfaPeriod * time.Second, true},
		{2 * mfaPeriod * time.Second, true},
		{-3 * mfaPeriod * time.Second, false},
		{3 * mfaPeriod * time.Second, false},
	}
	for _, tc := range cases {
		code, err := totp.GenerateCodeCustom(setup.Secret, clock.Now().Add(tc.offset), mfaTestOpts())
		if err != nil {
			t.Fatalf("generate code at %v: %v", tc.offset, err)
		}
		if got := svc.VerifyMFA(setup.Secret, code); got != tc.want {
			t.Errorf("offset %v: verify = %v, want %v", tc.offset, got, tc.want)
		}
	}

	if svc.VerifyMFA(setup.Secret, "not-numeric") {
		t.Error("malformed token must read as invalid")
	}
	if svc.VerifyMFA("", "123456") {
		t.Error("empty secret must read as invalid")
	}
}

func TestVerifyBackupCodeSingleUse(t *testing.T) {
	users := newFakeUserRepo()
	user := &entity.User{Email: "user@example.com"}
	users.add(user)
	svc := NewMFAService(users, testLogger(), &fakeClock{now: time.Now()})
	ctx := context.Background()

	setup, err := svc.SetupMFA(ctx, user.ID)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	code := setup.BackupCodes[0]
	ok, err := svc.VerifyBackupCode(ctx, user.ID, strings.ToLower(code))
	if err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if !ok {
		t.Fatal("first redemption should succeed")
	}

	ok, err = svc.VerifyBackupCode(ctx, user.ID, code)
	if err != nil {
		t.Fatalf("second redeem: %v", err)
	}
	if ok {
		t.Error("code redeemed twice")
	}

	ok, err = svc.VerifyBackupCode(ctx, user.ID, "")
	if err != nil || ok {
		t.Errorf("empty code: ok = %v, err = %v", ok, err)
	}
}

func TestRegenerateBackupCodesRequiresEnabled(t *testing.T) {
	users := newFakeUserRepo()
	user := &entity.User{Email: "user@example.com"}
	users.add(user)
	svc := NewMFAService(users, testLogger(), &fakeClock{now: time.Now()})
	ctx := context.Background()

	if _, err := svc.RegenerateBackupCodes(ctx, user.ID); !IsCode(err, CodeMFARequired) {
		t.Errorf("err = %v, want MFA_REQUIRED", err)
	}

	user.MFAEnabled = true
	codes, err := svc.RegenerateBackupCodes(ctx, user.ID)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if len(codes) != backupCodeCount {
		t.Errorf("codes = %d, want %d", len(codes), backupCodeCount)
	}
}

func TestDisableMFAClearsState(t *testing.T) {
	users := newFakeUserRepo()
	user := &entity.User{Email: "user@example.com"}
	users.add(user)
	svc := NewMFAService(users, testLogger(), &fakeClock{now: time.Now()})
	ctx := context.Background()

	if _, err := svc.SetupMFA(ctx, user.ID); err != nil {
		t.Fatalf("setup: %v", err)
	}
	user.MFAEnabled = true

	if err := svc.DisableMFA(ctx, user.ID); err != nil {
		t.Fatalf("disable: %v", err)
	}
	stored := users.users[user.ID]
	if stored.MFAEnabled || stored.MFASecret != nil || stored.MFABackupCodes != nil {
		t.Error("MFA state not fully cleared")
	}
}
