package service

import (
	"errors"
	"fmt"
)

type AuthErrorCode string

const (
	CodeInvalidCredentials  AuthErrorCode = "INVALID_CREDENTIALS"
	CodeMFARequired         AuthErrorCode = "MFA_REQUIRED"
	CodeInvalidMFAToken     AuthErrorCode = "INVALID_MFA_TOKEN"
	CodeUserNotFound        AuthErrorCode = "USER_NOT_FOUND"
	CodeInvalidPassword     AuthErrorCode = "INVALID_PASSWORD"
	CodeAuthenticationError AuthErrorCode = "AUTHENTICATION_ERROR"
	CodeInvalidJWT          AuthErrorCode = "INVALID_JWT"
	CodeExpiredJWT          AuthErrorCode = "EXPIRED_JWT"
	CodeInvalidRefreshToken AuthErrorCode = "INVALID_REFRESH_TOKEN"
	CodeUserAlreadyExists   AuthErrorCode = "USER_ALREADY_EXISTS"
	CodeMFASetupFailed      AuthErrorCode = "MFA_SETUP_FAILED"
	CodeMFAEnableFailed     AuthErrorCode = "MFA_ENABLE_FAILED"
	CodeMFADisableFailed    AuthErrorCode = "MFA_DISABLE_FAILED"
	CodeInvalidResetToken   AuthErrorCode = "INVALID_RESET_TOKEN"
	CodePasswordResetFailed AuthErrorCode = "PASSWORD_RESET_FAILED"
	CodePermissionDenied    AuthErrorCode = "PERMISSION_DENIED"
	CodeSessionExpired      AuthErrorCode = "SESSION_EXPIRED"
	CodeAccountLocked       AuthErrorCode = "ACCOUNT_LOCKED"
)

// defaultMessages are the user-facing strings. They are deliberately
// generic: internal error text must never reach a client.
var defaultMessages = map[AuthErrorCode]string{
	CodeInvalidCredentials:  "이메일 또는 비밀번호가 올바르지 않습니다.",
	CodeMFARequired:         "다단계 인증 코드가 필요합니다.",
	CodeInvalidMFAToken:     "인증 코드가 올바르지 않습니다.",
	CodeUserNotFound:        "사용자를 찾을 수 없습니다.",
	CodeInvalidPassword:     "비밀번호가 올바르지 않습니다.",
	CodeAuthenticationError: "인증 처리 중 오류가 발생했습니다.",
	CodeInvalidJWT:          "유효하지 않은 토큰입니다.",
	CodeExpiredJWT:          "토큰이 만료되었습니다.",
	CodeInvalidRefreshToken: "유효하지 않은 갱신 토큰입니다.",
	CodeUserAlreadyExists:   "이미 등록된 이메일입니다.",
	CodeMFASetupFailed:      "MFA 설정에 실패했습니다.",
	CodeMFAEnableFailed:     "MFA 활성화에 실패했습니다.",
	CodeMFADisableFailed:    "MFA 비활성화에 실패했습니다.",
	CodeInvalidResetToken:   "유효하지 않은 재설정 토큰입니다.",
	CodePasswordResetFailed: "비밀번호 재설정에 실패했습니다.",
	CodePermissionDenied:    "권한이 없습니다.",
	CodeSessionExpired:      "세션이 만료되었습니다.",
	CodeAccountLocked:       "계정이 잠겼습니다. 잠시 후 다시 시도해 주세요.",
}

// AuthError is the tagged error every public method of the auth core
// returns for domain-known failures. Callers match on Code, never on
// message text.
type AuthError struct {
	Code    AuthErrorCode
	Message string
	Details map[string]any
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func NewAuthError(code AuthErrorCode) *AuthError {
	return &AuthError{Code: code, Message: defaultMessages[code]}
}

func (e *AuthError) WithDetails(details map[string]any) *AuthError {
	e.Details = details
	return e
}

// WrapUnexpected converts an unanticipated lower-level failure into a
// tagged error without copying its text into the user-facing message.
func WrapUnexpected(code AuthErrorCode, err error) *AuthError {
	return &AuthError{Code: code, Message: defaultMessages[code], Err: err}
}

// CodeOf extracts the AuthErrorCode from err, or CodeAuthenticationError
// when err does not carry one.
func CodeOf(err error) AuthErrorCode {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Code
	}
	return CodeAuthenticationError
}

func IsCode(err error, code AuthErrorCode) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Code == code
}
