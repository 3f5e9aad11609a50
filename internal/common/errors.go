package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrStorageIntegrity = errors.New("storage integrity violation")

	// Service-level errors (generic/internal flow control).
	ErrorInternal   = errors.New("internal error")
	ErrInvalidInput = errors.New("invalid input")
	ErrJSON         = errors.New("json conversion error")
	ErrWrite        = errors.New("write error")
	ErrExport       = errors.New("export error")

	// Signup policy. Each concrete violation wraps ErrPolicyViolation.
	ErrPolicyViolation    = errors.New("policy violation")
	ErrUsernameTooShort   = policyError("username too short")
	ErrUsernameTooLong    = policyError("username too long")
	ErrInvalidUsername    = policyError("invalid username")
	ErrPasswordTooShort   = policyError("password too short")
	ErrPasswordTooLong    = policyError("password too long")
	ErrMajusculeMissing   = policyError("password needs upper and lower case letters")
	ErrNumberMissing      = policyError("password needs a digit")
	ErrSpecialCharMissing = policyError("password needs a special character")
	ErrInvalidPassword    = policyError("invalid password")

	// Authentication errors.
	ErrNotSignup   = errors.New("user is not signed up")
	ErrAuthFailure = errors.New("authentication failed")
	ErrKdf         = errors.New("key derivation error")

	// Token lifecycle errors.
	ErrTokenMissing = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrEncodeToken  = errors.New("token encoding error")

	// Remote channel errors.
	ErrSsh      = errors.New("ssh channel error")
	ErrSftp     = errors.New("sftp channel error")
	ErrScript   = errors.New("remote script failed")
	ErrUtf8     = errors.New("remote output is not valid utf-8")
	ErrNoFile   = errors.New("remote file is missing or empty")
	ErrMetadata = errors.New("remote file metadata unavailable")
)

type policyErr struct{ msg string }

func (e *policyErr) Error() string { return e.msg }
func (e *policyErr) Unwrap() error { return ErrPolicyViolation }

func policyError(msg string) error { return &policyErr{msg: msg} }
