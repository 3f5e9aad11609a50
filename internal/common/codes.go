package common

import "errors"

// CodeUnknown is reported for errors outside the known taxonomy.
const CodeUnknown = "999"

// codes maps sentinel errors to the stable codes shown to clients. Clients
// localize messages from these; the text of the error never leaves the server.
var codes = []struct {
	err  error
	code string
}{
	{ErrNotSignup, "0"},
	{ErrAlreadyExists, "1"},
	{ErrUsernameTooShort, "2"},
	{ErrInvalidPassword, "3"},
	{ErrPasswordTooShort, "4"},
	{ErrSpecialCharMissing, "5"},
	{ErrMajusculeMissing, "6"},
	{ErrNumberMissing, "7"},
	{ErrUsernameTooLong, "8"},
	{ErrPasswordTooLong, "9"},
	{ErrInvalidUsername, "10"},
	{ErrTokenMissing, "101"},
	{ErrScript, "103"},
	{ErrSsh, "104"},
	{ErrSftp, "105"},
	{ErrInvalidInput, "106"},
	{ErrWrite, "200"},
	{ErrUtf8, "300"},
	{ErrJSON, "301"},
	{ErrKdf, "400"},
	{ErrAuthFailure, "401"},
	{ErrStorageIntegrity, "500"},
	{ErrTokenExpired, "503"},
	{ErrInvalidToken, "504"},
	{ErrNoFile, "600"},
	{ErrMetadata, "601"},
	{ErrEncodeToken, "700"},
	{ErrExport, "800"},
}

// Code returns the stable client-facing code for err.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeUnknown
}

// FromCode returns the sentinel error behind a client-facing code, or nil
// when code is not one of ours.
func FromCode(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}

// IsRemote reports whether err originates from the remote channel.
func IsRemote(err error) bool {
	for _, e := range []error{ErrSsh, ErrSftp, ErrScript, ErrUtf8, ErrNoFile, ErrMetadata} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
