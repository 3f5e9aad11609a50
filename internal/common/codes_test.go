package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_KnownErrors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrNotSignup, "0"},
		{ErrAlreadyExists, "1"},
		{ErrUsernameTooShort, "2"},
		{ErrPasswordTooShort, "4"},
		{ErrInvalidUsername, "10"},
		{ErrTokenExpired, "503"},
		{ErrKdf, "400"},
		{ErrNoFile, "600"},
		{fmt.Errorf("%w: exit status 2: stderr=permission denied", ErrScript), "103"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Code(tt.err), tt.err.Error())
	}
}

func TestCode_UnknownAndNil(t *testing.T) {
	assert.Equal(t, CodeUnknown, Code(errors.New("boom")))
	assert.Equal(t, "", Code(nil))
}

func TestCode_DoesNotLeakMessage(t *testing.T) {
	err := fmt.Errorf("%w: stdout=/srv/repos/abc secret path", ErrScript)
	assert.NotContains(t, Code(err), "srv")
}

func TestPolicyErrors_WrapPolicyViolation(t *testing.T) {
	for _, e := range []error{
		ErrUsernameTooShort, ErrUsernameTooLong, ErrInvalidUsername, ErrPasswordTooShort, ErrPasswordTooLong,
		ErrMajusculeMissing, ErrNumberMissing, ErrSpecialCharMissing, ErrInvalidPassword,
	} {
		assert.ErrorIs(t, e, ErrPolicyViolation)
	}
	assert.NotErrorIs(t, ErrAuthFailure, ErrPolicyViolation)
}

func TestFromCode(t *testing.T) {
	assert.ErrorIs(t, FromCode("503"), ErrTokenExpired)
	assert.ErrorIs(t, FromCode(Code(ErrMajusculeMissing)), ErrMajusculeMissing)
	assert.ErrorIs(t, FromCode("10"), ErrInvalidUsername)
	assert.Nil(t, FromCode("missing token"))
	assert.Nil(t, FromCode(CodeUnknown))
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote(fmt.Errorf("wrap: %w", ErrSftp)))
	assert.True(t, IsRemote(ErrMetadata))
	assert.False(t, IsRemote(ErrAuthFailure))
}
