package policy

import (
	"strings"
	"testing"

	"github.com/dmitrijs2005/strongholder/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestValidateSignup(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"username too short wins over password", "ab", "x", common.ErrUsernameTooShort},
		{"username too long", strings.Repeat("u", 256), "Valid1Pass!word", common.ErrUsernameTooLong},
		{"username not utf-8", "al\xffce", "Valid1Pass!word", common.ErrInvalidUsername},
		{"password too long", "alice", strings.Repeat("Aa1!", 64), common.ErrPasswordTooLong},
		{"password too short", "alice", "short1!", common.ErrPasswordTooShort},
		{"length is checked before composition", "alice", "NoDigits!!", common.ErrPasswordTooShort},
		{"majuscule missing", "alice", "alllowercase1!", common.ErrMajusculeMissing},
		{"minuscule missing", "alice", "ALLUPPERCASE1!", common.ErrMajusculeMissing},
		{"number missing", "alice", "NoDigitsHere!!", common.ErrNumberMissing},
		{"special missing", "alice", "NoSpecial123", common.ErrSpecialCharMissing},
		{"space is not special", "alice", "No Special 123", common.ErrSpecialCharMissing},
		{"control characters", "alice", "Valid1Pass!\x01word", common.ErrInvalidPassword},
		{"invalid utf-8", "alice", "Valid1Pass!\xffword", common.ErrInvalidPassword},
		{"valid", "alice", "Valid1Pass!word", nil},
		{"valid at bounds", "abc", "Aa1!Aa1!Aa1!", nil},
		{"unicode username counts runes", "äöü", "Valid1Pass!word", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSignup(tt.username, tt.password)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateSignup_ViolationsAreClassified(t *testing.T) {
	err := ValidateSignup("alice", "short")
	assert.ErrorIs(t, err, common.ErrPolicyViolation)

	err = ValidateSignup("\xff\xfe\xfd", "Valid1Pass!word")
	assert.ErrorIs(t, err, common.ErrPolicyViolation)
	assert.NotErrorIs(t, err, common.ErrInvalidInput)
}
