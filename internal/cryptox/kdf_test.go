package cryptox

import (
	"bytes"
	"context"
	"testing"

	"github.com/dmitrijs2005/strongholder/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKDF(t *testing.T) *KDF {
	t.Helper()
	k, err := NewKDF(KDFParams{Memory: 64, Time: 1, Threads: 1, KeyLen: KeyLength}, 2)
	require.NoError(t, err)
	return k
}

func TestNormalizeSalt(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"bob", "00000bob"},
		{"", "00000000"},
		{"12345678", "12345678"},
		{"alice-long-name", "alice-long-name"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, string(NormalizeSalt([]byte(tt.in))), tt.in)
	}
}

func TestNormalizeSalt_DoesNotAliasInput(t *testing.T) {
	in := []byte("longusername")
	out := NormalizeSalt(in)
	out[0] = 'X'
	assert.Equal(t, byte('l'), in[0])
}

func TestKDFParams_Validate(t *testing.T) {
	require.NoError(t, DefaultKDFParams().Validate())

	bad := []KDFParams{
		{Memory: 64, Time: 0, Threads: 1, KeyLen: 32},
		{Memory: 64, Time: 1, Threads: 0, KeyLen: 32},
		{Memory: 4, Time: 1, Threads: 1, KeyLen: 32},
		{Memory: 64, Time: 1, Threads: 1, KeyLen: 16},
	}
	for _, p := range bad {
		assert.Error(t, p.Validate(), "%+v", p)
	}
}

func TestNewKDF_RejectsBadConfig(t *testing.T) {
	_, err := NewKDF(KDFParams{}, 1)
	assert.Error(t, err)

	_, err = NewKDF(DefaultKDFParams(), 0)
	assert.Error(t, err)
}

func TestDerive_Deterministic(t *testing.T) {
	k := testKDF(t)
	ctx := context.Background()

	k1, err := k.Derive(ctx, []byte("Valid1Pass!word"), []byte("alice"))
	require.NoError(t, err)
	k2, err := k.Derive(ctx, []byte("Valid1Pass!word"), []byte("alice"))
	require.NoError(t, err)

	assert.Len(t, k1, KeyLength)
	assert.True(t, bytes.Equal(k1, k2))
}

func TestDerive_DifferentInputs(t *testing.T) {
	k := testKDF(t)
	ctx := context.Background()

	a, err := k.Derive(ctx, []byte("Valid1Pass!word"), []byte("alice"))
	require.NoError(t, err)
	b, err := k.Derive(ctx, []byte("Valid1Pass!word"), []byte("alicia"))
	require.NoError(t, err)
	c, err := k.Derive(ctx, []byte("WrongPass1!"), []byte("alice"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestDerive_CancelledContext(t *testing.T) {
	k := testKDF(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// occupy both slots so Acquire has to wait on the cancelled context
	require.NoError(t, k.sem.Acquire(context.Background(), 2))
	defer k.sem.Release(2)

	_, err := k.Derive(ctx, []byte("pw"), []byte("user"))
	assert.ErrorIs(t, err, common.ErrKdf)
}
