package security

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T, concurrency int) *BcryptHasher {
	t.Helper()
	h, err := NewBcryptHasher(bcrypt.MinCost, concurrency)
	require.NoError(t, err)
	return h
}

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := newTestHasher(t, 2)
	ctx := context.Background()

	for _, pw := range []string{"secret1", "p@ssw0rd with spaces", "пароль-123", "x"} {
		hash, err := h.Hash(ctx, pw)
		require.NoError(t, err)
		assert.NotEqual(t, pw, hash)

		ok, err := h.Verify(ctx, pw, hash)
		require.NoError(t, err)
		assert.True(t, ok, "password %q should verify", pw)

		ok, err = h.Verify(ctx, pw+"!", hash)
		require.NoError(t, err)
		assert.False(t, ok, "altered password must not verify")
	}
}

func TestBcryptHasher_SaltedHashesDiffer(t *testing.T) {
	h := newTestHasher(t, 2)
	ctx := context.Background()

	a, err := h.Hash(ctx, "secret1")
	require.NoError(t, err)
	b, err := h.Hash(ctx, "secret1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	for _, hash := range []string{a, b} {
		ok, err := h.Verify(ctx, "secret1", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestBcryptHasher_EmptyPassword(t *testing.T) {
	h := newTestHasher(t, 1)
	_, err := h.Hash(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestBcryptHasher_PasswordLengthLimit(t *testing.T) {
	h := newTestHasher(t, 1)
	ctx := context.Background()

	longest := strings.Repeat("a", MaxPasswordBytes)
	hash, err := h.Hash(ctx, longest)
	require.NoError(t, err)

	_, err = h.Hash(ctx, longest+"a")
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	ok, err := h.Verify(ctx, longest, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(ctx, longest+"a", hash)
	require.NoError(t, err)
	assert.False(t, ok, "bytes past the limit must not be ignored")
}

func TestBcryptHasher_MalformedHashIsMismatch(t *testing.T) {
	h := newTestHasher(t, 1)
	ok, err := h.Verify(context.Background(), "secret1", "not-a-bcrypt-hash")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_CostOutOfRange(t *testing.T) {
	_, err := NewBcryptHasher(bcrypt.MinCost-1, 1)
	assert.Error(t, err)
	_, err = NewBcryptHasher(bcrypt.MaxCost+1, 1)
	assert.Error(t, err)
}

func TestBcryptHasher_WaitsForSlotUntilContextEnds(t *testing.T) {
	h := newTestHasher(t, 1)
	// occupy the only slot
	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := h.Hash(ctx, "secret1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = h.Verify(ctx, "secret1", "whatever")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRandomTokenGenerator(t *testing.T) {
	var g RandomTokenGenerator
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		tok, err := g.Generate()
		require.NoError(t, err)
		assert.Len(t, tok, verificationTokenBytes*2)
		_, dup := seen[tok]
		assert.False(t, dup, "duplicate token %q", tok)
		seen[tok] = struct{}{}
	}
}
