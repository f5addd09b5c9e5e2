package auth

import (
	"context"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("test_jwt_secret", time.Hour)
	in := Session{UserID: "u-1", Name: "Ada", Email: "ada@example.com", Image: "https://img/ada.png"}

	raw, err := svc.Issue(in)
	require.NoError(t, err)

	out, err := svc.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, in, *out)
}

func TestTokenService_Rejects(t *testing.T) {
	svc := NewTokenService("test_jwt_secret", time.Hour)

	expired := NewTokenService("test_jwt_secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(Session{UserID: "u-1"})
	require.NoError(t, err)

	other, err := NewTokenService("another_secret", time.Hour).Issue(Session{UserID: "u-1"})
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := svc.Issue(Session{})
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{"garbage", "not-a-token"},
		{"expired", old},
		{"wrong secret", other},
		{"alg none", unsigned},
		{"no subject", noSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Parse(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestContextOracle(t *testing.T) {
	ctx := context.Background()
	s, err := ContextOracle{}.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	want := &Session{UserID: "u-1"}
	s, err = ContextOracle{}.Current(WithSession(ctx, want))
	require.NoError(t, err)
	assert.Same(t, want, s)

	_, ok := FromContext(WithSession(ctx, nil))
	assert.False(t, ok)
}
