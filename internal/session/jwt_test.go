package session

import (
	"errors"
	"testing"
	"time"

	model "barter-exchange/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{SecretKey: "test-secret", Issuer: "barter-exchange", TokenTTL: time.Hour})
	require.NoError(t, err)
	return m
}

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManager(Config{TokenTTL: time.Hour})
	require.Error(t, err)

	_, err = NewManager(Config{SecretKey: "s"})
	require.Error(t, err)
}

func TestManager_IssueAndValidate(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue(model.Session{UserID: "alice", Premium: true})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	s, err := m.Validate(token)
	require.NoError(t, err)
	require.Equal(t, model.Session{UserID: "alice", Premium: true}, s)
}

func TestManager_IssueWithoutUser(t *testing.T) {
	_, err := newTestManager(t).Issue(model.Session{})
	require.True(t, errors.Is(err, ErrInvalidToken))
}

func TestManager_Validate(t *testing.T) {
	m := newTestManager(t)

	other, err := NewManager(Config{SecretKey: "other-secret", Issuer: "barter-exchange", TokenTTL: time.Hour})
	require.NoError(t, err)
	foreign, err := other.Issue(model.Session{UserID: "alice"})
	require.NoError(t, err)

	otherIssuer, err := NewManager(Config{SecretKey: "test-secret", Issuer: "someone-else", TokenTTL: time.Hour})
	require.NoError(t, err)
	wrongIssuer, err := otherIssuer.Issue(model.Session{UserID: "alice"})
	require.NoError(t, err)

	expiring := newTestManager(t)
	expiring.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiring.Issue(model.Session{UserID: "alice"})
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "alice"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name          string
		token         string
		expectedError error
	}{
		{name: "garbage", token: "not-a-token", expectedError: ErrInvalidToken},
		{name: "empty", token: "", expectedError: ErrInvalidToken},
		{name: "wrong_secret", token: foreign, expectedError: ErrInvalidToken},
		{name: "wrong_issuer", token: wrongIssuer, expectedError: ErrInvalidToken},
		{name: "alg_none", token: unsigned, expectedError: ErrInvalidToken},
		{name: "expired", token: expired, expectedError: ErrExpiredToken},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := m.Validate(tc.token)
			require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
		})
	}
}
