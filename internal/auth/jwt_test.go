package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestManager_IssueAndVerify(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(testSecret, time.Hour).WithClock(fixedClock(now))

	token, exp, err := m.Issue("user-1", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, now.Add(time.Hour), exp)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestManager_Verify(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	signer := NewManager(testSecret, time.Hour).WithClock(fixedClock(now))

	valid, _, err := signer.Issue("user-1", "user")
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		verify  *Manager
		wantErr error
	}{
		{
			name:    "expired",
			token:   func(t *testing.T) string { return valid },
			verify:  NewManager(testSecret, time.Hour).WithClock(fixedClock(now.Add(2 * time.Hour))),
			wantErr: ErrExpiredToken,
		},
		{
			name:    "wrong_secret",
			token:   func(t *testing.T) string { return valid },
			verify:  NewManager("another-secret-entirely-different", time.Hour).WithClock(fixedClock(now)),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "malformed",
			token:   func(t *testing.T) string { return "not.a.jwt" },
			verify:  signer,
			wantErr: ErrInvalidToken,
		},
		{
			name: "tampered_payload",
			token: func(t *testing.T) string {
				parts := strings.Split(valid, ".")
				require.Len(t, parts, 3)
				other, _, err := signer.Issue("user-2", "admin")
				require.NoError(t, err)
				otherParts := strings.Split(other, ".")
				// payload of one token, signature of another
				return parts[0] + "." + otherParts[1] + "." + parts[2]
			},
			verify:  signer,
			wantErr: ErrInvalidToken,
		},
		{
			name: "none_algorithm",
			token: func(t *testing.T) string {
				claims := Claims{
					Role: "admin",
					RegisteredClaims: jwt.RegisteredClaims{
						Issuer:    issuer,
						Subject:   "user-1",
						ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
					},
				}
				s, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return s
			},
			verify:  signer,
			wantErr: ErrInvalidToken,
		},
		{
			name: "missing_subject",
			token: func(t *testing.T) string {
				claims := Claims{
					RegisteredClaims: jwt.RegisteredClaims{
						Issuer:    issuer,
						ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
					},
				}
				s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
				require.NoError(t, err)
				return s
			},
			verify:  signer,
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.verify.Verify(tt.token(t))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
