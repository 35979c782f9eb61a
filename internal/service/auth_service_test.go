package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService(t *testing.T, issuer TokenIssuer) *AuthService {
	t.Helper()

	svc, err := NewAuthService(AdminCredentials{
		Email:    "Admin@Example.com",
		Name:     "Editor",
		Password: "s3cret",
	}, issuer)
	require.NoError(t, err)
	return svc
}

func TestAuthService_LoginWithStaticToken(t *testing.T) {
	identity := AdminIdentity("admin@example.com", "Editor")
	svc := newTestAuthService(t, NewStaticTokenIssuer("static-token", identity))

	result, err := svc.Login("admin@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "static-token", result.Token)
	assert.Equal(t, RoleAdmin, result.User.Role)
	assert.Equal(t, "admin@example.com", result.User.Email)

	validated, err := svc.Validate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User, *validated)
}

func TestAuthService_LoginRejectsEveryMismatch(t *testing.T) {
	identity := AdminIdentity("admin@example.com", "")
	svc := newTestAuthService(t, NewStaticTokenIssuer("static-token", identity))

	cases := []struct{ email, password string }{
		{"admin@example.com", "wrong"},
		{"other@example.com", "s3cret"},
		{"", ""},
	}
	for _, tc := range cases {
		_, err := svc.Login(tc.email, tc.password)
		assert.ErrorIs(t, err, ErrInvalidCredentials, "email=%q", tc.email)
	}
}

func TestAuthService_ValidateRejectsBadTokens(t *testing.T) {
	identity := AdminIdentity("admin@example.com", "")
	svc := newTestAuthService(t, NewStaticTokenIssuer("static-token", identity))

	for _, token := range []string{"", "static", "static-token-2", "Bearer static-token"} {
		_, err := svc.Validate(token)
		assert.ErrorIs(t, err, ErrUnauthorized, "token %q", token)
	}
}

func TestAuthService_AcceptsPreHashedPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	identity := AdminIdentity("admin@example.com", "")
	svc, err := NewAuthService(AdminCredentials{
		Email:        "admin@example.com",
		PasswordHash: string(hash),
	}, NewStaticTokenIssuer("t", identity))
	require.NoError(t, err)

	_, err = svc.Login("admin@example.com", "hashed-pass")
	assert.NoError(t, err)
}

func TestNewAuthService_RequiresCredentials(t *testing.T) {
	_, err := NewAuthService(AdminCredentials{Password: "x"}, NewStaticTokenIssuer("t", Identity{}))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewAuthService(AdminCredentials{Email: "a@b.c"}, NewStaticTokenIssuer("t", Identity{}))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStaticTokenIssuer_GeneratesTokenWhenEmpty(t *testing.T) {
	issuer := NewStaticTokenIssuer("  ", AdminIdentity("admin@example.com", ""))

	token, err := issuer.Issue(Identity{})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = issuer.Validate("")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestJWTIssuer_RoundTripAndExpiry(t *testing.T) {
	issuer, err := NewJWTIssuer("jwt-secret", time.Hour)
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return now }

	svc := newTestAuthService(t, issuer)
	result, err := svc.Login("admin@example.com", "s3cret")
	require.NoError(t, err)

	identity, err := svc.Validate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", identity.Email)
	assert.Equal(t, RoleAdmin, identity.Role)

	now = now.Add(2 * time.Hour)
	_, err = svc.Validate(result.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestJWTIssuer_RejectsForeignSignature(t *testing.T) {
	signer, err := NewJWTIssuer("one", time.Hour)
	require.NoError(t, err)
	verifier, err := NewJWTIssuer("two", time.Hour)
	require.NoError(t, err)

	token, err := signer.Issue(AdminIdentity("admin@example.com", ""))
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = NewJWTIssuer(" ", time.Hour)
	assert.Error(t, err)
}
