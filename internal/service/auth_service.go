package service

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin = "admin"
	adminID   = "admin"
)

// Identity is the authenticated principal returned by login and token checks.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// AdminCredentials configures the single administrator account.
// PasswordHash, when set, is a bcrypt hash and takes precedence over Password.
type AdminCredentials struct {
	Email        string
	Name         string
	Password     string
	PasswordHash string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string
	User  Identity
}

// AuthService validates the admin credential and delegates token handling
// to a TokenIssuer.
type AuthService struct {
	admin        Identity
	passwordHash []byte
	issuer       TokenIssuer
}

// AdminIdentity builds the fixed admin identity for the configured email.
func AdminIdentity(email, name string) Identity {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Admin"
	}
	return Identity{
		ID:    adminID,
		Email: strings.ToLower(strings.TrimSpace(email)),
		Name:  name,
		Role:  RoleAdmin,
	}
}

// NewAuthService creates an AuthService. The plain password is hashed once.
func NewAuthService(creds AdminCredentials, issuer TokenIssuer) (*AuthService, error) {
	if err := required("admin email", creds.Email); err != nil {
		return nil, err
	}

	hash := []byte(strings.TrimSpace(creds.PasswordHash))
	if len(hash) == 0 {
		if err := required("admin password", creds.Password); err != nil {
			return nil, err
		}
		generated, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = generated
	}

	return &AuthService{
		admin:        AdminIdentity(creds.Email, creds.Name),
		passwordHash: hash,
		issuer:       issuer,
	}, nil
}

// Login returns a token for the admin. Any mismatch yields
// ErrInvalidCredentials without saying which half was wrong.
func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	emailMatches := strings.EqualFold(strings.TrimSpace(email), s.admin.Email)
	// bcrypt runs even when the email already mismatched
	passwordErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !emailMatches || passwordErr != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(s.admin)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: s.admin}, nil
}

// Validate returns the admin identity for a valid token, ErrUnauthorized otherwise.
func (s *AuthService) Validate(token string) (*Identity, error) {
	identity, err := s.issuer.Validate(strings.TrimSpace(token))
	if err != nil {
		return nil, ErrUnauthorized
	}
	if identity.ID != s.admin.ID {
		return nil, ErrUnauthorized
	}
	return identity, nil
}

// Admin returns the configured admin identity.
func (s *AuthService) Admin() Identity {
	return s.admin
}
