package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/CompanyDirectory/pkg/middleware"
)

// PurposeEmailVerify tags tokens that may only complete email verification.
const PurposeEmailVerify = "email_verify"

// EmailVerificationTTL bounds the lifetime of a verification link.
const EmailVerificationTTL = 15 * time.Minute

const defaultIssuer = "company-directory"

var (
	// ErrInvalidToken covers bad signatures, malformed tokens, unexpected
	// algorithms and expiry.
	ErrInvalidToken = errors.New("invalid token")

	// ErrWrongPurpose is returned when a structurally valid token carries a
	// purpose tag other than the one required.
	ErrWrongPurpose = errors.New("wrong token purpose")
)

// Claims are the JWT claims carried by every token this service mints.
type Claims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// TokenConfig configures a TokenManager.
type TokenConfig struct {
	Secret     string
	SessionTTL time.Duration
	Issuer     string
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock replaces time.Now for issuing and verifying tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) { m.now = now }
}

// TokenManager issues and verifies HS256 tokens. Its key is fixed at
// construction.
type TokenManager struct {
	secret     []byte
	sessionTTL time.Duration
	issuer     string
	now        func() time.Time
}

// NewTokenManager creates a manager that signs with cfg.Secret.
func NewTokenManager(cfg TokenConfig, opts ...TokenOption) *TokenManager {
	m := &TokenManager{
		secret:     []byte(cfg.Secret),
		sessionTTL: cfg.SessionTTL,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}
	if m.issuer == "" {
		m.issuer = defaultIssuer
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue signs claims valid for ttl from now. Subject, issuer and the time
// claims are always set by the manager.
func (m *TokenManager) Issue(claims Claims, ttl time.Duration) (string, error) {
	now := m.now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID,
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// IssueSession mints a long-lived session token without a purpose tag.
func (m *TokenManager) IssueSession(userID, email string) (string, error) {
	return m.Issue(Claims{UserID: userID, Email: email}, m.sessionTTL)
}

// IssueEmailVerification mints a short-lived email verification token.
func (m *TokenManager) IssueEmailVerification(userID, email string) (string, error) {
	return m.Issue(Claims{UserID: userID, Email: email, Purpose: PurposeEmailVerify}, EmailVerificationTTL)
}

// Verify checks signature, algorithm, issuer and expiry and returns the claims.
// Any failure wraps ErrInvalidToken.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifySession accepts only tokens without a purpose tag.
func (m *TokenManager) VerifySession(tokenString string) (*Claims, error) {
	claims, err := m.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != "" {
		return nil, fmt.Errorf("%w: %q token used as session", ErrWrongPurpose, claims.Purpose)
	}
	return claims, nil
}

// VerifyPurpose accepts only tokens tagged with purpose.
func (m *TokenManager) VerifyPurpose(tokenString, purpose string) (*Claims, error) {
	claims, err := m.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("%w: want %q, got %q", ErrWrongPurpose, purpose, claims.Purpose)
	}
	return claims, nil
}

// Validator adapts the manager to the bearer gate. Purpose-tagged tokens are
// rejected like any other invalid token.
func (m *TokenManager) Validator() middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		claims, err := m.VerifySession(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{UserID: claims.UserID, Email: claims.Email}, nil
	}
}
