package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/CompanyDirectory/internal/auth"
	"github.com/utafrali/CompanyDirectory/internal/domain"
	"github.com/utafrali/CompanyDirectory/internal/event"
	"github.com/utafrali/CompanyDirectory/internal/notify"
	"github.com/utafrali/CompanyDirectory/internal/phoneid"
	"github.com/utafrali/CompanyDirectory/internal/repository"
	apperrors "github.com/utafrali/CompanyDirectory/pkg/errors"
)

// MismatchPolicy decides what happens when the verified phone number differs
// from the number on file.
type MismatchPolicy string

const (
	MismatchIgnore MismatchPolicy = "ignore"
	MismatchWarn   MismatchPolicy = "warn"
	MismatchReject MismatchPolicy = "reject"
)

// errPhoneProviderUnavailable is returned while the phone identity provider
// cannot be reached.
var errPhoneProviderUnavailable = apperrors.New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE",
	"phone verification is temporarily unavailable", apperrors.ErrServiceUnavail)

// AuthConfig holds the tunables of the auth service.
type AuthConfig struct {
	VerifyEmailURL string
	MismatchPolicy MismatchPolicy
}

// AuthService implements registration, login and both verification flows.
type AuthService struct {
	users  repository.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenManager
	mailer notify.Sender
	phones phoneid.Verifier
	events event.Publisher
	cfg    AuthConfig
	logger *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenManager,
	mailer notify.Sender,
	phones phoneid.Verifier,
	events event.Publisher,
	cfg AuthConfig,
	logger *slog.Logger,
) *AuthService {
	if events == nil {
		events = event.Noop{}
	}
	if cfg.MismatchPolicy == "" {
		cfg.MismatchPolicy = MismatchWarn
	}
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		mailer: mailer,
		phones: phones,
		events: events,
		cfg:    cfg,
		logger: logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	FullName string
	Email    string
	Password string
	MobileNo string
	Gender   string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// Register creates the account and returns it with a session token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = strings.TrimSpace(input.Email)

	switch {
	case input.FullName == "":
		return nil, "", apperrors.InvalidInput("full_name is required")
	case input.Email == "":
		return nil, "", apperrors.InvalidInput("email is required")
	case input.Password == "":
		return nil, "", apperrors.InvalidInput("password is required")
	case len(input.Password) > auth.MaxPasswordBytes:
		return nil, "", apperrors.InvalidInput(fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		FullName:     input.FullName,
		Email:        input.Email,
		PasswordHash: hash,
		MobileNo:     strings.TrimSpace(input.MobileNo),
		Gender:       domain.NormalizeGender(input.Gender),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.IssueSession(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("issue session: %w", err)
	}

	if err := s.events.UserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return user, token, nil
}

// Login checks the credentials and returns the user with a session token.
// Unknown emails and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, string, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, "", domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get user by email: %w", err)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.IssueSession(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("issue session: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return user, token, nil
}

// InitiateEmailVerification mails the user a link carrying a short-lived
// email_verify token. Verification state is left untouched.
func (s *AuthService) InitiateEmailVerification(ctx context.Context, userID string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	token, err := s.tokens.IssueEmailVerification(user.ID, user.Email)
	if err != nil {
		return fmt.Errorf("issue verification token: %w", err)
	}

	link, err := notify.VerificationLink(s.cfg.VerifyEmailURL, token)
	if err != nil {
		return fmt.Errorf("build verification link: %w", err)
	}

	if err := s.mailer.Send(ctx, notify.VerificationEmail(user.Email, link)); err != nil {
		s.logger.ErrorContext(ctx, "failed to send verification email",
			slog.String("user_id", user.ID),
			slog.String("sender", s.mailer.Name()),
			slog.String("error", err.Error()),
		)
		return domain.ErrDelivery
	}

	s.logger.InfoContext(ctx, "verification email sent", slog.String("user_id", user.ID))
	return nil
}

// CompleteEmailVerification marks the token's user as email verified.
// Repeating it for a verified user succeeds.
func (s *AuthService) CompleteEmailVerification(ctx context.Context, token string) error {
	claims, err := s.tokens.VerifyPurpose(token, auth.PurposeEmailVerify)
	switch {
	case errors.Is(err, auth.ErrWrongPurpose):
		return domain.ErrWrongTokenPurpose
	case err != nil:
		return domain.ErrInvalidOrExpiredToken
	}

	if err := s.users.MarkEmailVerified(ctx, claims.UserID); err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}

	if err := s.events.UserEmailVerified(ctx, claims.UserID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.email_verified event",
			slog.String("user_id", claims.UserID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "email verified", slog.String("user_id", claims.UserID))
	return nil
}

// InitiateMobileVerification returns the number on file. The client runs the
// phone challenge with the provider directly.
func (s *AuthService) InitiateMobileVerification(ctx context.Context, userID string) (string, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if !user.HasMobile() {
		return "", domain.ErrNoMobileOnFile
	}
	return user.MobileNo, nil
}

// CompleteMobileVerification confirms proof with the phone identity provider
// and marks the user as mobile verified.
func (s *AuthService) CompleteMobileVerification(ctx context.Context, userID, proof string) error {
	if strings.TrimSpace(proof) == "" {
		return apperrors.InvalidInput("firebase_token is required")
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	identity, err := s.phones.Verify(ctx, proof)
	if err != nil {
		switch {
		case errors.Is(err, phoneid.ErrInvalidProof):
			return domain.ErrInvalidProof
		case errors.Is(err, phoneid.ErrUnavailable):
			s.logger.ErrorContext(ctx, "phone identity provider unavailable",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
			return errPhoneProviderUnavailable
		default:
			return fmt.Errorf("verify phone proof: %w", err)
		}
	}

	if user.HasMobile() && !domain.SameMobile(identity.PhoneNumber, user.MobileNo) {
		switch s.cfg.MismatchPolicy {
		case MismatchReject:
			return domain.ErrMobileMismatch
		case MismatchWarn:
			s.logger.WarnContext(ctx, "verified phone number differs from number on file",
				slog.String("user_id", user.ID),
			)
		}
	}

	if err := s.users.MarkMobileVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("mark mobile verified: %w", err)
	}

	if err := s.events.UserMobileVerified(ctx, user.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.mobile_verified event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "mobile verified", slog.String("user_id", user.ID))
	return nil
}

// Me returns the caller's profile, or nil when the account no longer exists.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *AuthService) getUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, domain.UserNotFound(userID)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
