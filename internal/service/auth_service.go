package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const (
	minPasswordLength = 6
	maxPasswordBytes  = 72
	maxCodeAttempts   = 5
)

// AuthService coordinates registration, confirmation and login flows.
type AuthService struct {
	users         repository.UserRepository
	confirmations repository.ConfirmationTokenRepository
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	tokenMgr      *auth.TokenManager
	bcryptCost    int
	newCode       func() (string, error)
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo         repository.UserRepository
	ConfirmationRepo repository.ConfirmationTokenRepository
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Name     string
	LastName string
	Email    string
	Password string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:         deps.UserRepo,
		confirmations: deps.ConfirmationRepo,
		dispatcher:    deps.Dispatcher,
		logger:        logger,
		tokenMgr:      auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL()),
		bcryptCost:    cfg.Auth.BcryptCost,
		newCode:       generateConfirmationCode,
	}
}

// Register creates an unconfirmed account and sends it a confirmation code.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	lastName := strings.TrimSpace(input.LastName)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	password := input.Password
	if name == "" || lastName == "" || email == "" || strings.TrimSpace(password) == "" {
		return nil, apperrors.NewValidationError("all fields are required", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.MapError(err)
	}

	if !validEmail(email) {
		return nil, apperrors.NewValidationError("invalid email", map[string]any{"field": "email"})
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("password must be at least %d characters", minPasswordLength),
			map[string]any{"field": "password"},
		)
	}
	if len(password) > maxPasswordBytes {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes),
			map[string]any{"field": "password"},
		)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
		Permissions:  []domain.Capability{domain.CapabilityDefault},
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.sendConfirmation(ctx, user)
	return user, nil
}

// ConfirmAccount redeems a confirmation code. Codes are single use.
func (s *AuthService) ConfirmAccount(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return apperrors.NewValidationError("token is required", nil)
	}

	token, err := s.confirmations.Consume(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFoundMessage("invalid or expired token")
		}
		return apperrors.MapError(err)
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return translateRepoError(err, "user")
	}
	user.IsConfirmed = true
	return translateRepoError(s.users.Update(ctx, user), "user")
}

// Login authenticates a confirmed, active user and issues a session token.
// An unconfirmed account gets a fresh confirmation code instead.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, translateRepoError(err, "user")
	}
	if !user.IsActive {
		return nil, "", time.Time{}, apperrors.NewForbidden("account is disabled")
	}
	if !user.IsConfirmed {
		s.sendConfirmation(ctx, user)
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account not confirmed, a new confirmation token has been sent")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// SessionUser reloads the caller's own profile.
func (s *AuthService) SessionUser(ctx context.Context, actor *domain.User) (*domain.User, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, translateRepoError(err, "user")
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) sendConfirmation(ctx context.Context, user *domain.User) {
	code, err := s.mintConfirmation(ctx, user.ID)
	if err != nil {
		s.logger.Error("mint confirmation token", zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	event := events.NewEvent(
		events.EventAccountConfirmation,
		events.ActorOf(user),
		[]events.Recipient{events.RecipientOf(user)},
		events.AccountConfirmationPayload{Code: code},
	)
	publish(ctx, s.dispatcher, s.logger, event)
}

func (s *AuthService) mintConfirmation(ctx context.Context, userID string) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		err = s.confirmations.Create(ctx, &domain.ConfirmationToken{Token: code, UserID: userID})
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return "", err
		}
	}
	return "", fmt.Errorf("no free confirmation code after %d attempts", maxCodeAttempts)
}

// generateConfirmationCode returns a uniformly random code in 100000-999999.
func generateConfirmationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}
