package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"civic-complaints/internal/domain"
	"civic-complaints/internal/metrics"
	"civic-complaints/internal/repository"
)

// DefaultBcryptCost matches the work factor used for stored hashes.
const DefaultBcryptCost = 10

// RegisterInput carries a registration request. Token is only consulted when
// the admin role is requested: granting admin requires an admin caller.
type RegisterInput struct {
	Username string
	Password string
	Role     string
	Token    string
}

// AuthService registers users, issues session tokens and verifies them.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	Verify(token string) (*domain.Identity, error)
	CreateAdmin(ctx context.Context, username, password string) (*domain.User, error)
}

type AuthConfig struct {
	BcryptCost int
	Logger     logrus.FieldLogger
}

type authService struct {
	users     repository.UserRepository
	tokens    *TokenIssuer
	cost      int
	dummyHash []byte
	log       logrus.FieldLogger
}

func NewAuthService(users repository.UserRepository, tokens *TokenIssuer, cfg AuthConfig) (AuthService, error) {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultBcryptCost
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	// compared against when the username is unknown, so both failure paths cost the same
	dummy, err := bcrypt.GenerateFromPassword([]byte("civic-complaints-dummy"), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &authService{
		users:     users,
		tokens:    tokens,
		cost:      cfg.BcryptCost,
		dummyHash: dummy,
		log:       cfg.Logger,
	}, nil
}

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// validateCredentials rejects blank fields and passwords bcrypt cannot hash.
// Usernames are stored exactly as given.
func validateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return domain.NewValidationError("Username and password required")
	}
	if len(password) > maxPasswordBytes {
		return domain.NewValidationError(fmt.Sprintf("Password must be at most %d bytes", maxPasswordBytes))
	}
	return nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := in.Username
	if err := validateCredentials(username, in.Password); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, domain.ErrDuplicateIdentity
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NewStorageError("lookup user", err)
	}

	role := domain.ResolveRequestedRole(in.Role)
	if role == domain.RoleAdmin {
		actor, err := s.tokens.Verify(in.Token)
		if err != nil || !actor.IsAdmin() {
			return nil, domain.ErrAdminRequired
		}
		s.log.WithFields(logrus.Fields{"granted_by": actor.Username, "username": username}).Info("admin role granted")
	}

	return s.create(ctx, username, in.Password, role)
}

func (s *authService) CreateAdmin(ctx context.Context, username, password string) (*domain.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}
	return s.create(ctx, username, password, domain.RoleAdmin)
}

func (s *authService) create(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, domain.NewValidationError(fmt.Sprintf("Password must be at most %d bytes", maxPasswordBytes))
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, domain.NewStorageError("create user", err)
	}

	return sanitizeUser(user), nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, domain.NewStorageError("lookup user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	return token, sanitizeUser(user), nil
}

func (s *authService) Verify(token string) (*domain.Identity, error) {
	return s.tokens.Verify(token)
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
