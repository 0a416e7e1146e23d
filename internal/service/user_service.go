package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ejg/cestas/internal/auth"
	"github.com/ejg/cestas/internal/config"
	"github.com/ejg/cestas/internal/datamodels/user"
)

const minPasswordLen = 6

var errBadCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)

type UserService struct {
	repo   user.Repository
	jwt    *config.JWTConfig
	tokens *auth.TokenCache
}

// NewUserService tokens may be nil.
func NewUserService(repo user.Repository, jwt *config.JWTConfig, tokens *auth.TokenCache) *UserService {
	if tokens == nil {
		tokens = auth.NewTokenCache(nil, nil, 0)
	}
	return &UserService{repo: repo, jwt: jwt, tokens: tokens}
}

// Register creates a customer account.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*user.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, invalid("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("email is invalid")
	}
	if len(password) < minPasswordLen {
		return nil, invalid("password must have at least %d characters", minPasswordLen)
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, invalid("email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &user.User{
		Name:     name,
		Email:    email,
		Password: string(hash),
		Role:     user.RoleCustomer,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks credentials and returns a session token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, errBadCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return "", nil, errBadCredentials
	}
	token, err := auth.GenerateToken(s.jwt, u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Identify resolves a bearer token to the caller. The role always comes from
// the stored user, so promotions and demotions apply to live tokens.
func (s *UserService) Identify(ctx context.Context, token string) (*auth.Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, ok, err := s.tokens.Get(ctx, token)
	if err != nil {
		GetMonitor().RecordRedisError()
		zap.L().Warn("token cache get failed", zap.Error(err))
	}
	if !ok {
		claims, err = auth.ParseToken(s.jwt, token)
		if err != nil {
			return nil, ErrUnauthenticated
		}
		if err := s.tokens.Set(ctx, token, claims); err != nil {
			GetMonitor().RecordRedisError()
			zap.L().Warn("token cache set failed", zap.Error(err))
		}
	}

	u, err := s.repo.GetByID(ctx, claims.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = s.tokens.Forget(ctx, token)
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return auth.FromUser(u), nil
}

// ListAdmins returns every administrator.
func (s *UserService) ListAdmins(ctx context.Context, id *auth.Identity) ([]*user.User, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	return s.repo.ListByRole(ctx, user.RoleAdmin)
}

// Promote grants the admin role to the user with email.
func (s *UserService) Promote(ctx context.Context, id *auth.Identity, email string) (*user.User, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, invalid("email is required")
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return s.setRole(ctx, u, user.RoleAdmin)
}

// Demote turns an admin back into a customer. Admins cannot demote themselves.
func (s *UserService) Demote(ctx context.Context, id *auth.Identity, userID string) (*user.User, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	if userID == id.UserID {
		return nil, invalid("cannot demote yourself")
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return s.setRole(ctx, u, user.RoleCustomer)
}

// SetRoleByEmail changes a role without an acting identity. Used by the
// operator CLI, which runs with database access.
func (s *UserService) SetRoleByEmail(ctx context.Context, email string, role user.Role) (*user.User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return s.setRole(ctx, u, role)
}

func (s *UserService) setRole(ctx context.Context, u *user.User, role user.Role) (*user.User, error) {
	if u.Role == role {
		return u, nil
	}
	if err := s.repo.UpdateRole(ctx, u.ID, role); err != nil {
		return nil, notFound(err, "user")
	}
	u.Role = role
	return u, nil
}
