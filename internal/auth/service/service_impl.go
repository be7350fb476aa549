package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/membership/internal/auth/domain"
	"github.com/smallbiznis/membership/internal/auth/password"
	"github.com/smallbiznis/membership/internal/auth/token"
	"github.com/smallbiznis/membership/internal/clock"
	obsmetrics "github.com/smallbiznis/membership/internal/observability/metrics"
	"github.com/smallbiznis/membership/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const minPasswordLength = 6

type Params struct {
	fx.In

	Log     *zap.Logger
	Repo    domain.Repository
	Tokens  *token.Issuer
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	repo    domain.Repository
	tokens  *token.Issuer
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		log:     p.Log.Named("auth.service"),
		repo:    p.Repo,
		tokens:  p.Tokens,
		genID:   p.GenID,
		clock:   clk,
		metrics: p.Metrics,
	}
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.Credential, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil || req.Password == "" {
		s.metrics.RecordLogin(ctx, "invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.metrics.RecordLogin(ctx, "invalid_credentials")
			return nil, domain.ErrInvalidCredentials
		}
		s.metrics.RecordLogin(ctx, "error")
		return nil, err
	}

	if !password.Verify(req.Password, user.PasswordHash) {
		s.log.Debug("password mismatch", zap.String("user_id", user.ID.String()))
		s.metrics.RecordLogin(ctx, "invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}

	now := s.clock.Now()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.metrics.RecordLogin(ctx, "error")
		return nil, fmt.Errorf("record last login: %w", err)
	}
	user.LastLoginAt = &now

	cred, err := s.credential(user)
	if err != nil {
		s.metrics.RecordLogin(ctx, "error")
		return nil, err
	}

	s.metrics.RecordLogin(ctx, "success")
	s.log.Info("user logged in", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
	return cred, nil
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Credential, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return nil, domain.ErrInvalidPassword
	}
	if req.Password != req.ConfirmPassword {
		return nil, domain.ErrPasswordMismatch
	}
	role := req.Role
	if role == "" {
		role = domain.RoleBusinessOwner
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	inUse, err := s.repo.IsEmailInUse(ctx, email)
	if err != nil {
		s.metrics.RecordRegister(ctx, "error")
		return nil, err
	}
	if inUse {
		s.metrics.RecordRegister(ctx, "email_in_use")
		return nil, domain.ErrUserExists
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return nil, domain.ErrInvalidPassword
		}
		return nil, err
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           s.genID.Generate(),
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		// Lost a race against a concurrent registration.
		if db.IsDuplicateKeyErr(err) {
			s.metrics.RecordRegister(ctx, "email_in_use")
			return nil, domain.ErrUserExists
		}
		s.metrics.RecordRegister(ctx, "error")
		return nil, err
	}

	cred, err := s.credential(user)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRegister(ctx, "success")
	s.log.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("role", string(role)))
	return cred, nil
}

func (s *Service) IsEmailInUse(ctx context.Context, email string) (bool, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return false, nil
	}
	return s.repo.IsEmailInUse(ctx, normalized)
}

func (s *Service) GetUser(ctx context.Context, id snowflake.ID) (*domain.UserInfo, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, domain.ErrUserNotFound
	}
	info := user.Info()
	return &info, nil
}

func (s *Service) ListActiveUsers(ctx context.Context) ([]domain.UserInfo, error) {
	users, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return toInfos(users), nil
}

func (s *Service) ListUsersByRole(ctx context.Context, role domain.Role) ([]domain.UserInfo, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	users, err := s.repo.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	return toInfos(users), nil
}

func (s *Service) credential(user *domain.User) (*domain.Credential, error) {
	signed, expiresAt, err := s.tokens.Issue(user.ID, user.Name, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &domain.Credential{
		Token:     signed,
		ExpiresAt: expiresAt,
		User:      user.Info(),
	}, nil
}

func toInfos(users []*domain.User) []domain.UserInfo {
	out := make([]domain.UserInfo, 0, len(users))
	for _, u := range users {
		if u == nil {
			continue
		}
		out = append(out, u.Info())
	}
	return out
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", domain.ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", domain.ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}
