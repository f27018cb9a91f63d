package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/auth"
	"github.com/sakif/grid-manager/internal/model"
	"github.com/sakif/grid-manager/internal/repository"
	"github.com/sakif/grid-manager/internal/schema"
)

// PasswordHasher is the part of auth.PasswordService the services use.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) error
}

// UserStore is the storage the user and auth flows need.
type UserStore interface {
	repository.UserRepository
	repository.AvatarRepository
}

// AuthResult bundles the account with a freshly issued session token so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// UserService owns registration, login and account administration.
type UserService struct {
	users     UserStore
	tokens    *auth.TokenService
	passwords PasswordHasher
	logger    *zap.Logger
}

func NewUserService(
	users UserStore,
	tokens *auth.TokenService,
	passwords PasswordHasher,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

var (
	errBadCredentials = apperror.Unauthorized("Invalid username or password")
	errUsernameTaken  = apperror.ValidationFailed("username", "Username already exists")
)

// Register creates a non-admin account, an optional first avatar, and a
// session for it. A taken username is a validation error on "username".
func (s *UserService) Register(ctx context.Context, reg model.UserRegistration) (*AuthResult, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)

	if err := schema.Validate(reg); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, reg.InsertUser())
	if err != nil {
		return nil, err
	}

	if reg.AvatarName != "" && reg.AvatarType != "" {
		_, err := s.users.CreateAvatar(ctx, model.InsertAvatar{
			UserID:     user.ID,
			AvatarType: reg.AvatarType,
			Name:       reg.AvatarName,
		})
		if err != nil {
			// The account exists at this point; the avatar can be added later.
			s.logger.Warn("failed to create avatar during registration",
				zap.Int64("userId", user.ID),
				zap.Error(err),
			)
		}
	}

	return s.issue(user)
}

// Login checks the credentials and issues a session. Unknown users and wrong
// passwords get the same 401 so usernames cannot be probed.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (*AuthResult, error) {
	if err := schema.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Info("login rejected", zap.String("username", user.Username))
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("verifying password: %w", err)
	}

	s.logger.Info("user logged in", zap.Int64("userId", user.ID))
	return s.issue(user)
}

// CreateUser is the admin path: the caller may grant admin rights and no
// session is issued.
func (s *UserService) CreateUser(ctx context.Context, in model.InsertUser) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := schema.Validate(in); err != nil {
		return nil, err
	}
	return s.createUser(ctx, in)
}

func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.GetAllUsers(ctx)
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetUser(ctx, id)
}

// Avatars lists the avatars of an existing user.
func (s *UserService) Avatars(ctx context.Context, userID int64) ([]model.Avatar, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.users.GetAvatarsByUser(ctx, userID)
}

func (s *UserService) CreateAvatar(ctx context.Context, in model.InsertAvatar) (*model.Avatar, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := schema.Validate(in); err != nil {
		return nil, err
	}
	if _, err := s.users.GetUser(ctx, in.UserID); err != nil {
		return nil, err
	}

	a, err := s.users.CreateAvatar(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("creating avatar: %w", err)
	}
	s.logger.Info("avatar created", zap.Int64("avatarId", a.ID), zap.Int64("userId", a.UserID))
	return a, nil
}

// createUser expects a validated insert with a plaintext password. The
// lookup spares a bcrypt hash for the common duplicate; the store's own
// check decides when two registrations race.
func (s *UserService) createUser(ctx context.Context, in model.InsertUser) (*model.User, error) {
	_, err := s.users.GetUserByUsername(ctx, in.Username)
	if err == nil {
		return nil, errUsernameTaken
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("checking username: %w", err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	in.Password = hash

	user, err := s.users.CreateUser(ctx, in)
	if errors.Is(err, apperror.ErrConflict) {
		return nil, errUsernameTaken
	}
	if err != nil {
		s.logger.Error("failed to create user", zap.String("username", in.Username), zap.Error(err))
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created",
		zap.Int64("userId", user.ID),
		zap.String("username", user.Username),
		zap.Bool("isAdmin", user.IsAdmin),
	)
	return user, nil
}

func (s *UserService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing session: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
