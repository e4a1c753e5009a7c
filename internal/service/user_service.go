package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/assesshub/assesshub-backend/internal/mailer"
	"github.com/assesshub/assesshub-backend/internal/model"
	"github.com/assesshub/assesshub-backend/internal/repository"
)

// User lifecycle errors.
var (
	ErrEmailTaken       = errors.New("email is already registered")
	ErrEmailNotVerified = errors.New("email has not been verified")
)

// UserService handles registration, e-mail verification and admin side user
// management.
type UserService struct {
	userRepo *repository.UserRepository
	roleRepo *repository.RoleRepository
	authSvc  *AuthService
	mail     mailer.Mailer
	log      zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	userRepo *repository.UserRepository,
	roleRepo *repository.RoleRepository,
	authSvc *AuthService,
	mail mailer.Mailer,
	log zerolog.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		authSvc:  authSvc,
		mail:     mail,
		log:      log.With().Str("component", "user_service").Logger(),
	}
}

// Register creates an unverified candidate account and mails a verification
// code. The account cannot log in until the code is confirmed.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	hash, err := s.authSvc.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		Role:         model.UserRoleCandidate,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.sendOTP(ctx, user.Email); err != nil {
		// The account exists; the candidate can request a new code.
		s.log.Warn().Err(err).Str("email", user.Email).Msg("Failed to send verification code")
	}
	return user, nil
}

// VerifyEmail confirms a registration code and activates the account.
func (s *UserService) VerifyEmail(ctx context.Context, email, code string) error {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return nil
	}
	if err := s.authSvc.ValidateOTP(ctx, email, code); err != nil {
		return err
	}
	return s.userRepo.MarkEmailVerified(ctx, user.Email)
}

// ResendOTP issues a fresh verification code for an unverified account.
func (s *UserService) ResendOTP(ctx context.Context, email string) error {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return nil
	}
	return s.sendOTP(ctx, email)
}

func (s *UserService) sendOTP(ctx context.Context, email string) error {
	code, err := s.authSvc.GenerateOTP(ctx, email)
	if err != nil {
		return err
	}
	return s.mail.SendOTP(email, code)
}

// Login validates credentials and returns the user. Unverified candidates
// are rejected before the password check result leaks timing.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.authSvc.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}
	if user.Role == model.UserRoleCandidate && !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}
	return user, nil
}

// GetByID retrieves a user.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by e-mail address.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListPaginated retrieves users for admin screens.
func (s *UserService) ListPaginated(ctx context.Context, limit, offset int) ([]model.User, int, error) {
	return s.userRepo.ListPaginated(ctx, limit, offset)
}

// CreateAdmin provisions an admin account bound to a role. Admin accounts
// are created verified; they never go through the OTP flow.
func (s *UserService) CreateAdmin(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if req.RoleID == nil {
		return nil, ErrNotFound
	}
	if _, err := s.roleRepo.GetByID(ctx, *req.RoleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get role: %w", err)
	}

	hash, err := s.authSvc.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:         req.Email,
		Username:      req.Username,
		PasswordHash:  hash,
		Role:          model.UserRoleAdmin,
		RoleID:        req.RoleID,
		EmailVerified: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return user, nil
}

// Update modifies a user; a non-empty password is rehashed.
func (s *UserService) Update(ctx context.Context, user *model.User, newPassword string) error {
	if _, err := s.GetByID(ctx, user.ID); err != nil {
		return err
	}
	var hash string
	if newPassword != "" {
		h, err := s.authSvc.HashPassword(newPassword)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		hash = h
	}
	return s.userRepo.Update(ctx, user, hash)
}

// Delete removes a user account.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, id)
}

// Permissions resolves the permission codes attached to a user's role.
// Candidates have none.
func (s *UserService) Permissions(ctx context.Context, user *model.User) ([]string, error) {
	if user.RoleID == nil {
		return nil, nil
	}
	return s.roleRepo.GetPermissions(ctx, *user.RoleID)
}

// ListRoles retrieves all admin roles with their permissions.
func (s *UserService) ListRoles(ctx context.Context) ([]model.Role, error) {
	return s.roleRepo.List(ctx)
}
