package service

import (
	"context"
	"errors"
	"fmt"

	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest, creatorID string) (*model.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	GetAllUsers(ctx context.Context) ([]model.UserResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error)
	// SetPassword replaces a password without knowing the old one and ends all sessions.
	SetPassword(ctx context.Context, email, password string) error
	// EnsureAdmin creates the admin account when no user has that email yet.
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

type CreateUserRequest struct {
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=6"`
	Name     string         `json:"name" validate:"required,max=255"`
	Role     model.UserRole `json:"role" validate:"omitempty,oneof=admin manager staff"`
}

type UpdateUserRequest struct {
	Email    *string         `json:"email" validate:"omitempty,email"`
	Password *string         `json:"password,omitempty" validate:"omitempty,min=6"`
	Name     *string         `json:"name" validate:"omitempty,min=1,max=255"`
	Role     *model.UserRole `json:"role" validate:"omitempty,oneof=admin manager staff"`
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log,
	}
}

func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest, creatorID string) (*model.User, error) {
	// 1. Validate request
	req.Email = model.NormalizeEmail(req.Email)
	if err := validationError(req); err != nil {
		return nil, err
	}

	// 2. Email must be unused
	if err := s.ensureEmailFree(ctx, req.Email); err != nil {
		return nil, err
	}

	// 3. Create user
	user := &model.User{
		Email: req.Email,
		Name:  req.Name,
		Role:  req.Role,
	}
	if user.Role == "" {
		user.Role = model.RoleStaff
	}
	user.CreatedBy = creatorID
	user.UpdatedBy = creatorID

	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error) {
	if err := validationError(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	if req.Email != nil {
		email := model.NormalizeEmail(*req.Email)
		if email != user.Email {
			if err := s.ensureEmailFree(ctx, email); err != nil {
				return nil, err
			}
		}
		user.Email = email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}
	user.UpdatedBy = updaterID

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return notFound(s.userRepo.Delete(ctx, userID), ErrUserNotFound)
}

func (s *userService) GetAllUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	response := user.ToResponse()
	return &response, nil
}

func (s *userService) SetPassword(ctx context.Context, email, password string) error {
	if len(password) < 6 {
		return invalid("password must be at least 6 characters")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}
	if err := user.SetPassword(password); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return err
	}
	return s.userRepo.UpdateTokenVersion(ctx, user.ID, uuid.NewString())
}

func (s *userService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = model.NormalizeEmail(email)
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	_, err := s.CreateUser(ctx, &CreateUserRequest{
		Email:    email,
		Password: password,
		Name:     "Administrator",
		Role:     model.RoleAdmin,
	}, "system")
	if err != nil {
		return false, err
	}
	s.log.Info("Seeded admin user", zap.String("email", email))
	return true, nil
}

func (s *userService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrDuplicateEmail
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return err
	}
}
