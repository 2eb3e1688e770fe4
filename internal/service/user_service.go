package service

import (
	"errors"

	"gorm.io/gorm"

	"reviewhub/internal/dto"
	"reviewhub/internal/models"
	"reviewhub/internal/repository"
)

var (
	ErrUserExists  = errors.New("user with this username or email already exists")
	ErrInvalidRole = errors.New("role must be one of user, moderator or admin")
)

type UserService interface {
	Create(req *dto.CreateUserRequest) (*dto.UserResponse, error)
	List(page, pageSize int) (*dto.ListResponse, error)
	GetByUsername(username string) (*dto.UserResponse, error)
	Update(username string, req *dto.UpdateUserRequest, allowRoleChange bool) (*dto.UserResponse, error)
	Delete(username string) error
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// Create registers a user on behalf of an admin. The confirmation
// flow still applies before that user can obtain a token.
func (s *userService) Create(req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := ValidateUsername(req.Username); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByUsername(req.Username); err == nil {
		return nil, ErrUserExists
	}
	if _, err := s.userRepo.FindByEmail(req.Email); err == nil {
		return nil, ErrUserExists
	}

	role := models.Role(req.Role)
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      role,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	return dto.FromModelToUserResponse(user), nil
}

func (s *userService) List(page, pageSize int) (*dto.ListResponse, error) {
	users, total, err := s.userRepo.List(page, pageSize)
	if err != nil {
		return nil, err
	}
	return dto.NewListResponse(dto.FromModelToUserResponses(users), int(total), page, pageSize), nil
}

func (s *userService) GetByUsername(username string) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return dto.FromModelToUserResponse(user), nil
}

// Update applies a partial update. Role changes are dropped unless
// allowRoleChange is set, so a self-PATCH can never escalate.
func (s *userService) Update(username string, req *dto.UpdateUserRequest, allowRoleChange bool) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Username != nil && *req.Username != user.Username {
		if err := ValidateUsername(*req.Username); err != nil {
			return nil, err
		}
		if _, err := s.userRepo.FindByUsername(*req.Username); err == nil {
			return nil, ErrUserExists
		}
		user.Username = *req.Username
	}
	if req.Email != nil && *req.Email != user.Email {
		if _, err := s.userRepo.FindByEmail(*req.Email); err == nil {
			return nil, ErrUserExists
		}
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Role != nil && allowRoleChange {
		// omitempty skips an empty role at binding time
		if !models.ValidRole(models.Role(*req.Role)) {
			return nil, ErrInvalidRole
		}
		user.Role = models.Role(*req.Role)
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	return dto.FromModelToUserResponse(user), nil
}

func (s *userService) Delete(username string) error {
	if err := s.userRepo.Delete(username); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
