package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"reviewhub/internal/config"
	"reviewhub/internal/mailer"
	"reviewhub/internal/models"
	"reviewhub/internal/repository"
)

var (
	ErrForbiddenUsername = errors.New("username \"me\" is not allowed")
	ErrInvalidUsername   = errors.New("username may only contain letters, digits and @/./+/-/_")
	ErrIdentityMismatch  = errors.New("username and email belong to different accounts")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidCode       = errors.New("invalid or expired confirmation code")
	ErrInvalidToken      = errors.New("invalid token")
)

// usernameRe mirrors the allowed username alphabet of the signup form.
var usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

// Claims is the JWT payload carried by every access token.
type Claims struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	IsSuperuser bool   `json:"is_superuser"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Signup(ctx context.Context, username, email string) error
	IssueToken(ctx context.Context, username, code string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	userRepo       repository.UserRepository
	codeRepo       repository.CodeRepository
	mailer         mailer.Mailer
	jwtSecret      string
	accessTokenTTL time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	codeRepo repository.CodeRepository,
	mailer mailer.Mailer,
	cfg *config.Config,
) AuthService {
	return &authService{
		userRepo:       userRepo,
		codeRepo:       codeRepo,
		mailer:         mailer,
		jwtSecret:      cfg.JWTSecret,
		accessTokenTTL: cfg.AccessTokenTTL,
	}
}

// ValidateUsername enforces the username alphabet and the reserved
// "me" name, which would collide with the /users/me/ route.
func ValidateUsername(username string) error {
	if username == "me" {
		return ErrForbiddenUsername
	}
	if !usernameRe.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// Signup creates or reuses the user identified by (username, email),
// issues a fresh single-use confirmation code and mails it. A repeat
// signup for the same pair simply replaces the previous code.
func (s *authService) Signup(ctx context.Context, username, email string) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}

	user, err := s.userRepo.FindByUsername(username)
	switch {
	case err == nil:
		if user.Email != email {
			return ErrIdentityMismatch
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Username is free; the email must be free as well.
		if _, err := s.userRepo.FindByEmail(email); err == nil {
			return ErrIdentityMismatch
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		user = &models.User{
			Username: username,
			Email:    email,
			Role:     models.RoleUser,
		}
		if err := s.userRepo.Create(user); err != nil {
			return err
		}
	default:
		return err
	}

	code := uuid.New().String()
	if err := s.codeRepo.Store(ctx, username, code); err != nil {
		return err
	}

	return s.mailer.SendConfirmationCode(user.Email, user.Username, code)
}

// IssueToken exchanges a confirmation code for a signed access token.
// The code is consumed on success and cannot be used again.
func (s *authService) IssueToken(ctx context.Context, username, code string) (string, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	if err := s.codeRepo.Verify(ctx, username, code); err != nil {
		if errors.Is(err, repository.ErrCodeInvalid) {
			return "", ErrInvalidCode
		}
		return "", err
	}
	if err := s.codeRepo.Consume(ctx, username); err != nil {
		return "", err
	}

	return s.generateAccessToken(user)
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:      user.ID,
		Username:    user.Username,
		Role:        string(user.Role),
		IsSuperuser: user.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
