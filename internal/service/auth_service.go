package service

import (
	"context"
	"time"

	"example.com/backstage/services/distribution/internal/auth"
	"example.com/backstage/services/distribution/internal/models"
	"example.com/backstage/services/distribution/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Claims is the JWT payload issued on login
type Claims struct {
	UserID uint   `json:"userId"`
	RoleID uint   `json:"roleId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// LoginResult is returned on a successful login
type LoginResult struct {
	Token       string                    `json:"token"`
	ExpiresAt   time.Time                 `json:"expiresAt"`
	UserID      uint                      `json:"userId"`
	Username    string                    `json:"username"`
	Email       string                    `json:"email"`
	RoleID      uint                      `json:"roleId"`
	RoleName    string                    `json:"roleName"`
	Permissions []auth.ResourcePermission `json:"permissions"`
}

// AuthService authenticates users and issues access tokens
type AuthService struct {
	userRepo  repository.UserRepository
	permSvc   *PermissionService
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(
	db *gorm.DB,
	readOnlyDB *gorm.DB,
	permSvc *PermissionService,
	jwtSecret string,
	tokenTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:  repository.NewUserRepository(db, readOnlyDB),
		permSvc:   permSvc,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// Login verifies credentials and returns a signed token along with the
// user's resource permissions so clients can build their UI without a second
// round trip.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "failed to look up user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	claims := Claims{
		UserID: user.ID,
		RoleID: user.RoleID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign token")
	}

	perms, err := s.permSvc.GetUserPermissions(ctx, user.ID)
	if err != nil {
		// The token is valid regardless; permissions can be fetched later.
		log.Warn().Err(err).Uint("user_id", user.ID).Msg("could not load permissions at login")
		perms = []auth.ResourcePermission{}
	}

	return &LoginResult{
		Token:       token,
		ExpiresAt:   expiresAt,
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		RoleID:      user.RoleID,
		RoleName:    user.Role.Name,
		Permissions: perms,
	}, nil
}

// ParseToken validates a signed token and returns its claims
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "invalid token")
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// GetUser returns an active user by id
func (s *AuthService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}
