package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"joints/internal/models"
	"joints/internal/observability"
	"joints/internal/repositories"

	"github.com/dgrijalva/jwt-go"
)

// AuthService issues and resolves session tokens on top of the user repository.
// The repository decides whether credentials are valid; this service only
// turns a successful authentication into a signed token and back.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour, // Token valid for 24 hours
	}
}

// RegisterUser creates an account. The first account ever registered is an administrator.
func (s *AuthService) RegisterUser(ctx context.Context, username, email, password string) (*models.User, error) {
	user, err := s.userRepo.Register(ctx, username, email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// LoginUser authenticates a user and returns a JWT token if successful.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.userRepo.Authenticate(ctx, username, password)
	if err != nil {
		return "", nil, err
	}

	token, err := s.issueToken(user.Username)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) issueToken(username string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"exp":      now.Add(s.tokenDurat).Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		observability.Log.WithError(err).Debug("token validation failed")
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// ResolveSession turns a token into the current user record. Bans and
// promotions take effect on the next request because the user is re-read
// every time.
func (s *AuthService) ResolveSession(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	username, _ := claims["username"].(string)
	if username == "" {
		return nil, errors.New("invalid token: missing username")
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.Banned {
		return nil, models.ErrBanned
	}
	return user, nil
}
