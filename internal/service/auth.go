package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"studyhall/internal/model"
	"studyhall/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService issues and validates learner tokens. Credentials are a
// display name plus a shared classroom passcode; unknown learners are
// enrolled on first login.
type AuthService struct {
	passcode  string
	jwtSecret []byte
	users     repository.UserRepo
}

// NewAuthService creates a new auth service
func NewAuthService(passcode, jwtSecret string, users repository.UserRepo) *AuthService {
	if passcode == "" {
		passcode = "study123"
	}
	return &AuthService{
		passcode:  passcode,
		jwtSecret: []byte(jwtSecret),
		users:     users,
	}
}

// Login validates credentials and returns a learner token
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	if username == "" || password != s.passcode {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByDisplayName(ctx, username)
	if errors.Is(err, mongo.ErrNoDocuments) {
		user = &model.UserProfile{
			ID:          "learner_" + uuid.New().String()[:8],
			DisplayName: username,
			CreatedAt:   time.Now(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	claims := &model.LearnerClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:  tokenString,
		UserID: user.ID,
	}, nil
}

// ValidateToken validates a learner JWT and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*model.LearnerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.LearnerClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.LearnerClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
