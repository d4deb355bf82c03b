package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, *User, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUser(userID int64) (*User, error)
}

// RepositoryAPI resolves installers by their identity. GetByTelegramID
// returns (nil, nil) when no user carries that Telegram id.
type RepositoryAPI interface {
	GetByTelegramID(telegramID int64) (*User, error)
	GetByID(userID int64) (*User, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(userID string, telegramID int64, role string) (token string, err error)
	GenerateRefreshToken(userID string, telegramID int64, role string) (token string, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Service exchanges signed Telegram init data for a JWT pair. Users
// are provisioned out of band; an unknown Telegram id is rejected.
type Service struct {
	userRepo       RepositoryAPI
	tokenGenerator TokenGeneratorAPI
	validator      *InitDataValidator
}

func NewService(userRepo RepositoryAPI, tokenGen TokenGeneratorAPI, validator *InitDataValidator) *Service {
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
		validator:      validator,
	}
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * 7 * time.Hour
	}
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

// Authenticate validates Telegram init data and returns tokens for the
// matching registered user.
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, *User, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, nil, err
	}

	telegramUser, err := s.validator.Validate(dto.InitData)
	if err != nil {
		return AuthTokens{}, nil, err
	}

	user, err := s.userRepo.GetByTelegramID(telegramUser.ID)
	if err != nil {
		return AuthTokens{}, nil, err
	}
	if user == nil {
		return AuthTokens{}, nil, ErrUserNotRegistered
	}

	userID := strconv.FormatInt(user.ID, 10)
	accessToken, err := s.tokenGenerator.GenerateAccessToken(userID, user.TelegramID, user.Role)
	if err != nil {
		return AuthTokens{}, nil, err
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(userID, user.TelegramID, user.Role)
	if err != nil {
		return AuthTokens{}, nil, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, user, nil
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	accessToken, err := s.tokenGenerator.GenerateAccessToken(claims.UserID, claims.TelegramID, claims.Role)
	if err != nil {
		return AuthTokens{}, err
	}

	newRefreshToken, err := s.tokenGenerator.GenerateRefreshToken(claims.UserID, claims.TelegramID, claims.Role)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString)
}

// GetUser loads the current persisted user record for token claims.
func (s *Service) GetUser(userID int64) (*User, error) {
	return s.userRepo.GetByID(userID)
}

// GenerateAccessToken creates a new access token
func (j *JWTTokenGenerator) GenerateAccessToken(userID string, telegramID int64, role string) (string, error) {
	return j.generate(userID, telegramID, role, j.AccessTokenTTL, j.AccessTokenSecret)
}

// GenerateRefreshToken creates a new refresh token
func (j *JWTTokenGenerator) GenerateRefreshToken(userID string, telegramID int64, role string) (string, error) {
	return j.generate(userID, telegramID, role, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) generate(userID string, telegramID int64, role string, ttl time.Duration, secret []byte) (string, error) {
	expiresAt := time.Now().Add(ttl)

	claims := &Claims{
		UserID:     userID,
		TelegramID: telegramID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		// Refresh tokens outlive the access TTL; pick the secret by
		// remaining lifetime.
		if claims, ok := token.Claims.(*Claims); ok {
			if claims.ExpiresAt != nil && time.Until(claims.ExpiresAt.Time) > j.AccessTokenTTL {
				return j.RefreshTokenSecret, nil
			}
		}
		return j.AccessTokenSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
