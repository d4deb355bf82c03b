package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin     = "admin"
	RoleInstaller = "installer"
)

// User is the authenticated identity attached to request contexts.
type User struct {
	ID         int64  `json:"id"`
	TelegramID int64  `json:"telegramId"`
	Name       string `json:"name"`
	Role       string `json:"role"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// TelegramUser is the profile Telegram embeds in WebApp init data.
type TelegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

func (t TelegramUser) DisplayName() string {
	if t.LastName != "" {
		return t.FirstName + " " + t.LastName
	}
	if t.FirstName != "" {
		return t.FirstName
	}
	return t.Username
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID     string `json:"user_id"`
	TelegramID int64  `json:"telegram_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

var (
	ErrInvalidInitData   = errors.New("invalid telegram init data")
	ErrInitDataExpired   = errors.New("telegram init data expired")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrUserNotRegistered = errors.New("user is not registered")
)

type contextKey string

// ContextUserKey carries the authenticated *User through request contexts.
const ContextUserKey contextKey = "auth_user"

func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(ContextUserKey).(*User)
	return user, ok
}
