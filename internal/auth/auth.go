package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/org-management/internal/hierarchy"
	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Identity is the authenticated user attached to a request.
type Identity struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	ManagerID *int64 `json:"managerId"`
	RoleName  string `json:"role"`
	RoleLevel int    `json:"roleLevel"`
	Status    string `json:"status"`
}

func (i *Identity) Requester() hierarchy.Requester {
	return hierarchy.Requester{ID: i.ID, ManagerID: i.ManagerID, RoleName: i.RoleName}
}

func (i *Identity) IsActive() bool {
	return i.Status == hierarchy.StatusActive
}

// Credentials is what login needs to check a password.
type Credentials struct {
	UserID       int64  `db:"id"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	Status       string `db:"status"`
}

type AuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(userID string, email string) (token string, expiresAt time.Time, err error)
	GenerateRefreshToken(userID string, email string) (token string, err error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

type ctxKey string

const ContextIdentityKey ctxKey = "identity"

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(ContextIdentityKey).(*Identity)
	return id, ok && id != nil
}

func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ContextIdentityKey, id)
}
