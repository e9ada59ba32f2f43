package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"hazard-service/internal/models"
	"hazard-service/internal/services"
)

// Context keys set by the auth middleware
const (
	ContextUserID   = "user_id"
	ContextUserName = "user_name"
	ContextUserRole = "user_role"
)

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 session tokens
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, issuer: "hazard-service", now: time.Now}
}

// Issue signs a token for user and returns it with its expiry
func (m *TokenManager) Issue(user *models.User) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claims{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies tokenString and returns its claims
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Make sure token method is HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// UserLookup loads the current account behind a token
type UserLookup interface {
	Get(ctx context.Context, userID string) (*models.User, error)
}

// AuthMiddleware validates bearer tokens. When users is set the account is
// re-read so role changes and deletions take effect before the token expires.
func AuthMiddleware(tokens *TokenManager, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			Respond(c, NewUnauthorizedError("Authorization header must be in format: Bearer <token>"))
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			Respond(c, NewUnauthorizedError("Invalid or expired token"))
			return
		}

		name, role := claims.Name, claims.Role
		if users != nil {
			user, err := users.Get(c.Request.Context(), claims.UserID)
			if err != nil {
				if services.IsNotFound(err) {
					Respond(c, NewUnauthorizedError("Account no longer exists"))
					return
				}
				Respond(c, err)
				return
			}
			if !user.Approved {
				Respond(c, NewForbiddenError("Account is awaiting approval"))
				return
			}
			name, role = user.Name, user.Role
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserName, name)
		c.Set(ContextUserRole, role)
		c.Next()
	}
}

// bearerToken reads the Authorization header, falling back to the token
// query parameter for EventSource clients that cannot set headers
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return c.Query("token")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// ActorFromContext returns the authenticated caller
func ActorFromContext(c *gin.Context) services.Actor {
	return services.Actor{
		ID:   c.GetString(ContextUserID),
		Name: c.GetString(ContextUserName),
		Role: c.GetString(ContextUserRole),
	}
}
