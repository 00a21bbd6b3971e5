package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the iss claim on tokens minted by the agent
const Issuer = "devhub-agent"

// Roles carried in tokens. Viewers may only read.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// Context keys set by AuthMiddleware
const (
	ctxAuthMethod = "auth_method"
	ctxClaims     = "claims"
	ctxRole       = "role"
)

// JWTClaims represents the claims in a JWT token
type JWTClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// AuthService handles authentication
type AuthService struct {
	mu        sync.RWMutex
	apiKey    string
	jwtSecret []byte
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(apiKey, jwtSecret string) *AuthService {
	return &AuthService{
		apiKey:    apiKey,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

// SetCredentials swaps the API key and JWT secret in place. Tokens signed
// with a previous secret stop validating.
func (a *AuthService) SetCredentials(apiKey, jwtSecret string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.apiKey = apiKey
	a.jwtSecret = []byte(jwtSecret)
}

func (a *AuthService) credentials() (string, []byte) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.apiKey, a.jwtSecret
}

// ValidRole reports whether role can be put in a token
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleViewer
}

// ValidateAPIKey validates an API key
func (a *AuthService) ValidateAPIKey(key string) bool {
	apiKey, _ := a.credentials()
	return key != "" && key == apiKey
}

// GenerateToken signs a token for role that expires after duration
func (a *AuthService) GenerateToken(role string, duration time.Duration) (string, error) {
	if !ValidRole(role) {
		return "", fmt.Errorf("unknown role %q", role)
	}
	_, secret := a.credentials()
	if len(secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}

	now := a.now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken checks signature, expiry, issuer and role
func (a *AuthService) ValidateToken(tokenString string) (*JWTClaims, error) {
	_, secret := a.credentials()
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is not configured")
	}

	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if !ValidRole(claims.Role) {
		return nil, fmt.Errorf("unknown role %q", claims.Role)
	}

	return claims, nil
}

// ExtractToken reads the bearer token from the Authorization header, or
// the token query parameter for EventSource clients that cannot set headers
func ExtractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.Query("token")
}

// AuthMiddleware accepts the API key (admin) or a signed token
func AuthMiddleware(auth *AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authentication token",
			})
			return
		}

		if auth.ValidateAPIKey(token) {
			c.Set(ctxAuthMethod, "api_key")
			c.Set(ctxRole, RoleAdmin)
			c.Next()
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authentication token",
			})
			return
		}

		c.Set(ctxAuthMethod, "jwt")
		c.Set(ctxClaims, claims)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// WriteAccessMiddleware rejects mutating requests from viewer tokens
func WriteAccessMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if c.GetString(ctxRole) != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "read-only token",
			})
			return
		}
		c.Next()
	}
}
