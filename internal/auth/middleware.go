// internal/auth/middleware.go
// Owner resolution middleware
// Identity is issued by the external auth service; this middleware only
// validates the token and injects the owner id used for data isolation.

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/freightops/freightops-backend/internal/common/utils"
)

// Claims are the token claims the backend cares about
type Claims struct {
	OwnerID   int64  `json:"owner_id"`
	CompanyID int64  `json:"company_id"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// Middleware provides authentication middleware
type Middleware struct {
	secret []byte
}

// NewMiddleware creates a new auth middleware
func NewMiddleware(jwtSecret string) *Middleware {
	return &Middleware{secret: []byte(jwtSecret)}
}

// Authenticate protects routes. It verifies the JWT and adds the owner id to
// the request context so every repository query can be owner-scoped.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.extractToken(r)
		if token == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Missing or invalid authorization header")
			return
		}

		claims, err := m.parseToken(token)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		if claims.TokenType != "" && claims.TokenType != "access" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token type")
			return
		}

		ctx := context.WithValue(r.Context(), "ownerID", claims.OwnerID)
		ctx = context.WithValue(ctx, "companyID", claims.CompanyID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func (m *Middleware) parseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
