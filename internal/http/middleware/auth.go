package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/carelane/hospital-platform/internal/identity"
)

// Claims is the JWT payload issued by the identity provider. Subject holds
// the actor UUID, Role one of admin/doctor/patient.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate enforces an HMAC-signed bearer token and resolves the acting
// principal into request context.
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := Claims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			actorID, err := uuid.Parse(claims.Subject)
			if err != nil {
				http.Error(w, "invalid subject", http.StatusUnauthorized)
				return
			}
			principal := identity.Principal{ID: actorID, Role: identity.Role(claims.Role)}
			next.ServeHTTP(w, r.WithContext(identity.WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireRole rejects requests whose principal does not carry the role.
func RequireRole(role identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := identity.FromContext(r.Context())
			if !ok {
				http.Error(w, "missing principal", http.StatusUnauthorized)
				return
			}
			if p.Role != role {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
