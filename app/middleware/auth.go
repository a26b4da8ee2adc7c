package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AsyncXeNo/zenrenne-backend/app/apierror"
)

const RoleAdmin = "admin"

// Claims are the custom claims embedded in every access token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type claimsKey struct{}

// Auth validates the Bearer token and rejects roles outside the allowed list.
type Auth struct {
	secret []byte
}

func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// RequireRole rejects requests whose token is missing, invalid, or whose
// role is not allowed.
func (a *Auth) RequireRole(roles ...string) Middleware {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if len(a.secret) == 0 || !strings.HasPrefix(header, "Bearer ") {
				apierror.JSON(w, http.StatusUnauthorized, apierror.New("authentication required"))
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(t *jwt.Token) (interface{}, error) {
				return a.secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				apierror.Logger(r).Debug().Err(err).Msg("token rejected")
				apierror.JSON(w, http.StatusUnauthorized, apierror.New("invalid or expired token"))
				return
			}
			if !allowed[claims.Role] {
				apierror.JSON(w, http.StatusForbidden, apierror.New("insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}

// RequireAdmin guards catalog writes.
func (a *Auth) RequireAdmin() Middleware {
	return a.RequireRole(RoleAdmin)
}

// Issue signs a token for subject with the given role.
func (a *Auth) Issue(subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// GetClaims returns the claims stored by RequireRole, or nil.
func GetClaims(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey{}).(*Claims)
	return claims
}
