package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/repairops-backend/api/responses"
	pkgAuth "github.com/angelmondragon/repairops-backend/pkg/auth"
	"github.com/angelmondragon/repairops-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/repairops-backend/pkg/errors"
	"github.com/angelmondragon/repairops-backend/pkg/logger"
)

const bearerScheme = "bearer"

var errMissingCredentials = pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")

// Auth verifies the identity provider's bearer token and puts the actor on
// the request context. Every failure is a 401.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				responses.WriteError(r.Context(), logg, w, errMissingCredentials)
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				message := "invalid token"
				if errors.Is(err, pkgAuth.ErrExpired) {
					message = "token expired"
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, message))
				return
			}

			ctx := WithActor(r.Context(), claims.UserID, claims.Role)
			if logg != nil {
				ctx = logg.WithActor(ctx, claims.UserID.String(), string(claims.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken accepts "Bearer <token>" in any case, or a bare token.
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	switch {
	case len(parts) == 1 && !strings.EqualFold(parts[0], bearerScheme):
		return parts[0], true
	case len(parts) == 2 && strings.EqualFold(parts[0], bearerScheme):
		return parts[1], true
	}
	return "", false
}
