package middleware

import (
	"net/http"
	"strings"

	"github.com/rgarciadev/atelier-backend/api/responses"
	pkgauth "github.com/rgarciadev/atelier-backend/pkg/auth"
	"github.com/rgarciadev/atelier-backend/pkg/config"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
	"github.com/rgarciadev/atelier-backend/pkg/logger"
)

// Auth validates a bearer token minted by the external identity service and
// seeds the request context with the resulting user Owner. Guest tokens are
// rejected here; guest surfaces use the Guest middleware instead.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			owner, err := claims.Owner()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token subject"))
				return
			}
			if !owner.IsUser() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "registered account required"))
				return
			}

			ctx := WithOwner(r.Context(), owner)
			if logg != nil {
				ctx = logg.WithUserID(ctx, owner.ID().String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
