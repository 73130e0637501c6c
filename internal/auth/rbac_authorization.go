package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/org-management/internal"
	"github.com/frahmantamala/org-management/internal/transport"
)

// AdminChecker is the single organization-admin capability check.
type AdminChecker interface {
	IsOrganizationAdmin(roleName string) bool
}

type RBACAuthorization struct {
	*transport.BaseHandler
	admins AdminChecker
}

func NewRBACAuthorization(admins AdminChecker, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		admins:      admins,
	}
}

// RequireAdmin lets the request through only for organization admins.
func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				ra.Logger.Warn("authorization check failed: identity not found in context")
				ra.WriteAppError(w, internal.NewUnauthorizedError("Unauthorized", internal.ErrCodeInvalidToken))
				return
			}

			if !ra.admins.IsOrganizationAdmin(identity.RoleName) {
				ra.Logger.WarnContext(r.Context(), "access denied: admin role required",
					"user_id", identity.ID,
					"role", identity.RoleName,
					"path", r.URL.Path)
				ra.WriteAppError(w, internal.ErrUnauthorizedAccess)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
