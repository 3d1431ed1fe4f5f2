package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/course-payments/internal/transport"
)

type RBACAuthorization struct {
	*transport.BaseHandler
}

func NewRBACAuthorization(logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{BaseHandler: transport.NewBaseHandler(logger)}
}

// RequireRole lets the request through only when the identity placed by AuthMiddleware has one of roles.
func (ra *RBACAuthorization) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				ra.Logger.WarnContext(r.Context(), "authorization check failed: identity not found in context")
				ra.WriteForbidden(w)
				return
			}

			for _, role := range roles {
				if id.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			ra.Logger.WarnContext(r.Context(), "access denied: role not allowed",
				"subject_id", id.SubjectID,
				"role", id.Role,
				"required_roles", roles)
			ra.WriteForbidden(w)
		})
	}
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.RequireRole(RoleAdmin)
}
