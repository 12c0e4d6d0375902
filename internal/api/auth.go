package api

import (
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/detectivekit/casegraph/internal/config"
)

// Role represents an authorization role. Admins manage cases; proctors
// run sessions and feed player input.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleProctor Role = "proctor"
)

type authConfig struct {
	adminUser   string
	adminPass   string
	proctorUser string
	proctorPass string
	enabled     bool
}

var auth *authConfig

// InitAuth loads credentials from the environment, honoring the *_FILE
// convention. With no admin credentials set, authentication is disabled
// entirely (dev-friendly).
func InitAuth() {
	adminUser, err := config.Secret("CASEGRAPH_ADMIN_USER")
	if err != nil {
		log.Fatalf("failed to resolve CASEGRAPH_ADMIN_USER: %v", err)
	}
	adminPass, err := config.Secret("CASEGRAPH_ADMIN_PASS")
	if err != nil {
		log.Fatalf("failed to resolve CASEGRAPH_ADMIN_PASS: %v", err)
	}
	proctorUser, err := config.Secret("CASEGRAPH_PROCTOR_USER")
	if err != nil {
		log.Fatalf("failed to resolve CASEGRAPH_PROCTOR_USER: %v", err)
	}
	proctorPass, err := config.Secret("CASEGRAPH_PROCTOR_PASS")
	if err != nil {
		log.Fatalf("failed to resolve CASEGRAPH_PROCTOR_PASS: %v", err)
	}

	auth = &authConfig{
		adminUser:   adminUser,
		adminPass:   adminPass,
		proctorUser: proctorUser,
		proctorPass: proctorPass,
		enabled:     adminUser != "" && adminPass != "",
	}
}

// IsAuthEnabled returns true if authentication is configured.
func IsAuthEnabled() bool {
	return auth != nil && auth.enabled
}

// authenticate resolves the request's role, or "" when the credentials
// match neither account.
func authenticate(r *http.Request) Role {
	if auth == nil || !auth.enabled {
		return RoleAdmin // No auth configured = full access
	}

	user, pass, ok := r.BasicAuth()
	if !ok {
		return ""
	}

	if auth.adminUser != "" && auth.adminPass != "" {
		if secureCompare(user, auth.adminUser) && secureCompare(pass, auth.adminPass) {
			return RoleAdmin
		}
	}
	if auth.proctorUser != "" && auth.proctorPass != "" {
		if secureCompare(user, auth.proctorUser) && secureCompare(pass, auth.proctorPass) {
			return RoleProctor
		}
	}
	return ""
}

// secureCompare performs constant-time string comparison to prevent timing attacks.
func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func requireAuth(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="casegraph"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// RequireRole wraps a handler and requires one of the specified roles.
func RequireRole(handler http.HandlerFunc, allowedRoles ...Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := authenticate(r)
		if role == "" {
			requireAuth(w)
			return
		}
		for _, allowed := range allowedRoles {
			if role == allowed {
				handler(w, r)
				return
			}
		}
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}

// RequireAnyRole wraps a handler requiring admin OR proctor role.
func RequireAnyRole(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(handler, RoleAdmin, RoleProctor)
}

// RequireAdmin wraps a handler requiring admin role only.
func RequireAdmin(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(handler, RoleAdmin)
}
