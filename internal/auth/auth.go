package auth

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionCookie = "session"
	roleAdmin     = "admin"
	sessionTTL    = 12 * time.Hour
)

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Guard issues and verifies the admin session cookie. Sessions are
// stateless JWTs, so a restart does not log the owner out.
type Guard struct {
	secret        []byte
	adminPassword string
	secureCookies bool
	logger        *slog.Logger
	now           func() time.Time
}

func NewGuard(secret []byte, adminPassword string, secureCookies bool, logger *slog.Logger) *Guard {
	return &Guard{
		secret:        secret,
		adminPassword: adminPassword,
		secureCookies: secureCookies,
		logger:        logger,
		now:           time.Now,
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

func (g *Guard) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.writeError(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(g.adminPassword)) != 1 {
		g.logger.Warn("failed admin login attempt", "remote_addr", r.RemoteAddr)
		g.writeError(w, http.StatusUnauthorized, "contraseña incorrecta")
		return
	}

	token, err := g.issueToken()
	if err != nil {
		g.logger.Error("failed to sign session token", "error", err)
		g.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   g.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

func (g *Guard) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// RequireAdmin rejects requests without a valid admin session cookie.
func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			g.writeError(w, http.StatusUnauthorized, "no autenticado")
			return
		}

		parsed := &claims{}
		token, err := jwt.ParseWithClaims(cookie.Value, parsed, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return g.secret, nil
		})
		if err != nil || !token.Valid {
			g.writeError(w, http.StatusUnauthorized, "sesión inválida o expirada")
			return
		}

		if parsed.Role != roleAdmin {
			g.writeError(w, http.StatusForbidden, "permisos insuficientes")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (g *Guard) issueToken() (string, error) {
	now := g.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: roleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "owner",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	})
	return token.SignedString(g.secret)
}

func (g *Guard) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
