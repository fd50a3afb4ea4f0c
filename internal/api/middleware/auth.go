package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/bingopot/internal/api/apierr"
	"github.com/mcoot/bingopot/internal/model"
	"github.com/mcoot/bingopot/internal/services/auth"
)

type contextKey string

const playerContextKey contextKey = "player"

// accessTokenParam lets EventSource clients, which cannot set headers,
// authenticate a GET on the events stream
const accessTokenParam = "access_token"

// ConfiguratorChecker reports whether a player may change parameters and mint tokens
type ConfiguratorChecker interface {
	IsConfigurator(id model.PlayerID) bool
}

// Auth rejects requests without a valid session token
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := authService.ValidateSession(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
		})
	}
}

// OptionalAuth attaches the session when a valid token is present and
// otherwise lets the request through anonymously
func OptionalAuth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := extractToken(r); token != "" {
				if session, err := authService.ValidateSession(token); err == nil {
					r = r.WithContext(withSession(r.Context(), session))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireConfigurator answers 403 NOT_CONFIGURATOR unless the authenticated
// player is the configurator. It must run after Auth.
func RequireConfigurator(checker ConfiguratorChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			player := GetPlayer(r.Context())
			if player == nil {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}
			if !checker.IsConfigurator(player.ID) {
				apierr.WriteError(w, model.ErrNotConfigurator)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func withSession(ctx context.Context, session *auth.Session) context.Context {
	return context.WithValue(ctx, playerContextKey, &session.Player)
}

// extractToken reads a bearer token, or the access_token query parameter on GETs
func extractToken(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if r.Method == http.MethodGet {
		return r.URL.Query().Get(accessTokenParam)
	}
	return ""
}

// GetPlayer returns the authenticated player from the request context
func GetPlayer(ctx context.Context) *model.Player {
	player, _ := ctx.Value(playerContextKey).(*model.Player)
	return player
}

// MustGetPlayer returns the authenticated player. Handlers behind Auth only.
func MustGetPlayer(ctx context.Context) *model.Player {
	player := GetPlayer(ctx)
	if player == nil {
		panic("no player in context: route is missing Auth")
	}
	return player
}
