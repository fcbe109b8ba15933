// profchat/middlewares/auth.go
package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"profchat/profchat/config"
	"profchat/profchat/utils/logging"
	"profchat/profchat/utils/types"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const viewerKey contextKey = "viewer"

// SessionCookie is where the identity provider keeps its session token.
const SessionCookie = "__session"

var errUnexpectedMethod = errors.New("unexpected signing method")

// Verifier checks identity provider session tokens. A nil Verifier treats
// every caller as anonymous.
type Verifier struct {
	keyFunc jwt.Keyfunc
	methods []string
}

// NewVerifier prefers the RSA public key and falls back to the shared secret.
// It returns nil when neither is configured.
func NewVerifier(cfg config.Config) (*Verifier, error) {
	if pem := strings.TrimSpace(cfg.AuthJWTPublicKey); pem != "" {
		// env files often carry the PEM on one line with literal \n
		pem = strings.ReplaceAll(pem, `\n`, "\n")
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return nil, err
		}
		return &Verifier{
			keyFunc: func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
					return nil, errUnexpectedMethod
				}
				return key, nil
			},
			methods: []string{"RS256", "RS384", "RS512"},
		}, nil
	}
	if cfg.AuthJWTSecret != "" {
		secret := []byte(cfg.AuthJWTSecret)
		return &Verifier{
			keyFunc: func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errUnexpectedMethod
				}
				return secret, nil
			},
			methods: []string{"HS256", "HS384", "HS512"},
		}, nil
	}
	return nil, nil
}

// Viewer turns a raw token into a Viewer. Invalid tokens give an anonymous viewer.
func (v *Verifier) Viewer(tokenStr string) types.Viewer {
	if v == nil || tokenStr == "" {
		return types.Viewer{}
	}
	token, err := jwt.Parse(tokenStr, v.keyFunc, jwt.WithValidMethods(v.methods))
	if err != nil || !token.Valid {
		logging.AppLogger.Info("rejected session token", zap.Error(err))
		return types.Viewer{}
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return types.Viewer{}
	}

	sub, _ := claims["sub"].(string)
	name := sub
	for _, key := range []string{"name", "username"} {
		if s, ok := claims[key].(string); ok && s != "" {
			name = s
			break
		}
	}
	return types.Viewer{SignedIn: true, Name: name, UserID: sub}
}

// TokenFromRequest reads a bearer token, then the session cookie.
func TokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// Identity attaches the caller's Viewer to the request context. It never rejects.
func Identity(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer := v.Viewer(TokenFromRequest(r))
			next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
		})
	}
}

func WithViewer(ctx context.Context, viewer types.Viewer) context.Context {
	return context.WithValue(ctx, viewerKey, viewer)
}

// ViewerFrom returns the anonymous viewer when Identity did not run.
func ViewerFrom(ctx context.Context) types.Viewer {
	viewer, _ := ctx.Value(viewerKey).(types.Viewer)
	return viewer
}

// RequireSignIn answers 401 for anonymous callers when required is true.
func RequireSignIn(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !required {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ViewerFrom(r.Context()).SignedIn {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "sign in required"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
