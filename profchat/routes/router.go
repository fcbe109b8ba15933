package routes

import (
	"net/http"
	"time"

	"profchat/profchat/controllers"
	"profchat/profchat/middlewares"
	"profchat/profchat/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterDeps struct {
	Chat          *controllers.ChatController
	Health        *controllers.HealthController
	Verifier      *middlewares.Verifier
	RequireSignIn bool
	Welcome       string
	// AllowedOrigins are extra websocket origin patterns besides the page's own host.
	AllowedOrigins []string
	SignInURL      string
}

// NewRouter mounts every route group behind the shared middleware stack.
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.Identity(deps.Verifier))

	// streaming routes get no deadline, the completion timeout bounds them
	r.Mount("/api/chat", ChatRoutes(deps.Chat, deps.Verifier, deps.RequireSignIn, deps.AllowedOrigins))

	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Timeout(30 * time.Second))
		gr.Mount("/health", HealthRoutes(deps.Health))
		gr.Mount("/api/me", IdentityRoutes())
		gr.Get("/api/signout", SignOut)
		gr.Get("/", UIHandler(web.Page{
			Welcome:       deps.Welcome,
			RequireSignIn: deps.RequireSignIn,
			SignInURL:     deps.SignInURL,
		}))
	})
	return r
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
