package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mtgstrategist/ui/internal/handler/chat"
	middlewarePkg "github.com/mtgstrategist/ui/internal/middleware"
	chatService "github.com/mtgstrategist/ui/internal/service/chat"
	"github.com/mtgstrategist/ui/internal/web"
	"github.com/mtgstrategist/ui/pkg/utils"
)

// NewRouter wires the chat view and the proxy routes.
func NewRouter(chatSvc *chatService.Service, allowedOrigin string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigin))

	chatHandler := chat.New(chatSvc, logger)
	webHandler := web.New()

	webHandler.RegisterRoutes(r)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
	})

	return r
}
