package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/marvelous/backend/internal/handler/character"
	"github.com/zhouzirui/marvelous/backend/internal/handler/feed"
	middlewarePkg "github.com/zhouzirui/marvelous/backend/internal/middleware"
	"github.com/zhouzirui/marvelous/backend/internal/web"
	"github.com/zhouzirui/marvelous/backend/pkg/utils"
)

// Options toggles the optional surfaces of the router.
type Options struct {
	UIEnabled  bool
	CORSOrigin string
}

// NewRouter wires HTTP routes to core services. A nil events subscriber
// leaves the change feed unmounted.
func NewRouter(characters character.CharacterService, events feed.Subscriber, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.NewCORS(opts.CORSOrigin))

	characterHandler := character.New(characters)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/characters", func(cr chi.Router) {
			// Static /events wins over /{id} in chi's tree.
			if events != nil {
				feed.New(events).RegisterRoutes(cr)
			}
			characterHandler.RegisterRoutes(cr)
		})

		api.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondError(w, http.StatusNotFound, "not found")
		})
	})

	if opts.UIEnabled {
		r.Handle("/*", web.Handler())
	}

	return r
}
