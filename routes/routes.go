package routes

import (
	"net/http"

	"github.com/Dosada05/walker-tournament/handlers"
	"github.com/Dosada05/walker-tournament/middleware"
	"github.com/Dosada05/walker-tournament/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/walker-tournament/docs"
)

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
}

func SetupRoutes(
	opts Options,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	allowedOrigins := opts.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", handlers.Health)
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	organizerOnly := func(r chi.Router) {
		r.Use(middleware.Authenticate(opts.JWTSecret))
		r.Use(middleware.RequireRole(models.RoleOrganizer))
	}

	router.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Route("/tournaments", func(r chi.Router) {
			// Публичные маршруты
			r.Get("/", tournamentHandler.ListHandler)
			r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)
			r.Post("/{tournamentID}/join", tournamentHandler.JoinHandler)

			// Только для организаторов
			r.Group(func(r chi.Router) {
				organizerOnly(r)

				r.Post("/", tournamentHandler.CreateHandler)
				r.Post("/{tournamentID}/open", tournamentHandler.OpenHandler)
				r.Post("/{tournamentID}/extend", tournamentHandler.ExtendDeadlineHandler)
				r.Post("/{tournamentID}/lock", tournamentHandler.LockHandler)
				r.Post("/{tournamentID}/draw", tournamentHandler.DrawHandler)
				r.Delete("/{tournamentID}/members/{walkerID}", tournamentHandler.RemoveMemberHandler)
				r.Post("/{tournamentID}/image", tournamentHandler.UploadImageHandler)
			})
		})

		r.Route("/matches", func(r chi.Router) {
			organizerOnly(r)
			r.Post("/{matchID}/winner", matchHandler.SetWinnerHandler)
		})
	})

	return router
}
