package routes

import (
	"net/http"

	"github.com/Dosada05/bracket-engine/handlers"
	"github.com/Dosada05/bracket-engine/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

type Handlers struct {
	Bracket   *handlers.BracketHandler
	Match     *handlers.MatchHandler
	WebSocket *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, h Handlers, auth *middleware.Authenticator, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	router.Route("/api", func(r chi.Router) {
		// Публичный просмотр сетки
		r.Get("/tournaments/{tournamentID}/bracket", h.Bracket.GetBracketHandler)

		// Изменения расписания и счета только для организаторов
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.Authorize(middleware.RoleOrganizer, middleware.RoleAdmin))

			r.Post("/tournaments/{tournamentID}/schedule", h.Bracket.GenerateScheduleHandler)
			r.Delete("/tournaments/{tournamentID}/schedule", h.Bracket.DeleteScheduleHandler)
			r.Put("/matches/{matchID}/score", h.Match.SubmitScoreHandler)
		})
	})
}
