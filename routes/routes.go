package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/club-system/handlers"
	"github.com/Dosada05/club-system/middleware"
	"github.com/Dosada05/club-system/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/club-system/docs"
)

// Handlers - все HTTP-обработчики приложения.
type Handlers struct {
	Auth      *handlers.AuthHandler
	User      *handlers.UserHandler
	Event     *handlers.EventHandler
	Squad     *handlers.SquadHandler
	Statistic *handlers.StatisticHandler
	Mail      *handlers.MailHandler
	Report    *handlers.ReportHandler
	WebSocket *handlers.WebSocketHandler
}

func SetupRoutes(r *chi.Mux, auth *middleware.Authenticator, allowedOrigins []string, h Handlers) {
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	staff := middleware.RequireRoles(models.RolePresident, models.RoleCoach)
	president := middleware.RequireRoles(models.RolePresident)

	r.Route("/api", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/rejestracja", h.Auth.Register)
			r.Post("/logowanie", h.Auth.Login)
			r.With(auth.Authenticate).Get("/me", h.Auth.Me)
		})

		r.Route("/password", func(r chi.Router) {
			r.Post("/forgot-password", h.Auth.ForgotPassword)
			r.Post("/reset-password", h.Auth.ResetPassword)
			r.With(auth.Authenticate).Post("/change-password", h.Auth.ChangePassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Route("/admin/uzytkownicy", func(r chi.Router) {
				r.Get("/", h.User.ListUsers)
				r.With(president).Post("/", h.User.CreateUser)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.User.GetUser)
					r.Put("/avatar", h.User.UploadAvatar)

					r.Group(func(r chi.Router) {
						r.Use(president)
						r.Put("/", h.User.UpdateUser)
						r.Delete("/", h.User.DeleteUser)
						r.Patch("/role", h.User.ChangeRole)
						r.Patch("/category", h.User.ChangeCategory)
						r.Patch("/position", h.User.ChangePosition)
					})
				})
			})

			r.Route("/wydarzenia", func(r chi.Router) {
				r.Get("/", h.Event.ListEvents)
				r.With(staff).Post("/", h.Event.CreateEvent)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Event.GetEvent)
					r.With(middleware.RequireRoles(models.RolePlayer)).Post("/udzial", h.Event.RespondToEvent)

					r.Group(func(r chi.Router) {
						r.Use(staff)
						r.Patch("/", h.Event.UpdateEvent)
						r.Delete("/", h.Event.DeleteEvent)
						r.Get("/uczestnicy", h.Event.ListParticipants)
					})
				})
			})

			r.Route("/squads", func(r chi.Router) {
				r.Get("/", h.Squad.ListSquads)
				r.Get("/{id}", h.Squad.GetSquad)

				r.Group(func(r chi.Router) {
					r.Use(staff)
					r.Post("/", h.Squad.CreateSquad)
					r.Patch("/{id}", h.Squad.UpdateSquad)
					r.Put("/{id}", h.Squad.UpdateSquad)
					r.Delete("/{id}", h.Squad.DeleteSquad)
				})
			})

			// {id} - игрок для GET/POST и запись статистики для PATCH.
			r.Route("/statystyki", func(r chi.Router) {
				r.With(staff).Get("/", h.Statistic.ListStatistics)
				r.Get("/filters/available", h.Statistic.FilterOptions)
				r.Get("/{id}", h.Statistic.GetPlayerStatistic)

				r.Group(func(r chi.Router) {
					r.Use(staff)
					r.Post("/{id}", h.Statistic.UpsertStatistic)
					r.Patch("/{id}", h.Statistic.PatchStatistic)
				})
			})

			r.Route("/mail", func(r chi.Router) {
				r.Post("/send", h.Mail.SendMail)
				r.With(staff).Post("/send-category", h.Mail.SendCategoryMail)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Use(president)
				r.Get("/players", h.Report.PlayersReport)
				r.Get("/category/{category}", h.Report.CategoryReport)
				r.Get("/position/{position}", h.Report.PositionReport)
			})
		})
	})

	// Браузерный WebSocket не умеет заголовки, токен приходит в ?token=.
	r.With(auth.AuthenticateQuery, staff).Get("/ws/wydarzenia/{id}", h.WebSocket.ServeEventWs)
}
