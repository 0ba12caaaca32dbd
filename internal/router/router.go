package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/algobasket/hissabbook-api-system/internal/handler"
)

func SetupRoutes(
	r chi.Router,
	h *handler.AuthHandler,
	wsHandler *handler.WSHandler,
	auth *handler.AuthMiddleware,
	corsOrigins []string,
) chi.Router {
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)

	r.Route("/auth", func(api chi.Router) {
		// ---------------- Public ----------------
		api.Group(func(pub chi.Router) {
			pub.Post("/otp/request", h.HandleRequestPhoneOTP)
			pub.Post("/otp/email/request", h.HandleRequestEmailOTP)
			pub.Post("/otp/verify", h.HandleVerifyOTP)
			pub.Post("/otp/login", h.HandleOTPLogin)

			pub.Post("/register", h.HandleRegister)
			pub.Post("/login", h.HandleLoginWithPassword)
		})

		// ---------------- Authenticated ----------------
		api.Group(func(g chi.Router) {
			g.Use(auth.Require)
			g.Get("/events/ws", wsHandler.HandleWS)
		})
	})

	r.Route("/user", func(api chi.Router) {
		api.Use(auth.Require)
		api.Get("/profile", h.HandleProfile)
		api.Put("/profile", h.HandleUpdateProfile)
	})

	return r
}
