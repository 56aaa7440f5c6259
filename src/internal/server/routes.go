package server

import (
	"github.com/casapps/cascontacts/src/internal/api/handlers"
	echoMiddleware "github.com/casapps/cascontacts/src/internal/api/middleware"
	"github.com/casapps/cascontacts/src/internal/auth"
	"github.com/casapps/cascontacts/src/internal/locale"
)

// setupRoutes configures all application routes
func (s *Server) setupRoutes() {
	authMiddleware := auth.NewMiddleware(s.auth, s.users)
	rateLimit := echoMiddleware.RateLimit(s.config, s.rateLimiter)

	healthHandler := handlers.NewHealthHandler(s.db, s.cache, s.version)
	authHandler := handlers.NewAuthHandler(s.users, s.auth)
	userHandler := handlers.NewUserHandler(s.users)
	tagHandler := handlers.NewTagHandler(s.tags, s.config)
	contactHandler := handlers.NewContactHandler(s.contacts)

	// Health check
	s.echo.GET("/health", healthHandler.Health)

	// Authentication routes
	s.echo.POST("/api/auth/login", authHandler.Login, rateLimit)

	// Authenticated API: auth first so locale and rate limits see the user
	api := s.echo.Group("/api",
		authMiddleware.Auth(),
		locale.Middleware(s.config.GetString("app.locale"), auth.UserLocale),
		rateLimit,
	)

	api.GET("/me", userHandler.Me)
	api.PUT("/me/locale", userHandler.UpdateLocale)

	tags := api.Group("/tags")
	tags.GET("", tagHandler.List)
	tags.POST("", tagHandler.Create)
	tags.GET("/:id", tagHandler.Get)
	tags.PUT("/:id", tagHandler.Update)
	tags.PATCH("/:id", tagHandler.Update)
	tags.DELETE("/:id", tagHandler.Delete)
	tags.GET("/:id/contacts", tagHandler.Contacts)

	contacts := api.Group("/contacts")
	contacts.POST("", contactHandler.Create)
	contacts.GET("/:id", contactHandler.Get)
	contacts.POST("/:id/setTags", contactHandler.SetTags)
	contacts.POST("/:id/unsetTags", contactHandler.UnsetTags)
	contacts.POST("/:id/unsetTag", contactHandler.UnsetTag)
}
