package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/centa/return-tracker/internal/config"
	"github.com/centa/return-tracker/internal/handler"
	"github.com/centa/return-tracker/internal/middleware"
)

// RegisterRoutes registers the routes that require no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication surface.  Login sits behind the
// Redis token bucket so password guessing is throttled per client; the rest
// of the group stays unthrottled.  Activation is public: the invitee has no
// session yet, the invite token is the credential.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, rdb *redis.Client) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	g.POST("/activate", a.Activate)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.PUT("/me/notifications", a.SetNotifyPref)
}
