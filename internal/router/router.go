package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/qrmuseum/museum-api/internal/handler"
	"github.com/qrmuseum/museum-api/internal/middleware"
	"github.com/qrmuseum/museum-api/internal/model"
)

// RegisterRoutes registers the health probes.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers the session endpoints under /v1/auth and the
// identity endpoint /v1/me. limit guards the credential endpoints.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)
	g.POST("/refresh", a.Refresh)               // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess) // keeps the refresh token
	// Logout accepts a refresh token in the body or a bearer header, so it
	// is not behind JWTAuth.
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleVisitor, model.RoleAdmin),
	)
}

// RegisterPublic registers the guest-facing routes. Home and the QR scan
// endpoint use OptionalJWT so that logged-in visitors get their progress
// recorded; cache is applied to the museum settings only.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	e.GET("/v1/museum", p.GetMuseum, cache)
	e.GET("/v1/home", p.Home, middleware.OptionalJWT(jwtSecret))
	e.GET("/v1/exhibits/:id", p.ScanExhibit, middleware.OptionalJWT(jwtSecret))
	e.GET("/v1/media/*", p.Media)
}

// RegisterVisitor registers endpoints for logged-in visitors. Admins may
// use them too.
func RegisterVisitor(e *echo.Echo, v *handler.VisitorHandler, jwtSecret string) {
	auth := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleVisitor, model.RoleAdmin),
	}
	e.POST("/v1/exhibits/:id/comments", v.CreateComment, auth...)

	g := e.Group("/v1/me", auth...)
	g.GET("/progress", v.Progress)
	g.PUT("/profile", v.UpdateProfile)
	g.POST("/avatar", v.UploadAvatar)
}

// RegisterAdmin registers the back office under /v1/admin. Successful
// writes purge the public response cache.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string, purge echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
		purge,
	)

	g.GET("/dashboard", a.Dashboard)
	g.GET("/stats", a.Statistics)

	// ---- Exhibits ----
	g.GET("/exhibits", a.ListExhibits)
	g.POST("/exhibits", a.CreateExhibit)
	g.GET("/exhibits/:id", a.GetExhibit)
	g.PUT("/exhibits/:id", a.UpdateExhibit)
	g.DELETE("/exhibits/:id", a.DeleteExhibit)
	g.GET("/exhibits/:id/qr", a.ExhibitQR)

	// ---- Content ----
	g.PUT("/exhibits/:id/content", a.UpsertContent)
	g.POST("/exhibits/:id/content/media/:kind", a.UploadContentMedia)

	// ---- Comments ----
	g.GET("/comments", a.ListComments)
	g.POST("/comments/:id/moderate", a.ModerateComment)

	// ---- Museum ----
	g.GET("/museum", a.GetMuseum)
	g.PUT("/museum", a.UpdateMuseum)
	g.POST("/museum/images/:kind", a.UploadMuseumImage)

	// ---- Users ----
	g.GET("/users", a.ListUsers)
	g.PATCH("/users/:id/level", a.SetUserLevel)
	g.DELETE("/users/:id", a.DeleteUser)
}
