package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/filmfest/catalogue-api/internal/handler"
)

// Register wires every route onto the provided Echo instance. Routing
// carries no authentication concerns: each handler runs its own pipeline,
// so the same route works for guests and authenticated callers alike.
//
// The optional cache middleware is applied only to the public film read
// endpoints, where responses are shared between callers. User and image
// responses vary with the caller or carry binary bodies, so they bypass
// the cache.
func Register(e *echo.Echo, u *handler.UserHandler, f *handler.FilmHandler, r *handler.ReviewHandler, cache echo.MiddlewareFunc) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	users := e.Group("/v1/users")
	users.POST("/register", u.Register)
	users.POST("/login", u.Login)
	users.POST("/logout", u.Logout)
	users.GET("/:id", u.View)
	users.PATCH("/:id", u.Update)
	users.GET("/:id/image", u.GetImage)
	users.PUT("/:id/image", u.SetImage)
	users.DELETE("/:id/image", u.DeleteImage)

	films := e.Group("/v1/films")
	// Echo matches static segments ahead of :id, so /v1/films/genres is
	// never mistaken for a film id.
	films.GET("/genres", f.ListGenres, cache)
	films.GET("", f.Search, cache)
	films.POST("", f.Create)
	films.GET("/:id", f.GetOne, cache)
	films.PATCH("/:id", f.Edit)
	films.DELETE("/:id", f.Delete)
	films.GET("/:id/reviews", r.List, cache)
	films.POST("/:id/reviews", r.Add)
	films.GET("/:id/image", f.GetImage)
	films.PUT("/:id/image", f.SetImage)
}
