package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/tasktrail/api/handler"
)

type Handlers struct {
	Task    *apiHandler.TaskHandler
	Profile *apiHandler.ProfileHandler
	Health  *apiHandler.HealthHandler
}

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// New registers every route. auth guards all but /health.
func New(handlers Handlers, auth Middleware) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	r.GET("/tasks", auth(handlers.Task.List))
	r.POST("/tasks", auth(handlers.Task.Create))
	r.GET("/tasks/{id}", auth(handlers.Task.Get))
	r.PUT("/tasks/{id}", auth(handlers.Task.Update))
	r.DELETE("/tasks/{id}", auth(handlers.Task.Delete))
	r.PATCH("/tasks/{id}/status", auth(handlers.Task.UpdateStatus))
	r.GET("/tasks/{id}/activity", auth(handlers.Task.Activity))

	r.GET("/users", auth(handlers.Profile.List))
	r.POST("/users/me", auth(handlers.Profile.SignIn))
	r.PUT("/users/me", auth(handlers.Profile.UpdateMe))
	r.GET("/users/{uid}", auth(handlers.Profile.Get))
	r.GET("/users/{uid}/stats", auth(handlers.Profile.Stats))

	return r
}
