// Package web is the HTTP JSON adapter over the training-log stores.
package web

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gymlog/internal/auth"
	"gymlog/internal/event"
	"gymlog/internal/storage"
)

// Deps carries everything the router needs.
type Deps struct {
	Log       *slog.Logger
	Users     *storage.Users
	Sessions  *storage.Sessions
	Exercises *storage.Exercises
	Sets      *storage.Sets
	Hasher    auth.Hasher
	Tokens    *auth.Tokens
	Events    event.Sink
	// Ready reports whether migrations and seeding have completed.
	Ready func() bool
}

type handlers struct {
	Deps
}

// NewRouter builds the gin engine with all routes attached.
func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Events == nil {
		d.Events = event.Discard
	}
	h := &handlers{Deps: d}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(d.Log))

	r.GET("/ready", h.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/register", h.register)
	api.POST("/login", h.login)

	authed := api.Group("", auth.Middleware(d.Tokens))
	authed.POST("/logout", h.logout)
	authed.PUT("/user/password", h.changePassword)
	authed.DELETE("/user", h.deleteUser)

	authed.GET("/sessions", h.listSessions)
	authed.POST("/sessions", h.createSession)
	authed.GET("/sessions/:id", h.sessionDetail)
	authed.DELETE("/sessions/:id", h.deleteSession)
	authed.POST("/sessions/:id/close", h.closeSession)

	authed.POST("/sessions/:id/exercises", h.createExercise)
	authed.DELETE("/exercises/:id", h.deleteExercise)

	authed.POST("/exercises/:id/sets", h.createSet)
	authed.DELETE("/sets/:id", h.deleteSet)

	return r
}

func (h *handlers) ready(c *gin.Context) {
	if h.Ready != nil && !h.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
