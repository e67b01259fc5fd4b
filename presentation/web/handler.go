// Package web serves the screens and a small JSON API over gin.
package web

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-user-cache/mapper"
	"github.com/goliatone/go-user-cache/presentation/navigation"
	"github.com/goliatone/go-user-cache/presentation/viewmodel"
	"github.com/goliatone/go-user-cache/remote"
	"github.com/goliatone/go-user-cache/user"
)

// UserState is the view-model the home screens render.
type UserState interface {
	Load(ctx context.Context, id string)
	Current() viewmodel.State
}

// UserGetter serves the JSON API.
type UserGetter interface {
	Execute(ctx context.Context, id string) (user.User, error)
}

// Pinger reports whether the local store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

var routePaths = map[navigation.Route]string{
	navigation.RouteLogin:    "/auth/login",
	navigation.RouteRegister: "/auth/register",
	navigation.RouteHome:     "/home",
	navigation.RouteProfile:  "/home/profile",
}

// Handler wires HTTP routes to the view-model, router and use case.
type Handler struct {
	screens context.Context
	state   UserState
	router  *navigation.Router
	users   UserGetter
	health  Pinger
	logger  logrus.FieldLogger
}

// NewHandler creates a Handler. screens bounds loads started from the home
// screen; it outlives any single request.
func NewHandler(screens context.Context, state UserState, router *navigation.Router, users UserGetter, health Pinger, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	return &Handler{
		screens: screens,
		state:   state,
		router:  router,
		users:   users,
		health:  health,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.index)
	router.GET("/healthz", h.healthz)

	auth := router.Group("/auth")
	{
		auth.GET("/login", h.screen(navigation.RouteLogin, "login.tmpl", "Login"))
		auth.GET("/register", h.screen(navigation.RouteRegister, "register.tmpl", "Register"))
		auth.POST("/continue", h.continueHome)
	}

	home := router.Group("/home")
	{
		home.GET("", h.screen(navigation.RouteHome, "home.tmpl", "Home"))
		home.GET("/profile", h.screen(navigation.RouteProfile, "profile.tmpl", "Profile"))
		home.POST("/load", h.loadUser)
	}

	api := router.Group("/api")
	{
		api.GET("/users/:id", h.getUser)
	}
}

type screenData struct {
	Title   string
	Graph   string
	User    *user.User
	Error   string
	Loading bool
}

func (h *Handler) index(c *gin.Context) {
	c.Redirect(http.StatusFound, routePaths[h.router.Graph().Start])
}

func (h *Handler) screen(route navigation.Route, tmpl, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.router.Navigate(route); err != nil {
			c.Redirect(http.StatusFound, routePaths[h.router.Graph().Start])
			return
		}

		state := h.state.Current()
		data := screenData{
			Title:   title,
			Graph:   h.router.Graph().Name,
			User:    state.User,
			Loading: state.Loading,
		}
		if state.Err != nil {
			data.Error = state.Err.Error()
		}
		c.HTML(http.StatusOK, tmpl, data)
	}
}

func (h *Handler) continueHome(c *gin.Context) {
	h.router.Select(navigation.HomeGraph)
	c.Redirect(http.StatusSeeOther, routePaths[navigation.HomeGraph.Start])
}

func (h *Handler) loadUser(c *gin.Context) {
	if h.router.Graph().Name != navigation.HomeGraph.Name {
		c.Redirect(http.StatusSeeOther, routePaths[h.router.Graph().Start])
		return
	}
	h.state.Load(h.screens, c.PostForm("id"))
	c.Redirect(http.StatusSeeOther, routePaths[navigation.RouteHome])
}

func (h *Handler) getUser(c *gin.Context) {
	u, err := h.users.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			requestLogger(c, h.logger).WithError(err).Error("get user failed")
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, mapper.ToDTO(u))
}

func (h *Handler) healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func statusFor(err error) int {
	var (
		statusErr *remote.StatusError
		respErr   *remote.ResponseError
	)
	switch {
	case errors.Is(err, user.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &statusErr), errors.As(err, &respErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
