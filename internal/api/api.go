// Package api exposes task lists over HTTP.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seb7887/listkit/ginsrv"
	"github.com/seb7887/listkit/internal/app"
	"github.com/seb7887/listkit/internal/task"
	"github.com/seb7887/listkit/ordering"
	"github.com/seb7887/listkit/sietch"
)

type handler struct {
	app *app.App
}

type addRequest struct {
	Title string `json:"title" binding:"required"`
}

type listResponse struct {
	List  string      `json:"list"`
	Tasks []task.Task `json:"tasks"`
}

// NewRouter serves a on the routes below plus /metrics.
//
//	GET    /health
//	GET    /lists/:list
//	POST   /lists/:list/items
//	GET    /lists/:list/verify
//	POST   /items/:id/move/:direction
//	DELETE /items/:id
func NewRouter(a *app.App, logger *slog.Logger) *gin.Engine {
	h := &handler{app: a}
	metrics := promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})

	routes := []ginsrv.Route{
		{Method: http.MethodGet, Path: "/health", Handler: h.health},
		{Method: http.MethodGet, Path: "/metrics", Handler: gin.WrapH(metrics)},
		{Method: http.MethodGet, Path: "/lists/:list", Handler: h.list},
		{Method: http.MethodPost, Path: "/lists/:list/items", Handler: h.add},
		{Method: http.MethodGet, Path: "/lists/:list/verify", Handler: h.verify},
		{Method: http.MethodPost, Path: "/items/:id/move/:direction", Handler: h.move},
		{Method: http.MethodDelete, Path: "/items/:id", Handler: h.remove},
	}

	return ginsrv.SetupRouter(routes,
		ginsrv.LoggerMiddleware(logger),
		ginsrv.RecoveryMiddleware(logger),
		ginsrv.ErrorFormatterMiddleware(),
	)
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"health": "ok"})
}

func (h *handler) list(c *gin.Context) {
	listID := c.Param("list")
	tasks, err := h.app.Tasks(c.Request.Context(), listID)
	if err != nil {
		fail(c, err)
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	c.JSON(http.StatusOK, listResponse{List: listID, Tasks: tasks})
}

func (h *handler) add(c *gin.Context) {
	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		c.Status(http.StatusBadRequest)
		return
	}
	t, err := h.app.Add(c.Request.Context(), c.Param("list"), req.Title)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *handler) verify(c *gin.Context) {
	if err := h.app.Verify(c.Request.Context(), c.Param("list")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": c.Param("list"), "contiguous": true})
}

func (h *handler) move(c *gin.Context) {
	dir, err := app.ParseDirection(c.Param("direction"))
	if err != nil {
		fail(c, err)
		return
	}
	t, err := h.app.Move(c.Request.Context(), c.Param("id"), dir)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *handler) remove(c *gin.Context) {
	if err := h.app.Remove(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// fail maps err to a status and leaves the body to ErrorFormatterMiddleware.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Status(statusOf(err))
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, sietch.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrUnknownDirection), errors.Is(err, app.ErrEmptyTitle):
		return http.StatusBadRequest
	case errors.Is(err, ordering.ErrDuplicatePosition), errors.Is(err, ordering.ErrNotContiguous):
		return http.StatusConflict
	case sietch.IsSerializationFailure(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
