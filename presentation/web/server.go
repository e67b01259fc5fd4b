package web

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewEngine builds a gin engine with recovery, request logging, the screen
// templates and every route of h.
func NewEngine(h *Handler, logger logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	router.SetHTMLTemplate(loadTemplates())
	h.RegisterRoutes(router)
	return router
}
