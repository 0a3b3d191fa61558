package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thotadurga2464/flight-booking/internal/domain"
)

type AddOnLister interface {
	List() []domain.AddOn
}

type AddOnHandler struct {
	catalog AddOnLister
}

func NewAddOnHandler(catalog AddOnLister) *AddOnHandler {
	return &AddOnHandler{catalog: catalog}
}

func (h *AddOnHandler) Register(router *gin.RouterGroup) {
	router.GET("/addons", h.list)
}

func (h *AddOnHandler) list(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.List())
}
