package inventory

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mabubakr1113/order-inventory/internal/api"
	"github.com/mabubakr1113/order-inventory/internal/logging"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	products, err := h.service.FindAll(c.Request.Context())
	if err != nil {
		logging.Error(c.Request.Context(), "list products failed", err)
		api.Error(c, http.StatusInternalServerError, "Could not retrieve products.")
		return
	}
	if products == nil {
		products = []Product{}
	}
	c.JSON(http.StatusOK, products)
}
