package order

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

func (h *Handler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Error(c, http.StatusBadRequest, "request body must be valid JSON")
		return
	}
	if verr := ValidateCreateOrder(req); verr != nil {
		api.Error(c, http.StatusBadRequest, verr.Messages...)
		return
	}

	o, err := h.service.Create(c.Request.Context(), req.ProductID, req.Quantity)
	if err != nil {
		// Persistence detail stays in the logs; the caller gets an
		// opaque internal error.
		api.Error(c, http.StatusInternalServerError, "Could not create order.")
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *Handler) List(c *gin.Context) {
	orders, err := h.service.FindAll(c.Request.Context())
	if err != nil {
		logging.Error(c.Request.Context(), "list orders failed", err)
		api.Error(c, http.StatusInternalServerError, "Could not retrieve orders.")
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	c.JSON(http.StatusOK, orders)
}
