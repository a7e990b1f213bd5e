package waste

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type WasteHandler struct {
	Service *Service
}

func NewWasteHandler(s *Service) *WasteHandler {
	return &WasteHandler{Service: s}
}

func (h *WasteHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/waste", h.GetWaste)
	router.GET("/waste/total", h.GetWasteTotal)
}

func (h *WasteHandler) GetWaste(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.List())
}

func (h *WasteHandler) GetWasteTotal(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"total": h.Service.Total(), "records": len(h.Service.List())})
}
