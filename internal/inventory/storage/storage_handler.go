package storage

import (
	"net/http"

	"depot/internal/inventory"
	"depot/internal/session"

	"github.com/gin-gonic/gin"
)

type StorageHandler struct {
	Service *Service
}

func NewStorageHandler(s *Service) *StorageHandler {
	return &StorageHandler{Service: s}
}

func (h *StorageHandler) RegisterRoutes(router gin.IRoutes, write gin.HandlerFunc) {
	router.GET("/storage", h.GetStorage)
	router.POST("/storage", write, h.AddEquipment)
	router.PATCH("/storage/:id/quantity", write, h.AdjustQuantity)
	router.POST("/storage/:id/waste", write, h.MoveToWaste)
}

func (h *StorageHandler) GetStorage(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.List())
}

func (h *StorageHandler) AddEquipment(c *gin.Context) {
	var req AddEquipmentRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Equipment id and name are required", "details": err.Error()})
		return
	}

	equipment, err := h.Service.AddEquipment(c.Request.Context(), session.FromContext(c), req)
	if err != nil {
		inventory.RespondError(c, err, "Failed to add equipment")
		return
	}

	c.JSON(http.StatusCreated, equipment)
}

func (h *StorageHandler) AdjustQuantity(c *gin.Context) {
	var req AdjustQuantityRequest

	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URI parameters", "details": err.Error()})
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	qty, err := h.Service.AdjustQuantity(c.Request.Context(), session.FromContext(c), req.ID, req.Delta)
	if err != nil {
		inventory.RespondError(c, err, "Unable to update quantity")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": req.ID, "qty": qty})
}

func (h *StorageHandler) MoveToWaste(c *gin.Context) {
	var req MoveToWasteRequest

	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URI parameters", "details": err.Error()})
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	waste, err := h.Service.MoveToWaste(c.Request.Context(), session.FromContext(c), req.ID, req.Quantity)
	if err != nil {
		inventory.RespondError(c, err, "Unable to move equipment to waste")
		return
	}

	c.JSON(http.StatusOK, waste)
}
