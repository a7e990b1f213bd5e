package boxes

import (
	"net/http"

	"depot/internal/inventory"
	"depot/internal/session"

	"github.com/gin-gonic/gin"
)

type BoxHandler struct {
	Service *Service
}

func NewBoxHandler(s *Service) *BoxHandler {
	return &BoxHandler{Service: s}
}

func (h *BoxHandler) RegisterRoutes(router gin.IRoutes, write gin.HandlerFunc) {
	router.GET("/boxes", h.GetBoxes)
	router.GET("/boxes/:id", h.GetBox)
	router.POST("/boxes", write, h.CreateBox)
	router.PATCH("/boxes/:id", write, h.UpdateBox)
	router.POST("/boxes/:id/items", write, h.AddItem)
	router.PATCH("/boxes/:id/items/:item_id/restore-to-storage", write, h.RemoveItem)
}

func (h *BoxHandler) GetBoxes(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.List())
}

func (h *BoxHandler) GetBox(c *gin.Context) {
	box, err := h.Service.Get(c.Param("id"))
	if err != nil {
		inventory.RespondError(c, err, "Unable to get box")
		return
	}

	c.JSON(http.StatusOK, box)
}

func (h *BoxHandler) CreateBox(c *gin.Context) {
	var req CreateBoxRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "All fields are required", "details": err.Error()})
		return
	}

	box, err := h.Service.CreateBox(c.Request.Context(), session.FromContext(c), req)
	if err != nil {
		inventory.RespondError(c, err, "Failed to create box")
		return
	}

	c.JSON(http.StatusCreated, box)
}

func (h *BoxHandler) UpdateBox(c *gin.Context) {
	var req UpdateBoxRequest

	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URI parameters", "details": err.Error()})
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	if err := h.Service.UpdateDetails(c.Request.Context(), session.FromContext(c), req.ID, req.Recipient, req.Site); err != nil {
		inventory.RespondError(c, err, "Unable to update box")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Box updated successfully"})
}

func (h *BoxHandler) AddItem(c *gin.Context) {
	var uri BoxURI
	var req AddItemRequest

	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URI parameters", "details": err.Error()})
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	if err := h.Service.AddItem(c.Request.Context(), session.FromContext(c), uri.ID, req.ItemID, req.Quantity); err != nil {
		inventory.RespondError(c, err, "Unable to add item to box")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item added to box"})
}

func (h *BoxHandler) RemoveItem(c *gin.Context) {
	var req RemoveItemRequest

	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URI parameters", "details": err.Error()})
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	if err := h.Service.RemoveItem(c.Request.Context(), session.FromContext(c), req.BoxID, req.ItemID, req.Quantity); err != nil {
		inventory.RespondError(c, err, "Unable to restore item to storage")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item restored to storage"})
}
