package changelog

import (
	"net/http"
	"strconv"

	"depot/internal/inventory"
	"depot/internal/session"

	"github.com/gin-gonic/gin"
)

type NoteRequest struct {
	Action string `json:"action" binding:"required"`
}

type ChangelogHandler struct {
	Service *Service
}

func NewChangelogHandler(s *Service) *ChangelogHandler {
	return &ChangelogHandler{Service: s}
}

func (h *ChangelogHandler) RegisterRoutes(router gin.IRoutes, write gin.HandlerFunc) {
	router.GET("/logs", h.GetLogs)
	router.POST("/logs", write, h.AddNote)
}

func (h *ChangelogHandler) GetLogs(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit", "details": raw})
			return
		}
		limit = parsed
	}

	c.JSON(http.StatusOK, h.Service.List(limit))
}

func (h *ChangelogHandler) AddNote(c *gin.Context) {
	var req NoteRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Action is required", "details": err.Error()})
		return
	}

	if err := h.Service.Note(c.Request.Context(), session.FromContext(c), req.Action); err != nil {
		inventory.RespondError(c, err, "Unable to add log entry")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Log entry added"})
}
