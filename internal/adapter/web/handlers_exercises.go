package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gymlog/internal/auth"
)

type createExerciseRequest struct {
	Name string `json:"name"`
}

func (h *handlers) createExercise(c *gin.Context) {
	sessionID, ok := pathID(c, "session")
	if !ok {
		return
	}

	var req createExerciseRequest
	// A missing or blank name answers 405, kept for compatibility with the
	// API this replaces.
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Exercise name is required"})
		return
	}

	userID, _ := auth.UserIDFrom(c.Request.Context())
	ex, err := h.Exercises.Create(c.Request.Context(), userID, sessionID, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ex)
}

func (h *handlers) deleteExercise(c *gin.Context) {
	id, ok := pathID(c, "exercise")
	if !ok {
		return
	}
	userID, _ := auth.UserIDFrom(c.Request.Context())
	if _, err := h.Exercises.Delete(c.Request.Context(), userID, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Exercise deleted"})
}
