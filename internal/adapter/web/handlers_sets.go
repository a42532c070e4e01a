package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gymlog/internal/auth"
)

type createSetRequest struct {
	Reps   *int64   `json:"reps"`
	Weight *float64 `json:"weight"`
}

func (h *handlers) createSet(c *gin.Context) {
	exerciseID, ok := pathID(c, "exercise")
	if !ok {
		return
	}

	var req createSetRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Reps == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reps are required"})
		return
	}

	userID, _ := auth.UserIDFrom(c.Request.Context())
	set, err := h.Sets.Create(c.Request.Context(), userID, exerciseID, *req.Reps, req.Weight)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, set)
}

func (h *handlers) deleteSet(c *gin.Context) {
	id, ok := pathID(c, "set")
	if !ok {
		return
	}
	userID, _ := auth.UserIDFrom(c.Request.Context())
	if _, err := h.Sets.Delete(c.Request.Context(), userID, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Set deleted"})
}
