package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gymlog/internal/auth"
)

// pathID parses the :id route parameter. Non-numeric or non-positive ids
// answer 400 and abort the handler.
func pathID(c *gin.Context, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " id"})
		return 0, false
	}
	return id, true
}

func (h *handlers) listSessions(c *gin.Context) {
	userID, _ := auth.UserIDFrom(c.Request.Context())
	sessions, err := h.Sessions.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

type createSessionRequest struct {
	Date string `json:"date"`
}

func (h *handlers) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date is required"})
		return
	}

	userID, _ := auth.UserIDFrom(c.Request.Context())
	sess, err := h.Sessions.Create(c.Request.Context(), userID, req.Date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *handlers) sessionDetail(c *gin.Context) {
	id, ok := pathID(c, "session")
	if !ok {
		return
	}
	userID, _ := auth.UserIDFrom(c.Request.Context())
	detail, err := h.Sessions.Detail(c.Request.Context(), userID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *handlers) closeSession(c *gin.Context) {
	id, ok := pathID(c, "session")
	if !ok {
		return
	}
	userID, _ := auth.UserIDFrom(c.Request.Context())
	sess, err := h.Sessions.Close(c.Request.Context(), userID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *handlers) deleteSession(c *gin.Context) {
	id, ok := pathID(c, "session")
	if !ok {
		return
	}
	userID, _ := auth.UserIDFrom(c.Request.Context())
	if _, err := h.Sessions.Delete(c.Request.Context(), userID, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}
