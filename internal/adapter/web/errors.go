package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gymlog/internal/shared"
)

// respondError maps a store error to an HTTP status. Client-caused kinds
// carry their message; everything else answers a generic 500 so store
// internals never leak to callers.
func (h *handlers) respondError(c *gin.Context, err error) {
	kind := shared.KindOf(err)
	switch kind {
	case shared.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": clientMessage(err, kind)})
	case shared.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": clientMessage(err, kind)})
	case shared.KindUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": clientMessage(err, kind)})
	case shared.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": clientMessage(err, kind)})
	default:
		h.Log.Error("request failed",
			slog.String("request_id", c.GetString(requestIDHeader)),
			slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// clientMessage strips the sentinel suffix added by shared.Wrap, leaving
// the human-readable context ("date is required: validation failed" ->
// "date is required").
func clientMessage(err error, kind shared.Kind) string {
	msg := err.Error()
	if sentinel := shared.SentinelOf(kind); sentinel != nil {
		msg = strings.TrimSuffix(msg, ": "+sentinel.Error())
	}
	return msg
}
