package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gymlog/internal/auth"
	"gymlog/internal/event"
	"gymlog/internal/shared"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *handlers) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	digest, err := h.Hasher.Hash(req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	user, err := h.Users.Create(c.Request.Context(), req.Username, digest)
	if shared.IsConflict(err) {
		// Registration answers 400 for a taken name, not 409.
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.Username})
}

func (h *handlers) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	user, err := h.Users.ByUsername(c.Request.Context(), req.Username)
	if shared.IsNotFound(err) || (err == nil && !h.Hasher.Verify(req.Password, user.Password)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := h.Tokens.Sign(user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.setAuthCookie(c, token, int(h.Tokens.TTL().Seconds()))

	h.Events.Emit(event.Event{Name: event.UserLogin, UserID: user.ID})
	c.JSON(http.StatusOK, gin.H{"id": user.ID, "username": user.Username})
}

func (h *handlers) logout(c *gin.Context) {
	userID, _ := auth.UserIDFrom(c.Request.Context())
	h.setAuthCookie(c, "", -1)
	h.Events.Emit(event.Event{Name: event.UserLogout, UserID: userID})
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *handlers) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OldPassword == "" || req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Old and new passwords are required"})
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match"})
		return
	}

	userID, _ := auth.UserIDFrom(c.Request.Context())
	user, err := h.Users.ByID(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !h.Hasher.Verify(req.OldPassword, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	digest, err := h.Hasher.Hash(req.NewPassword)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.Users.UpdatePassword(c.Request.Context(), userID, digest); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

func (h *handlers) deleteUser(c *gin.Context) {
	userID, _ := auth.UserIDFrom(c.Request.Context())
	if err := h.Users.Delete(c.Request.Context(), userID); err != nil {
		h.respondError(c, err)
		return
	}
	h.setAuthCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

func (h *handlers) setAuthCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, maxAge, "/", "", false, true)
}
