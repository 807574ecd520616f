package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/apperr"
	"storefront/internal/auth/credentials"
	"storefront/internal/logger"
)

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	const op = "auth.Login"

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.InvalidInput(op, "invalid request"))
		return
	}

	customerID, err := h.credentials.Authenticate(
		c.Request.Context(),
		req.Login,
		req.Password,
	)
	if errors.Is(err, credentials.ErrInvalidCredentials) {
		writeError(c, apperr.New(op, apperr.KindUnauthorized, "invalid credentials"))
		return
	}
	if err != nil {
		writeError(c, apperr.StoreFailure(op, err))
		return
	}

	if err := h.startSession(c, customerID); err != nil {
		writeError(c, apperr.StoreFailure(op, err))
		return
	}

	logger.Info("login success", map[string]any{
		"method":      "password",
		"customer_id": customerID,
		"ip":          c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{"status": "logged_in"})
}
