package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/apperr"
	"storefront/internal/auth/credentials"
)

type registerRequest struct {
	Name     string `json:"name"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	const op = "auth.Register"

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.InvalidInput(op, "invalid request"))
		return
	}

	customerID, err := h.credentials.Register(
		c.Request.Context(),
		req.Name,
		req.Login,
		req.Password,
	)
	switch {
	case errors.Is(err, credentials.ErrAlreadyRegistered):
		writeError(c, apperr.New(op, apperr.KindConflict, "account already exists"))
		return
	case errors.Is(err, credentials.ErrPasswordTooShort),
		errors.Is(err, credentials.ErrMissingFields):
		writeError(c, apperr.InvalidInput(op, err.Error()))
		return
	case err != nil:
		writeError(c, apperr.StoreFailure(op, err))
		return
	}

	if err := h.startSession(c, customerID); err != nil {
		writeError(c, apperr.StoreFailure(op, err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "registered", "customerId": customerID})
}
