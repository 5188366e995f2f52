package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ratacueva-backend/internal/models"
	"ratacueva-backend/internal/services"
)

// UserHandler exposes profile, address book and payment method endpoints
type UserHandler struct {
	users  *services.UserService
	auth   *services.AuthService
	logger *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService, auth *services.AuthService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, auth: auth, logger: logger}
}

// GetProfile handles GET /api/users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.users.GetUserByID(currentUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var update models.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequestBody(c, err)
		return
	}

	user, err := h.users.UpdateProfile(currentUserID(c), &update)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

// DeleteAccount handles DELETE /api/users/me
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	if err := h.users.DeleteAccount(currentUserID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Cuenta eliminada correctamente.")
}

// ChangePassword handles PUT /api/users/me/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var change models.PasswordChange
	if err := c.ShouldBindJSON(&change); err != nil {
		badRequestBody(c, err)
		return
	}

	if err := h.auth.ChangePassword(currentUserID(c), &change); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Contraseña actualizada correctamente.")
}

// AddAddress handles POST /api/users/me/addresses
func (h *UserHandler) AddAddress(c *gin.Context) {
	var input models.AddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestBody(c, err)
		return
	}

	address, err := h.users.AddAddress(currentUserID(c), &input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, address)
}

// UpdateAddress handles PUT /api/users/me/addresses/:addressId
func (h *UserHandler) UpdateAddress(c *gin.Context) {
	var input models.AddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestBody(c, err)
		return
	}

	address, err := h.users.UpdateAddress(currentUserID(c), c.Param("addressId"), &input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, address)
}

// DeleteAddress handles DELETE /api/users/me/addresses/:addressId
func (h *UserHandler) DeleteAddress(c *gin.Context) {
	if err := h.users.DeleteAddress(currentUserID(c), c.Param("addressId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Dirección eliminada correctamente.")
}

// AddPaymentMethod handles POST /api/users/me/payment-methods
func (h *UserHandler) AddPaymentMethod(c *gin.Context) {
	var input models.PaymentMethodInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestBody(c, err)
		return
	}

	method, err := h.users.AddPaymentMethod(currentUserID(c), &input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, method)
}

// UpdatePaymentMethod handles PUT /api/users/me/payment-methods/:methodId
func (h *UserHandler) UpdatePaymentMethod(c *gin.Context) {
	var input models.PaymentMethodInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestBody(c, err)
		return
	}

	method, err := h.users.UpdatePaymentMethod(currentUserID(c), c.Param("methodId"), &input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, method)
}

// DeletePaymentMethod handles DELETE /api/users/me/payment-methods/:methodId
func (h *UserHandler) DeletePaymentMethod(c *gin.Context) {
	if err := h.users.DeletePaymentMethod(currentUserID(c), c.Param("methodId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Método de pago eliminado correctamente.")
}
