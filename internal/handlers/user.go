package handlers

import (
	"github.com/Jyothika2406/cricket-app/internal/models"
	"github.com/Jyothika2406/cricket-app/internal/services"

	"github.com/gin-gonic/gin"
)

// UserHandler handles user-related endpoints
type UserHandler struct {
	userService *services.UserService
	kycService  *services.KYCService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *services.UserService, kycService *services.KYCService) *UserHandler {
	return &UserHandler{
		userService: userService,
		kycService:  kycService,
	}
}

// GetProfile returns the current user's profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

// GetWallet returns the balance and lifetime totals
func (h *UserHandler) GetWallet(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	wallet, err := h.userService.GetWallet(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, wallet)
}

// GetLedger returns the wallet movement history
func (h *UserHandler) GetLedger(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)

	entries, err := h.userService.GetLedger(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, entries)
}

// SubmitKYC stores identity details for review
func (h *UserHandler) SubmitKYC(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.KYCInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.kycService.Submit(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, kycView(user))
}

// GetKYC returns the current KYC state
func (h *UserHandler) GetKYC(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	user, err := h.kycService.GetStatus(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, kycView(user))
}

func kycView(user *models.User) gin.H {
	return gin.H{
		"kyc_status":          user.KYCStatus,
		"kyc_data":            user.KYC,
		"withdrawal_eligible": services.IsWithdrawalEligible(user),
	}
}
