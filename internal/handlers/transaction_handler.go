package handlers

import (
	"net/http"
	"strconv"

	"github.com/Jyothika2406/cricket-app/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler handles deposit and withdrawal requests and their review
type TransactionHandler struct {
	txService *services.TransactionService
	settings  *services.SettingsService
}

func NewTransactionHandler(txService *services.TransactionService, settings *services.SettingsService) *TransactionHandler {
	return &TransactionHandler{
		txService: txService,
		settings:  settings,
	}
}

// GetDepositInfo returns the UPI id users should pay into
// GET /api/user/deposit-info
func (h *TransactionHandler) GetDepositInfo(c *gin.Context) {
	upi, err := h.settings.DepositUPI(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"upi_id": upi})
}

// RequestDeposit POST /api/user/deposit
func (h *TransactionHandler) RequestDeposit(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.DepositInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	req.UserID = userID

	txn, err := h.txService.RequestDeposit(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, txn)
}

// RequestWithdrawal POST /api/user/withdraw
func (h *TransactionHandler) RequestWithdrawal(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.WithdrawalInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	req.UserID = userID

	txn, err := h.txService.RequestWithdrawal(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, txn)
}

// GetUserTransactions GET /api/user/transactions
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	limit, _ := pagination(c)

	txns, err := h.txService.GetUserTransactions(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, txns)
}

// AdminListTransactions GET /api/admin/transactions?type=withdraw&status=pending
func (h *TransactionHandler) AdminListTransactions(c *gin.Context) {
	filter := services.TransactionFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid user_id", "code": services.KindInvalidInput})
			return
		}
		filter.UserID = uint(id)
	}
	filter.Limit, _ = pagination(c)

	txns, err := h.txService.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, txns)
}

// ResolveTransaction POST /api/admin/transactions/:id/resolve
func (h *TransactionHandler) ResolveTransaction(c *gin.Context) {
	txID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid transaction id", "code": services.KindInvalidInput})
		return
	}

	var req services.ResolveInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	req.AdminID = c.GetUint(adminIDKey)
	req.TransactionID = txID

	txn, err := h.txService.ResolveTransaction(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, txn)
}
