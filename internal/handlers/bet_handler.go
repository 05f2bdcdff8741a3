package handlers

import (
	"net/http"

	"github.com/Jyothika2406/cricket-app/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BetHandler handles bet placement and question settlement
type BetHandler struct {
	betService        *services.BetService
	settlementService *services.SettlementService
}

func NewBetHandler(betService *services.BetService, settlementService *services.SettlementService) *BetHandler {
	return &BetHandler{
		betService:        betService,
		settlementService: settlementService,
	}
}

// PlaceBet POST /api/bets
func (h *BetHandler) PlaceBet(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.PlaceBetInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	req.UserID = userID

	bet, err := h.betService.PlaceBet(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, bet)
}

// GetUserBets GET /api/bets?status=pending
func (h *BetHandler) GetUserBets(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)

	bets, err := h.betService.GetUserBets(c.Request.Context(), userID, c.Query("status"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, bets)
}

// GetBet GET /api/bets/:id
func (h *BetHandler) GetBet(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	betID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid bet id", "code": services.KindInvalidInput})
		return
	}

	bet, err := h.betService.GetBet(c.Request.Context(), userID, betID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, bet)
}

// SettleQuestion POST /api/admin/matches/:id/questions/:qid/settle
func (h *BetHandler) SettleQuestion(c *gin.Context) {
	matchID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	questionID, ok := parseUintParam(c, "qid")
	if !ok {
		return
	}

	var req services.SettleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	req.AdminID = c.GetUint(adminIDKey)
	req.MatchID = matchID
	req.QuestionID = questionID

	report, err := h.settlementService.SettleQuestion(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, report)
}

// ResumeSettlement POST /api/admin/questions/:qid/resume-settlement
func (h *BetHandler) ResumeSettlement(c *gin.Context) {
	questionID, ok := parseUintParam(c, "qid")
	if !ok {
		return
	}

	report, err := h.settlementService.ResumeSettlement(c.Request.Context(), c.GetUint(adminIDKey), questionID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, report)
}

// GetUnfinishedSettlements GET /api/admin/settlements/unfinished
func (h *BetHandler) GetUnfinishedSettlements(c *gin.Context) {
	ids, err := h.settlementService.FindUnfinishedSettlements(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"question_ids": ids})
}
