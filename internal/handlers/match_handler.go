package handlers

import (
	"github.com/Jyothika2406/cricket-app/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// MatchHandler serves the public match listing and the admin market endpoints
type MatchHandler struct {
	marketService *services.MarketService
}

func NewMatchHandler(marketService *services.MarketService) *MatchHandler {
	return &MatchHandler{marketService: marketService}
}

// GetMatches lists matches that are not completed
// GET /api/matches
func (h *MatchHandler) GetMatches(c *gin.Context) {
	matches, err := h.marketService.ListMatches(c.Request.Context(), false)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, matches)
}

// GetMatch returns one match with its questions
// GET /api/matches/:id
func (h *MatchHandler) GetMatch(c *gin.Context) {
	matchID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	match, err := h.marketService.GetMatch(c.Request.Context(), matchID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, match)
}

// AdminGetMatches lists every match including completed ones
// GET /api/admin/matches
func (h *MatchHandler) AdminGetMatches(c *gin.Context) {
	matches, err := h.marketService.ListMatches(c.Request.Context(), true)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, matches)
}

// CreateMatch POST /api/admin/matches
func (h *MatchHandler) CreateMatch(c *gin.Context) {
	var req services.MatchInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	match, err := h.marketService.CreateMatch(c.Request.Context(), c.GetUint(adminIDKey), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, match)
}

// UpdateMatch PUT /api/admin/matches/:id
func (h *MatchHandler) UpdateMatch(c *gin.Context) {
	matchID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req services.MatchUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	match, err := h.marketService.UpdateMatch(c.Request.Context(), c.GetUint(adminIDKey), matchID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, match)
}

// DeleteMatch DELETE /api/admin/matches/:id
func (h *MatchHandler) DeleteMatch(c *gin.Context) {
	matchID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := h.marketService.DeleteMatch(c.Request.Context(), c.GetUint(adminIDKey), matchID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"id": matchID})
}

// CompleteMatch POST /api/admin/matches/:id/complete
func (h *MatchHandler) CompleteMatch(c *gin.Context) {
	matchID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	match, err := h.marketService.CompleteMatch(c.Request.Context(), c.GetUint(adminIDKey), matchID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, match)
}

// AddQuestion POST /api/admin/matches/:id/questions
func (h *MatchHandler) AddQuestion(c *gin.Context) {
	matchID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req services.QuestionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	question, err := h.marketService.AddQuestion(c.Request.Context(), c.GetUint(adminIDKey), matchID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, question)
}

// CloseQuestion POST /api/admin/matches/:id/questions/:qid/close
func (h *MatchHandler) CloseQuestion(c *gin.Context) {
	matchID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	questionID, ok := parseUintParam(c, "qid")
	if !ok {
		return
	}

	if err := h.marketService.CloseQuestion(c.Request.Context(), c.GetUint(adminIDKey), matchID, questionID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"question_id": questionID, "status": "closed"})
}

// UpdateOdds PUT /api/admin/matches/:id/questions/:qid/options/:oid
func (h *MatchHandler) UpdateOdds(c *gin.Context) {
	matchID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	questionID, ok := parseUintParam(c, "qid")
	if !ok {
		return
	}
	optionID, ok := parseUintParam(c, "oid")
	if !ok {
		return
	}

	var req struct {
		Odds decimal.Decimal `json:"odds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	option, err := h.marketService.UpdateOptionOdds(c.Request.Context(), c.GetUint(adminIDKey), matchID, questionID, optionID, req.Odds)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, option)
}
