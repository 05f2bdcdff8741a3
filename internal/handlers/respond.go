package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Jyothika2406/cricket-app/internal/auth"
	"github.com/Jyothika2406/cricket-app/internal/services"
	"github.com/Jyothika2406/cricket-app/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

func statusForKind(kind services.Kind) int {
	switch kind {
	case services.KindInvalidAmount, services.KindInvalidOption, services.KindInvalidInput:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden, services.KindKYCRequired:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindAlreadySettled, services.KindAlreadyProcessed, services.KindConflict,
		services.KindDuplicatePendingWithdrawal, services.KindNotEditable:
		return http.StatusConflict
	case services.KindInsufficientBalance, services.KindBettingClosed, services.KindQuestionClosed,
		services.KindQuestionNotSettled:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

// respondError maps a service error to its HTTP status. Internal errors are
// not echoed to the client.
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status := statusForKind(kind)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "Internal server error"
	}
	c.JSON(status, gin.H{"success": false, "error": msg, "code": kind})
}

func respondBindError(c *gin.Context, err error) {
	body := gin.H{"success": false, "error": "Invalid request body", "code": services.KindInvalidInput}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		body["fields"] = utils.FormatValidationError(verrs)
	}
	c.JSON(http.StatusBadRequest, body)
}

func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := auth.GetUserID(c)
	if !ok || userID == 0 {
		respondError(c, services.ErrUnauthorized)
		return 0, false
	}
	return userID, true
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid " + name,
			"code":    services.KindInvalidInput,
		})
		return 0, false
	}
	return uint(id), true
}

func pagination(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
