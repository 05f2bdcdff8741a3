package handlers

import (
	"net/http"

	"github.com/Jyothika2406/cricket-app/internal/auth"
	"github.com/Jyothika2406/cricket-app/internal/services"

	"github.com/gin-gonic/gin"
)

const adminIDKey = "admin_id"

type AdminHandler struct {
	adminService    *services.AdminService
	settingsService *services.SettingsService
	kycService      *services.KYCService
}

func NewAdminHandler(adminService *services.AdminService, settingsService *services.SettingsService,
	kycService *services.KYCService) *AdminHandler {
	return &AdminHandler{
		adminService:    adminService,
		settingsService: settingsService,
		kycService:      kycService,
	}
}

// AdminMiddleware checks the stored role of the authenticated user on every
// request
func (h *AdminHandler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := auth.GetUserID(c)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Unauthorized",
				"code":    services.KindUnauthorized,
			})
			return
		}

		admin, err := h.adminService.RequireAdmin(c.Request.Context(), userID)
		if err != nil {
			if services.KindOf(err) == services.KindForbidden {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"success": false,
					"error":   "Not an admin",
					"code":    services.KindForbidden,
				})
				return
			}
			respondError(c, err)
			c.Abort()
			return
		}

		c.Set(adminIDKey, admin.ID)
		c.Next()
	}
}

// GetDashboard returns platform statistics
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.adminService.GetPlatformStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	logs, err := h.adminService.GetAdminLogs(c.Request.Context(), 10, 0)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{
		"stats":       stats,
		"recent_logs": logs,
	})
}

// GetUsers returns all users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	limit, offset := pagination(c)
	search := c.Query("search")

	users, total, err := h.adminService.GetAllUsers(c.Request.Context(), limit, offset, search)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    users,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// UpdateUserRole PUT /api/admin/users/:id/role
func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	userID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role" binding:"required,oneof=user admin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.adminService.UpdateUserRole(c.Request.Context(), c.GetUint(adminIDKey), userID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

// GetAdminLogs returns the audit trail
func (h *AdminHandler) GetAdminLogs(c *gin.Context) {
	limit, offset := pagination(c)

	logs, err := h.adminService.GetAdminLogs(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, logs)
}

// GetSettings GET /api/admin/settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, settings)
}

// UpdateSettings PUT /api/admin/settings
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req services.SettingsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	settings, err := h.settingsService.Update(c.Request.Context(), c.GetUint(adminIDKey), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, settings)
}

// GetKYCSubmissions GET /api/admin/kyc?status=pending
func (h *AdminHandler) GetKYCSubmissions(c *gin.Context) {
	limit, offset := pagination(c)

	users, err := h.kycService.ListSubmissions(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, users)
}

// ReviewKYC POST /api/admin/kyc/:id/review
func (h *AdminHandler) ReviewKYC(c *gin.Context) {
	userID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.KYCReviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	req.AdminID = c.GetUint(adminIDKey)
	req.UserID = userID

	user, err := h.kycService.Review(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, kycView(user))
}
