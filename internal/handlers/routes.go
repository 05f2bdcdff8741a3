package handlers

import (
	"github.com/Jyothika2406/cricket-app/internal/auth"
	"github.com/Jyothika2406/cricket-app/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler the router needs
type Handlers struct {
	Auth        *AuthHandler
	User        *UserHandler
	Match       *MatchHandler
	Bet         *BetHandler
	Transaction *TransactionHandler
	Admin       *AdminHandler
}

// SetupRoutes registers the public, authenticated and admin routes.
// betLimiter may be nil.
func SetupRoutes(router *gin.Engine, h Handlers, betLimiter *middleware.RateLimiter) {
	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", h.Auth.Register)
		authRoutes.POST("/login", h.Auth.Login)
		authRoutes.GET("/me", auth.AuthMiddleware(), h.Auth.GetMe)
	}

	// Public match routes
	router.GET("/api/matches", h.Match.GetMatches)
	router.GET("/api/matches/:id", h.Match.GetMatch)

	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		userRoutes := api.Group("/user")
		{
			userRoutes.GET("/profile", h.User.GetProfile)
			userRoutes.PUT("/profile", h.Auth.UpdateProfile)
			userRoutes.POST("/change-password", h.Auth.ChangePassword)
			userRoutes.GET("/wallet", h.User.GetWallet)
			userRoutes.GET("/ledger", h.User.GetLedger)
			userRoutes.GET("/kyc", h.User.GetKYC)
			userRoutes.POST("/kyc", h.User.SubmitKYC)
			userRoutes.GET("/deposit-info", h.Transaction.GetDepositInfo)
			userRoutes.POST("/deposit", h.Transaction.RequestDeposit)
			userRoutes.POST("/withdraw", h.Transaction.RequestWithdrawal)
			userRoutes.GET("/transactions", h.Transaction.GetUserTransactions)
		}

		placeBet := []gin.HandlerFunc{h.Bet.PlaceBet}
		if betLimiter != nil {
			placeBet = append([]gin.HandlerFunc{betLimiter.Middleware()}, placeBet...)
		}
		api.POST("/bets", placeBet...)
		api.GET("/bets", h.Bet.GetUserBets)
		api.GET("/bets/:id", h.Bet.GetBet)
	}

	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware(), h.Admin.AdminMiddleware())
	{
		admin.GET("/stats", h.Admin.GetDashboard)
		admin.GET("/users", h.Admin.GetUsers)
		admin.PUT("/users/:id/role", h.Admin.UpdateUserRole)
		admin.GET("/logs", h.Admin.GetAdminLogs)
		admin.GET("/settings", h.Admin.GetSettings)
		admin.PUT("/settings", h.Admin.UpdateSettings)

		admin.GET("/matches", h.Match.AdminGetMatches)
		admin.POST("/matches", h.Match.CreateMatch)
		admin.PUT("/matches/:id", h.Match.UpdateMatch)
		admin.DELETE("/matches/:id", h.Match.DeleteMatch)
		admin.POST("/matches/:id/complete", h.Match.CompleteMatch)
		admin.POST("/matches/:id/questions", h.Match.AddQuestion)
		admin.POST("/matches/:id/questions/:qid/close", h.Match.CloseQuestion)
		admin.PUT("/matches/:id/questions/:qid/options/:oid", h.Match.UpdateOdds)
		admin.POST("/matches/:id/questions/:qid/settle", h.Bet.SettleQuestion)
		admin.POST("/questions/:qid/resume-settlement", h.Bet.ResumeSettlement)
		admin.GET("/settlements/unfinished", h.Bet.GetUnfinishedSettlements)

		admin.GET("/transactions", h.Transaction.AdminListTransactions)
		admin.POST("/transactions/:id/resolve", h.Transaction.ResolveTransaction)

		admin.GET("/kyc", h.Admin.GetKYCSubmissions)
		admin.POST("/kyc/:id/review", h.Admin.ReviewKYC)
	}
}
