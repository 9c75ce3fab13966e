package routes

import (
	"github.com/gin-gonic/gin"

	"tgmarket/internal/authz"
	"tgmarket/internal/handlers"
	"tgmarket/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	flowHandler *handlers.FlowHandler,
	pendingHandler *handlers.PendingHandler,
	approvalHandler *handlers.ApprovalHandler,
	countryHandler *handlers.CountryHandler,
	accountAdminHandler *handlers.AccountAdminHandler,
	settingsHandler *handlers.SettingsHandler,
	reportsHandler *handlers.ReportsHandler,
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)

	// шаги конвейера гоняет продавец из бота, токена у него нет
	flow := r.Group("/flow")
	{
		flow.POST("/send-otp", flowHandler.SendOTP)
		flow.POST("/verify-otp", flowHandler.VerifyOTP)
		flow.POST("/verify-2fa", flowHandler.Verify2FA)
		flow.POST("/setup-password", flowHandler.SetupPassword)
		flow.POST("/check-sessions", flowHandler.CheckSessions)
		flow.POST("/validate", flowHandler.Validate)
	}

	r.GET("/pending", pendingHandler.List)
	r.GET("/pending/:phone", pendingHandler.Status)
	r.GET("/countries", countryHandler.List)
	r.GET("/countries/:code", countryHandler.GetByCode)

	// ---- protected
	r.Use(middleware.AuthMiddleware())

	// APPROVAL (operator/admin)
	approval := r.Group("/approval", middleware.RequireElevated())
	{
		approval.POST("/process", approvalHandler.Process)
	}

	// ADMIN
	admin := r.Group("/admin", middleware.RequireElevated())
	{
		admin.GET("/accounts", accountAdminHandler.ListByStatus)
		admin.GET("/accounts/:phone", accountAdminHandler.GetByPhone)
		admin.POST("/accounts/:phone/approve", approvalHandler.Approve)
		admin.POST("/accounts/:phone/reject", approvalHandler.Reject)

		admin.GET("/reports/payouts", reportsHandler.Payouts)
	}

	// страны меняет только админ
	adminCountries := r.Group("/admin/countries", middleware.RequireRoles(authz.RoleAdmin))
	{
		adminCountries.POST("/", countryHandler.Create)
		adminCountries.PUT("/:code", countryHandler.Update)
		adminCountries.DELETE("/:code", countryHandler.Delete)
		adminCountries.POST("/:code/reset", countryHandler.ResetUsed)
	}

	adminSettings := r.Group("/admin/settings", middleware.RequireRoles(authz.RoleAdmin))
	{
		adminSettings.GET("/", settingsHandler.List)
		adminSettings.PUT("/", settingsHandler.Set)
	}

	return r
}
