// Package router assembles the HTTP API from the services.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"esarbank/internal/config"
	"esarbank/internal/handlers"
	"esarbank/internal/middleware"
	"esarbank/internal/notify"
	"esarbank/internal/services"
)

// Services bundles every service the API depends on.
type Services struct {
	Users     services.UserServicer
	Logins    services.LoginServicer
	Accounts  services.AccountServicer
	Transfers services.TransferServicer
	Deposits  services.DepositServicer
	Interest  services.InterestServicer
	Audit     services.AuditServicer
}

// NewServices wires the services over db.
func NewServices(db *gorm.DB) *Services {
	accountService := services.NewAccountService(db)
	return &Services{
		Users:     services.NewUserService(db),
		Logins:    services.NewLoginService(db),
		Accounts:  accountService,
		Transfers: services.NewTransferService(db, accountService),
		Deposits:  services.NewDepositService(db, accountService),
		Interest:  services.NewInterestService(db, accountService),
		Audit:     services.NewAuditService(db),
	}
}

// New builds the gin engine. All API routes live under /api.
func New(cfg *config.Config, svc *Services, notifier notify.Notifier) *gin.Engine {
	tokens := middleware.NewTokenManager(cfg.JWTSecret, cfg.JWTExpirationDur)

	authHandler := handlers.NewAuthHandler(svc.Users, svc.Accounts, svc.Logins, svc.Audit, tokens)
	accountHandler := handlers.NewAccountHandler(svc.Accounts, svc.Logins, svc.Audit)
	transferHandler := handlers.NewTransferHandler(svc.Transfers, svc.Audit, notifier)
	depositHandler := handlers.NewDepositHandler(svc.Deposits, svc.Audit, notifier)
	jobHandler := handlers.NewJobHandler(svc.Interest, svc.Audit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	api.POST("/signup", authHandler.Signup)
	api.POST("/signin", authHandler.Signin)
	api.POST("/confirm-account", authHandler.ConfirmAccount)

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokens))

	protected.POST("/create-account", accountHandler.CreateAccount)
	protected.GET("/accounts/:userId", accountHandler.GetAccountsByUserID)
	protected.GET("/accounts/customer/:customerId", accountHandler.GetAccountsByCustomerID)
	protected.GET("/accountsByEmail", accountHandler.GetAccountsByEmail)
	protected.GET("/checkAccount", accountHandler.CheckAccount)
	protected.GET("/loginDetails/:email", accountHandler.GetLastLogin)

	protected.POST("/transfer", transferHandler.Transfer)
	protected.GET("/transactions/:accountNumber", transferHandler.GetAccountTransactions)
	protected.GET("/success/:transactionId", transferHandler.GetTransaction)

	protected.POST("/fds", depositHandler.ListDeposits)
	protected.POST("/deposit", depositHandler.CreateDeposit)
	protected.POST("/withdraw", depositHandler.WithdrawDeposit)

	// Pipeline routes
	jobs := api.Group("/internal/jobs")
	jobs.Use(middleware.PipelineAuthMiddleware(cfg.PipelineAPIKey))
	jobs.POST("/monthly-interest", jobHandler.RunMonthlyInterest)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
