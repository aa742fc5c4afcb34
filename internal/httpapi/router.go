package httpapi

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(h *Handlers, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), AccessLog(logger.Named("http")), Recovery(logger.Named("http")))

	router.GET("/health", h.Health)

	api := router.Group("/api")
	{
		api.GET("/solana/price", h.SolanaPrice)
		api.GET("/trades/:walletAddress", h.Trades)
		api.POST("/analyze", h.Analyze)

		api.GET("/wallets/:walletAddress/analyses", h.WalletAnalyses)
		api.POST("/wallet/connect", h.ConnectWallet)

		api.POST("/users", h.CreateUser)
		api.GET("/users/:id", h.GetUser)
	}

	return router
}
