// Package api exposes the wallet services over HTTP.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coinsuite/walletcore/internal/adapters"
	"github.com/coinsuite/walletcore/internal/currency"
	"github.com/coinsuite/walletcore/internal/enablecoin"
	"github.com/coinsuite/walletcore/internal/managewallets"
	"github.com/coinsuite/walletcore/internal/transactioninfo"
	"github.com/coinsuite/walletcore/pkg/models"
)

// Server is the HTTP surface over the wallet services.
type Server struct {
	router *gin.Engine
	logger *zap.Logger

	manageWallets *managewallets.Service
	enableFlow    *enablecoin.Service
	adapter       adapters.TransactionsAdapter
	rates         transactioninfo.RateSource
	currency      *currency.Manager

	// one transaction-info service per inspected transaction, kept for
	// the server's lifetime like an open detail screen
	txMu       sync.Mutex
	txServices map[string]*transactioninfo.Service

	httpServer *http.Server
}

// NewServer wires routes and middleware.
func NewServer(
	logger *zap.Logger,
	manageWallets *managewallets.Service,
	enableFlow *enablecoin.Service,
	adapter adapters.TransactionsAdapter,
	rates transactioninfo.RateSource,
	currencyManager *currency.Manager,
) *Server {
	s := &Server{
		logger:        logger,
		manageWallets: manageWallets,
		enableFlow:    enableFlow,
		adapter:       adapter,
		rates:         rates,
		currency:      currencyManager,
		txServices:    make(map[string]*transactioninfo.Service),
	}

	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	router.GET("/healthz", s.handleHealth)

	v1 := router.Group("/v1")
	{
		v1.GET("/coins", s.handleCoins)
		v1.POST("/coins/:uid/enable", s.handleEnable)
		v1.POST("/coins/:uid/disable", s.handleDisable)
		v1.POST("/coins/:uid/configure", s.handleConfigure)
		v1.POST("/coins/:uid/approve", s.handleApprove)
		v1.POST("/coins/:uid/cancel", s.handleCancel)

		v1.GET("/transactions/:hash", s.handleTransaction)
		v1.GET("/transactions/:hash/raw", s.handleTransactionRaw)
	}

	s.router = router
	return s
}

// Router exposes the gin engine, used by tests.
func (s *Server) Router() http.Handler { return s.router }

// Start runs the HTTP server until Stop is called.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}
	s.logger.Info("http server listening", zap.String("addr", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down and clears the open transaction-info services.
func (s *Server) Stop(ctx context.Context) error {
	s.txMu.Lock()
	for hash, svc := range s.txServices {
		svc.Clear()
		delete(s.txServices, hash)
	}
	s.txMu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCoins(c *gin.Context) {
	if filter, ok := c.GetQuery("filter"); ok {
		s.manageWallets.SetFilter(filter)
	}
	c.JSON(http.StatusOK, gin.H{"items": s.manageWallets.Items()})
}

func (s *Server) handleEnable(c *gin.Context) {
	s.manageWallets.Enable(c.Param("uid"))
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (s *Server) handleDisable(c *gin.Context) {
	s.manageWallets.Disable(c.Param("uid"))
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (s *Server) handleConfigure(c *gin.Context) {
	s.manageWallets.Configure(c.Param("uid"))
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

type approveRequest struct {
	Platforms []models.ConfiguredPlatform `json:"platforms"`
}

func (s *Server) handleApprove(c *gin.Context) {
	// an absent or malformed body means "keep the pending selection"
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Platforms = nil
	}
	if err := s.enableFlow.Approve(c.Param("uid"), req.Platforms); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "approved"})
}

func (s *Server) handleCancel(c *gin.Context) {
	s.enableFlow.Cancel(c.Param("uid"))
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

type transactionResponse struct {
	Hash      string                          `json:"hash"`
	Kind      models.RecordKind               `json:"kind"`
	Source    models.TransactionSource        `json:"source"`
	Record    models.TransactionRecord        `json:"record"`
	LastBlock *models.LastBlockInfo           `json:"last_block,omitempty"`
	Explorer  models.ExplorerData             `json:"explorer"`
	Rates     map[string]models.CurrencyValue `json:"rates,omitempty"`
}

func (s *Server) handleTransaction(c *gin.Context) {
	svc, ok := s.transactionService(c.Param("hash"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown transaction"})
		return
	}

	item := svc.Item()
	c.JSON(http.StatusOK, transactionResponse{
		Hash:      svc.TransactionHash(),
		Kind:      item.Record.Kind(),
		Source:    svc.Source(),
		Record:    item.Record,
		LastBlock: item.LastBlockInfo,
		Explorer:  item.Explorer,
		Rates:     item.Rates,
	})
}

func (s *Server) handleTransactionRaw(c *gin.Context) {
	raw, ok := s.adapter.RawTransaction(c.Param("hash"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "raw transaction not available"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"raw": raw})
}

// transactionService returns the live info service for a transaction,
// creating it on first access.
func (s *Server) transactionService(hash string) (*transactioninfo.Service, bool) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if svc, ok := s.txServices[hash]; ok {
		return svc, true
	}
	record, ok := s.adapter.Record(hash)
	if !ok {
		return nil, false
	}
	svc := transactioninfo.NewService(record, s.adapter, s.rates, s.currency, s.logger.Named("txinfo"))
	s.txServices[hash] = svc
	return svc, true
}
