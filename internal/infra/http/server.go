package http

import (
	"context"
	"net/http"
	"time"

	"tarledger/internal/config"
	"tarledger/internal/domain"
	"tarledger/internal/infra/cachemem"
	"tarledger/internal/infra/db"
	"tarledger/internal/infra/ledger"
	"tarledger/internal/infra/ratelimit"
	"tarledger/internal/infra/storage"
	"tarledger/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg config.Config
	log *zap.Logger
	r   *gin.Engine

	store *db.Store

	issueUC  *usecase.IssueReceipt
	verifyUC *usecase.VerifyReceipt
	revokeUC *usecase.RevokeReceipt
	queryUC  *usecase.QueryReceipts

	ledger domain.LedgerClient

	apiKey string

	rateLimiter       domain.RateLimiter
	rateLimitRequests int
	rateLimitWindow   time.Duration
}

func NewServer(ctx context.Context, cfg config.Config, store *db.Store, log *zap.Logger) (*Server, error) {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, log: log, store: store, r: r}
	if err := s.initDeps(ctx); err != nil {
		return nil, err
	}
	s.routes()
	return s, nil
}

type ServerDeps struct {
	Issue       *usecase.IssueReceipt
	Verify      *usecase.VerifyReceipt
	Revoke      *usecase.RevokeReceipt
	Query       *usecase.QueryReceipts
	Ledger      domain.LedgerClient
	APIKey      string
	RateLimiter domain.RateLimiter
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps, log *zap.Logger) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:      cfg,
		log:      log,
		r:        r,
		issueUC:  deps.Issue,
		verifyUC: deps.Verify,
		revokeUC: deps.Revoke,
		queryUC:  deps.Query,
		ledger:   deps.Ledger,
		apiKey:   deps.APIKey,
	}
	s.initRateLimit(deps.RateLimiter)
	s.routes()
	return s
}

func (s *Server) initDeps(ctx context.Context) error {
	s.apiKey = s.cfg.APIKey

	ledgerClient, err := ledger.New(ctx, ledger.Config{
		RPCURL:          s.cfg.LedgerRPCURL,
		ContractAddress: s.cfg.LedgerContractAddress,
		PrivateKey:      s.cfg.IssuerPrivateKey,
		GasLimit:        s.cfg.LedgerGasLimit,
		PollInterval:    s.cfg.LedgerPollInterval,
		PollAttempts:    s.cfg.LedgerPollAttempts,
	}, s.log)
	if err != nil {
		return err
	}
	s.ledger = ledgerClient

	var contentStore domain.ContentStore
	switch s.cfg.StorageType {
	case "s3":
		contentStore, err = storage.NewS3Store(
			s.cfg.S3Endpoint, s.cfg.S3Bucket, s.cfg.S3Region,
			s.cfg.S3AccessKey, s.cfg.S3SecretKey, s.log)
		if err != nil {
			return err
		}
	default:
		contentStore = storage.NewIPFSStub()
	}

	var receipts domain.ReceiptRepository
	if s.store != nil && s.store.DB != nil {
		receipts = db.NewReceiptRepository(s.store.DB)
	}

	binder := &usecase.MetadataBinder{Store: contentStore, Log: s.log}
	s.issueUC = &usecase.IssueReceipt{
		Receipts: receipts,
		Binder:   binder,
		Ledger:   ledgerClient,
		Log:      s.log,
	}
	s.verifyUC = &usecase.VerifyReceipt{
		Receipts: receipts,
		Ledger:   ledgerClient,
		Store:    contentStore,
		Log:      s.log,
	}
	s.revokeUC = &usecase.RevokeReceipt{
		Receipts: receipts,
		Ledger:   ledgerClient,
		Log:      s.log,
	}
	s.queryUC = &usecase.QueryReceipts{Receipts: receipts}

	if s.cfg.VerdictCacheTTL > 0 {
		cache := cachemem.New()
		s.verifyUC.Cache = cache
		s.verifyUC.CacheTTL = s.cfg.VerdictCacheTTL
		s.revokeUC.Cache = cache
	}

	s.initRateLimit(nil)
	return nil
}

func (s *Server) initRateLimit(override domain.RateLimiter) {
	if override != nil {
		s.rateLimiter = override
	}
	if s.rateLimiter == nil && s.cfg.RateLimitRequests > 0 {
		if s.cfg.RedisAddr != "" {
			if limiter, err := ratelimit.NewRedisLimiter(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, nil); err == nil {
				s.rateLimiter = limiter
			}
		}
		if s.rateLimiter == nil {
			s.rateLimiter = ratelimit.NewMemoryLimiter(nil)
		}
	}
	s.rateLimitRequests = s.cfg.RateLimitRequests
	if s.cfg.RateLimitWindowSeconds > 0 {
		s.rateLimitWindow = time.Duration(s.cfg.RateLimitWindowSeconds) * time.Second
	}
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		dbMode := "no-db"
		if s.store != nil && s.store.DB != nil {
			dbMode = "db"
		}
		ledgerMode := "live"
		if s.ledger != nil && s.ledger.Simulated() {
			ledgerMode = "simulated"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "index": dbMode, "ledger": ledgerMode})
	})

	api := s.r.Group("/api/receipts")
	{
		api.POST("/issue", s.handleIssue)
		api.POST("/verify", s.handleVerify)
		api.POST("/:token_id/revoke", s.handleRevoke)
		api.GET("/:token_id", s.handleGetDetails)
		api.GET("/owner/:address", s.handleListByOwner)
	}

	s.r.NoRoute(func(c *gin.Context) {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
}

func (s *Server) Run() error {
	return s.r.Run(s.cfg.HTTPAddr)
}

func (s *Server) Handler() http.Handler {
	return s.r
}
