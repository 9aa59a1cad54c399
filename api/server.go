package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shruggr/fpgrowth/aggregate"
	"github.com/shruggr/fpgrowth/growth"
	"github.com/shruggr/fpgrowth/multihash"
	"github.com/shruggr/fpgrowth/processor"
	"github.com/shruggr/fpgrowth/snapshot"
	"github.com/shruggr/fpgrowth/source"
)

// Server exposes the mining pipeline over HTTP
type Server struct {
	proc   *processor.Processor
	logger *slog.Logger
	router *gin.Engine
}

// NewServer creates the HTTP API around a processor
func NewServer(proc *processor.Processor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		proc:   proc,
		logger: logger,
		router: gin.New(),
	}
	s.router.Use(gin.Recovery(), s.logRequests())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")
	{
		v1.POST("/mine", s.handleMine)
		v1.GET("/runs", s.handleListRuns)
		v1.GET("/runs/:id", s.handleGetRun)
		v1.GET("/snapshots/:hash", s.handleGetSnapshot)
	}
}

// Handler returns the routed http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("Shutting down HTTP API")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleMine(c *gin.Context) {
	var req MineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	report, err := s.proc.Process(c.Request.Context(), processor.Job{
		Source:          source.NewStatic(toTransactions(req.Transactions)),
		MinSupport:      req.MinSupport,
		RelativeSupport: req.RelativeSupport,
		Workers:         req.Workers,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if isInvalidInput(err) {
			status = http.StatusBadRequest
		} else {
			s.logger.Error("Mining request failed", "error", err)
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	resp := MineResponse{
		RunID:        report.RunID,
		Cached:       report.Cached,
		MinSupport:   report.MinSupport,
		Transactions: report.Transactions,
		Itemsets:     NewItemsets(report.Result),
	}
	if len(report.ResultHash) > 0 {
		resp.ResultHash = report.ResultHash.Hex()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	metas, err := s.proc.Runs(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	runs := make([]Run, len(metas))
	for i, m := range metas {
		runs[i] = NewRun(m)
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleGetRun(c *gin.Context) {
	meta, err := s.proc.Run(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.logger.Error("Failed to get run", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if meta == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "run not found"})
		return
	}
	c.JSON(http.StatusOK, NewRun(meta))
}

func (s *Server) handleGetSnapshot(c *gin.Context) {
	hash, err := multihash.Parse(c.Param("hash"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := s.proc.Snapshot(c.Request.Context(), hash)
	if errors.Is(err, snapshot.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "snapshot not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to load snapshot", "hash", hash.Hex(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SnapshotResponse{Hash: hash.Hex(), Itemsets: NewItemsets(result)})
}

func isInvalidInput(err error) bool {
	return errors.Is(err, processor.ErrInvalidJob) ||
		errors.Is(err, growth.ErrInvalidMinSupport) ||
		errors.Is(err, growth.ErrInvalidRelativeSupport) ||
		errors.Is(err, aggregate.ErrDuplicateItem) ||
		errors.Is(err, aggregate.ErrInvalidCount)
}
