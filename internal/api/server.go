// Package api handles HTTP and WebSocket API endpoints
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Vandanarajput/PosAPP/internal/command"
	"github.com/Vandanarajput/PosAPP/internal/metrics"
	"github.com/Vandanarajput/PosAPP/internal/printer"
	"github.com/Vandanarajput/PosAPP/internal/profiles"
	"github.com/Vandanarajput/PosAPP/internal/transport"
	"github.com/Vandanarajput/PosAPP/pkg/receiptformat"
)

// Options wires a Server
type Options struct {
	Manager  *printer.Manager
	Executor *command.Executor
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Server is the API server
type Server struct {
	router   *gin.Engine
	manager  *printer.Manager
	executor *command.Executor
	metrics  *metrics.Metrics
	log      *slog.Logger
	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*WSClient]struct{}
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Executor == nil {
		opts.Executor = command.NewExecutor(opts.Manager)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(opts.Logger), corsMiddleware())

	s := &Server{
		router:   router,
		manager:  opts.Manager,
		executor: opts.Executor,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*WSClient]struct{}),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	s.router.GET("/profiles", s.handleGetProfiles)
	s.router.PUT("/profiles", s.handleReplaceProfiles)
	s.router.POST("/profiles", s.handleAddProfile)
	s.router.DELETE("/profiles/:id", s.handleDeleteProfile)
	s.router.GET("/routing", s.handleGetRouting)
	s.router.PUT("/routing", s.handleSetRouting)

	s.router.POST("/print", s.handlePrint)
	s.router.POST("/preview", s.handlePreview)
	s.router.GET("/jobs", s.handleGetJobs)
	s.router.GET("/job/:id", s.handleGetJob)

	s.router.GET("/connection", s.handleConnectionStatus)
	s.router.POST("/connection/connect", s.handleConnect)
	s.router.POST("/connection/disconnect", s.handleDisconnect)

	s.router.POST("/command", s.handleCommand)
	s.router.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.closeClients()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"pending":    s.manager.Queue().Pending(),
		"connection": s.manager.ConnectionStatus(),
	})
}

func (s *Server) handleGetProfiles(c *gin.Context) {
	list, err := s.manager.Store().List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []profiles.Profile{}
	}
	c.JSON(http.StatusOK, gin.H{"profiles": list})
}

// handleReplaceProfiles stores the submitted list as the whole profile set
func (s *Server) handleReplaceProfiles(c *gin.Context) {
	var req struct {
		Profiles []profiles.Profile `json:"profiles"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := profiles.Prepare(req.Profiles)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.manager.Store().Save(c.Request.Context(), list); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "profiles": list})
}

func (s *Server) handleAddProfile(c *gin.Context) {
	var req struct {
		Host       string `json:"host" binding:"required"`
		Port       int    `json:"port"`
		PaperWidth int    `json:"paper_width"`
		Copies     int    `json:"copies"`
		Label      string `json:"label"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "host is required"})
		return
	}

	p, err := profiles.Add(c.Request.Context(), s.manager.Store(),
		profiles.New(req.Host, req.Port, req.PaperWidth, req.Copies, req.Label))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "profile": p})
}

func (s *Server) handleDeleteProfile(c *gin.Context) {
	err := profiles.Remove(c.Request.Context(), s.manager.Store(), c.Param("id"))
	switch {
	case errors.Is(err, profiles.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (s *Server) handleGetRouting(c *gin.Context) {
	on, err := s.manager.Store().FeatureFlag(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": on})
}

func (s *Server) handleSetRouting(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enabled is required"})
		return
	}
	if err := s.manager.Store().SetFeatureFlag(c.Request.Context(), *req.Enabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "enabled": *req.Enabled})
}

// printRequest is accepted by /print, /preview and the websocket print
// event. A body carrying "data" is itself the receipt document.
type printRequest struct {
	Receipt     json.RawMessage `json:"receipt"`
	ReceiptPath string          `json:"receipt_path"`
	ReceiptURL  string          `json:"receipt_url"`
	Data        json.RawMessage `json:"data"`
	PaperWidth  int             `json:"paper_width"`
}

func decodePrintRequest(body []byte) (printRequest, error) {
	var req printRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("invalid request: %w", err)
	}
	if len(req.Data) > 0 && len(req.Receipt) == 0 {
		req.Receipt = body
	}
	return req, nil
}

// document resolves the receipt a request refers to
func (r printRequest) document(ctx context.Context) (*receiptformat.Document, error) {
	switch {
	case r.ReceiptURL != "":
		return command.LoadDocument(ctx, r.ReceiptURL)
	case r.ReceiptPath != "":
		return command.LoadDocument(ctx, r.ReceiptPath)
	case len(r.Receipt) > 0:
		return receiptformat.Parse(r.Receipt)
	default:
		return nil, errors.New("receipt, receipt_path, or receipt_url is required")
	}
}

func (s *Server) readDocument(c *gin.Context) (*receiptformat.Document, printRequest, bool) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, printRequest{}, false
	}
	req, err := decodePrintRequest(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, req, false
	}
	doc, err := req.document(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, req, false
	}
	return doc, req, true
}

// handlePrint queues a receipt
func (s *Server) handlePrint(c *gin.Context) {
	doc, _, ok := s.readDocument(c)
	if !ok {
		return
	}

	jobID, err := s.manager.Submit(doc, "http")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid receipt: %v", err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "job_id": jobID})
}

// handlePreview renders a receipt to PNG. The width comes from the
// paper_width field or the width query parameter.
func (s *Server) handlePreview(c *gin.Context) {
	doc, req, ok := s.readDocument(c)
	if !ok {
		return
	}

	width := req.PaperWidth
	if q := c.Query("width"); q != "" {
		w, err := strconv.Atoi(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid width"})
			return
		}
		width = w
	}

	data, err := s.manager.Preview(c.Request.Context(), doc, profiles.NormalizeWidth(width))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

func (s *Server) handleGetJobs(c *gin.Context) {
	jobs := s.manager.Queue().GetAllJobs()
	if jobs == nil {
		jobs = []printer.Job{}
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (s *Server) handleGetJob(c *gin.Context) {
	job, found := s.manager.Queue().GetJob(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) handleConnectionStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.manager.ConnectionStatus())
}

func (s *Server) handleConnect(c *gin.Context) {
	var req struct {
		Kind    string `json:"kind" binding:"required"`
		Address string `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind and address are required"})
		return
	}
	kind, err := transport.ParseKind(req.Kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.manager.Connect(c.Request.Context(), kind, req.Address); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.manager.ConnectionStatus())
}

func (s *Server) handleDisconnect(c *gin.Context) {
	if err := s.manager.Disconnect(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.manager.ConnectionStatus())
}

// handleCommand handles command execution requests
func (s *Server) handleCommand(c *gin.Context) {
	var req struct {
		Command string `json:"command" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "command is required"})
		return
	}

	result := s.executor.Execute(c.Request.Context(), req.Command)

	if !result.Success {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": result.Error})
		return
	}

	response := gin.H{"success": true}
	if result.Message != "" {
		response["message"] = result.Message
	}
	for k, v := range result.Data {
		response[k] = v
	}
	c.JSON(http.StatusOK, response)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http.request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
