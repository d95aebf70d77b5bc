// Package web exposes the board over HTTP: one-time-code login, the
// wholesale load/save persistence boundary, and authenticated board
// actions and views.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/valter-silva-au/taskdesk/internal/core"
)

const maxBodySize = 4 << 20 // 4MB

// Deps holds the services the handlers call into.
type Deps struct {
	Auth      core.AuthService
	Boards    *core.BoardRegistry
	Extractor core.TaskExtractor
	Logger    *slog.Logger
}

// Server is the taskdesk HTTP API.
type Server struct {
	auth      core.AuthService
	boards    *core.BoardRegistry
	extractor core.TaskExtractor
	logger    *slog.Logger
	router    *gin.Engine
}

// NewServer creates the server and registers every route.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	extractor := deps.Extractor
	if extractor == nil {
		extractor = core.NewTaskExtractor(nil, logger, nil)
	}

	router := gin.New()
	s := &Server{
		auth:      deps.Auth,
		boards:    deps.Boards,
		extractor: extractor,
		logger:    logger,
		router:    router,
	}

	router.Use(gin.Recovery(), s.requestLogger(), cors(), limitBody(maxBodySize))
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	api := router.Group("/api")
	{
		api.POST("/auth/send-code", s.handleSendCode)
		api.POST("/auth/verify-code", s.handleVerifyCode)
		api.POST("/tasks/load", s.handleLoad)
		api.POST("/tasks/save", s.handleSave)
	}

	board := api.Group("/board", s.requireSession())
	{
		board.GET("/today", s.handleToday)
		board.GET("/calendar", s.handleCalendar)
		board.GET("/review", s.handleReview)
		board.POST("/review/summary", s.handleReviewSummary)

		board.GET("/tasks", s.handleListTasks)
		board.GET("/tasks/:id", s.handleGetTask)
		board.PATCH("/tasks/:id", s.handleUpdateTask)
		board.DELETE("/tasks/:id", s.handleDeleteTask)
		board.POST("/tasks/:id/start", s.handleTransition(core.TaskManager.Start))
		board.POST("/tasks/:id/pause", s.handleTransition(core.TaskManager.Pause))
		board.POST("/tasks/:id/wait", s.handleTransition(core.TaskManager.Wait))
		board.POST("/tasks/:id/complete", s.handleTransition(core.TaskManager.Complete))
		board.POST("/tasks/:id/move", s.handleMoveTask)

		board.POST("/tasks/:id/sessions", s.handleAddSession)
		board.PUT("/tasks/:id/sessions/:index", s.handleUpdateSession)
		board.DELETE("/tasks/:id/sessions/:index", s.handleRemoveSession)

		board.GET("/tags", s.handleListTags)
		board.POST("/tags", s.handleAddTag)
		board.DELETE("/tags/:tag", s.handleDeleteTag)
		board.POST("/tags/:tag/move", s.handleMoveTag)
		board.POST("/tags/:tag/tasks", s.handleInsertManual)

		board.POST("/extract", s.handleExtract)
		board.POST("/register", s.handleRegister)

		board.GET("/routines", s.handleListRoutines)
		board.POST("/routines", s.handlePutRoutine)
		board.DELETE("/routines/:id", s.handleDeleteRoutine)
		board.POST("/routines/apply", s.handleApplyRoutines)
	}

	return s
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer returns an http.Server serving the API on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
