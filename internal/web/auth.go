package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/valter-silva-au/taskdesk/pkg/models"
)

type sendCodeRequest struct {
	Email string `json:"email"`
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type sessionRequest struct {
	SessionToken string `json:"sessionToken"`
}

type saveRequest struct {
	SessionToken string                   `json:"sessionToken"`
	Tasks        *[]models.Task           `json:"tasks"`
	Tags         []string                 `json:"tags"`
	TagOrder     []string                 `json:"tagOrder"`
	RoutineTasks []models.RoutineTemplate `json:"routineTasks"`
	Schedules    []any                    `json:"schedules"`
}

func (s *Server) handleSendCode(c *gin.Context) {
	var req sendCodeRequest
	if err := bind(c, &req); err != nil {
		s.abortWithError(c, err)
		return
	}
	if err := s.auth.RequestCode(c.Request.Context(), req.Email); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "login code sent"})
}

func (s *Server) handleVerifyCode(c *gin.Context) {
	var req verifyCodeRequest
	if err := bind(c, &req); err != nil {
		s.abortWithError(c, err)
		return
	}
	token, err := s.auth.VerifyCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sessionToken": token})
}

// resolveBodyToken authenticates the load/save calls, which carry the
// token in the body rather than a header.
func (s *Server) resolveBodyToken(c *gin.Context, token string) (string, bool) {
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return "", false
	}
	account, err := s.auth.Resolve(c.Request.Context(), token)
	if err != nil {
		s.abortWithError(c, err)
		return "", false
	}
	return account, true
}

func (s *Server) handleLoad(c *gin.Context) {
	var req sessionRequest
	if err := bind(c, &req); err != nil {
		s.abortWithError(c, err)
		return
	}
	account, ok := s.resolveBodyToken(c, req.SessionToken)
	if !ok {
		return
	}
	board, err := s.boards.Board(c.Request.Context(), account)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": board.Snapshot()})
}

func (s *Server) handleSave(c *gin.Context) {
	var req saveRequest
	if err := bind(c, &req); err != nil {
		s.abortWithError(c, err)
		return
	}
	account, ok := s.resolveBodyToken(c, req.SessionToken)
	if !ok {
		return
	}
	if req.Tasks == nil {
		s.abortWithError(c, badRequest("tasks must be an array"))
		return
	}

	ws := models.Workspace{
		Tasks:        *req.Tasks,
		Tags:         req.Tags,
		TagOrder:     req.TagOrder,
		RoutineTasks: req.RoutineTasks,
		Schedules:    req.Schedules,
	}
	ws.Normalize()
	if err := s.boards.Save(c.Request.Context(), account, ws); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

