package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/valter-silva-au/taskdesk/internal/core"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// taskView is a task with its live elapsed time.
type taskView struct {
	models.Task
	ElapsedSeconds int64 `json:"elapsedSeconds"`
}

type groupView struct {
	Tag   string     `json:"tag"`
	Tasks []taskView `json:"tasks"`
}

type moveRequest struct {
	Direction int `json:"direction"`
}

type tagRequest struct {
	Name string `json:"name"`
}

type extractRequest struct {
	Text string `json:"text"`
}

type registerRequest struct {
	Tasks []models.TaskDraft `json:"tasks"`
}

type applyRequest struct {
	IDs []string `json:"ids"`
}

type summaryRequest struct {
	Period string `json:"period"`
}

// board returns the caller's task manager, aborting on failure.
func (s *Server) board(c *gin.Context) (core.TaskManager, bool) {
	board, err := s.boards.Board(c.Request.Context(), c.GetString(accountKey))
	if err != nil {
		s.abortWithError(c, err)
		return nil, false
	}
	return board, true
}

// respond writes body, adding the pending save failure if there is one.
func (s *Server) respond(c *gin.Context, body gin.H) {
	if err := s.boards.SaveError(c.GetString(accountKey)); err != nil {
		body["saveError"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}

func view(board core.TaskManager, task models.Task) taskView {
	elapsed, _ := board.Elapsed(task.ID)
	return taskView{Task: task, ElapsedSeconds: elapsed}
}

func views(board core.TaskManager, tasks []models.Task) []taskView {
	out := make([]taskView, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, view(board, task))
	}
	return out
}

func (s *Server) handleToday(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	groups := board.Today()
	out := make([]groupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupView{Tag: g.Tag, Tasks: views(board, g.Tasks)})
	}
	s.respond(c, gin.H{"groups": out, "dueRoutines": board.DueToday()})
}

func (s *Server) handleCalendar(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	s.respond(c, gin.H{"days": board.Calendar()})
}

func (s *Server) handleReview(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	period, err := core.ParsePeriod(c.Query("period"))
	if err != nil {
		s.abortWithError(c, badRequest("%v", err))
		return
	}
	s.respond(c, gin.H{"review": board.Review(period)})
}

// handleReviewSummary asks the model for a written review. When it fails
// the aggregation is still returned alongside the error.
func (s *Server) handleReviewSummary(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	var req summaryRequest
	if err := bind(c, &req); err != nil {
		s.abortWithError(c, err)
		return
	}
	period, err := core.ParsePeriod(req.Period)
	if err != nil {
		s.abortWithError(c, badRequest("%v", err))
		return
	}

	stats := board.Review(period)
	summary, err := s.extractor.SummarizeReview(c.Request.Context(), stats)
	if err != nil {
		s.logger.Warn("review summary failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "review generation failed", "review": stats})
		return
	}
	html, err := RenderMarkdown(summary)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	s.respond(c, gin.H{"review": stats, "summary": summary, "html": html})
}

func (s *Server) handleListTasks(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	filter := core.TaskFilter{
		Tag:    c.Query("tag"),
		Status: models.TaskStatus(c.Query("status")),
		Search: c.Query("q"),
		From:   c.Query("from"),
		To:     c.Query("to"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		s.abortWithError(c, badRequest("unknown status %q", filter.Status))
		return
	}
	s.respond(c, gin.H{"tasks": views(board, board.Filter(filter))})
}

func (s *Server) handleGetTask(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	task, err := board.Task(c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	s.respond(c, gin.H{"task": view(board, task)})
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	var patch models.TaskPatch
	if err := bind(c, &patch); err != nil {
		s.abortWithError(c, err)
		return
	}
	task, err := board.UpdateTask(c.Param("id"), patch)
	if err != nil {
		s.failMutation(c, err)
		return
	}
	s.respond(c, gin.H{"task": view(board, task)})
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	if err := board.Delete(c.Param("id")); err != nil {
		s.failMutation(c, err)
		return
	}
	s.respond(c, gin.H{"success": true})
}

func (s *Server) handleTransition(apply func(core.TaskManager, string) (models.Task, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		board, ok := s.board(c)
		if !ok {
			return
		}
		task, err := apply(board, c.Param("id"))
		if err != nil {
			s.failMutation(c, err)
			return
		}
		s.respond(c, gin.H{"task": view(board, task)})
	}
}

func (s *Server) handleMoveTask(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	var req moveRequest
	if err := bind(c, &req); err != nil {
		s.abortWithError(c, err)
		return
	}
	if req.Direction != -1 && req.Direction != 1 {
		s.abortWithError(c, badRequest("direction must be -1 or 1"))
		return
	}
	if err := board.MoveTask(c.Param("id"), req.Direction); err != nil {
		s.failMutation(c, err)
		return
	}
	s.respond(c, gin.H{"success": true})
}

func sessionIndex(c *gin.Context) (int, error) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		return 0, badRequest("session index must be a non-negative integer")
	}
	return index, nil
}

func (s *Server) handleAddSession(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	var in core.SessionInput
	if err := bind(c, &in); err != nil {
		s.abortWithError(c, err)
		return
	}
	task, err := board.AddSession(c.Param("id"), in)
	if err != nil {
		s.failMutation(c, err)
		return
	}
	s.respond(c, gin.H{"task": view(board, task)})
}

func (s *Server) handleUpdateSession(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	index, err := sessionIndex(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	var in core.SessionInput
	if err := bind(c, &in); err != nil {
		s.abortWithError(c, err)
		return
	}
	task, err := board.UpdateSession(c.Param("id"), index, in)
	if err != nil {
		s.failMutation(c, err)
		return
	}
	s.respond(c, gin.H{"task": view(board, task)})
}

func (s *Server) handleRemoveSession(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	index, err := sessionIndex(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	task, err := board.RemoveSession(c.Param("id"), index)
	if err != nil {
		s.failMutation(c, err)
		return
	}
	s.respond(c, gin.H{"task": view(board, task)})
}

func (s *Server) handleListTags(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	ws := board.Snapshot()
	usage := make(map[string]int, len(ws.Tags))
	for _, tag := range ws.Tags {
		usage[tag] = board.TagUsage(tag)
	}
	s.respond(c, gin.H{"tags": ws.Tags, "tagOrder": ws.TagOrder, "usage": usage})
}

func (s *Server) handleAddTag(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	var req tagRequest
	if err := bind(c, &req); err != nil {
		s.abortWithError(c, err)
		return
	}
	if !board.AddTag(req.Name) {
		s.abortWithError(c, badRequest("tag name must be non-empty and unique"))
		return
	}
	s.respond(c, gin.H{"tagOrder": board.Snapshot().TagOrder})
}

func (s *Server) handleDeleteTag(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	affected := board.DeleteTag(c.Param("tag"))
	s.respond(c, gin.H{"affected": affected})
}

func (s *Server) handleMoveTag(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	var req moveRequest
	if err := bind(c, &req); err != nil {
		s.abortWithError(c, err)
		return
	}
	if req.Direction != -1 && req.Direction != 1 {
		s.abortWithError(c, badRequest("direction must be -1 or 1"))
		return
	}
	s.respond(c, gin.H{"tagOrder": board.MoveTag(c.Param("tag"), req.Direction)})
}

// handleInsertManual adds an empty task at the top of a column. The path
// segment "-" addresses the untagged column.
func (s *Server) handleInsertManual(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	tag := c.Param("tag")
	if tag == "-" {
		tag = ""
	}
	task := board.InsertManual(tag)
	s.respond(c, gin.H{"task": view(board, task)})
}

func (s *Server) handleExtract(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	var req extractRequest
	if err := bind(c, &req); err != nil {
		s.abortWithError(c, err)
		return
	}
	result, err := s.extractor.Extract(c.Request.Context(), req.Text, board.Snapshot().Tags)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	body := gin.H{"source": result.Source, "tasks": result.Drafts}
	if result.FellBack() && result.Err != nil {
		body["warning"] = "AI extraction unavailable, used local rules"
	}
	s.respond(c, body)
}

func (s *Server) handleRegister(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	var req registerRequest
	if err := bind(c, &req); err != nil {
		s.abortWithError(c, err)
		return
	}
	for i, draft := range req.Tasks {
		if draft.Name == "" {
			s.abortWithError(c, badRequest("tasks[%d].name is required", i))
			return
		}
	}
	created := board.RegisterExtracted(req.Tasks)
	s.respond(c, gin.H{"tasks": views(board, created)})
}

func (s *Server) handleListRoutines(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	s.respond(c, gin.H{"routines": board.Routines(), "due": board.DueToday()})
}

func (s *Server) handlePutRoutine(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	var routine models.RoutineTemplate
	if err := bind(c, &routine); err != nil {
		s.abortWithError(c, err)
		return
	}
	stored, err := board.PutRoutine(routine)
	if err != nil {
		s.abortWithError(c, badRequest("%v", err))
		return
	}
	s.respond(c, gin.H{"routine": stored})
}

func (s *Server) handleDeleteRoutine(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	if !board.DeleteRoutine(c.Param("id")) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "routine not found"})
		return
	}
	s.respond(c, gin.H{"success": true})
}

func (s *Server) handleApplyRoutines(c *gin.Context) {
	board, ok := s.board(c)
	if !ok {
		return
	}
	var req applyRequest
	if err := bind(c, &req); err != nil {
		s.abortWithError(c, err)
		return
	}
	ids := req.IDs
	if len(ids) == 0 {
		for _, r := range board.DueToday() {
			ids = append(ids, r.ID)
		}
	}
	s.respond(c, gin.H{"tasks": views(board, board.ApplyRoutines(ids))})
}
