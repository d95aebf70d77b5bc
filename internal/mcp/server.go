// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the task board as MCP tools for AI assistants.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/taskdesk/internal/clock"
	"github.com/valter-silva-au/taskdesk/internal/core"
	"github.com/valter-silva-au/taskdesk/internal/observability"
	"github.com/valter-silva-au/taskdesk/internal/timeutil"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// Server wraps a board and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	board       core.TaskManager
	extractor   core.TaskExtractor
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
	clock       clock.Clock
}

// NewServer creates a new MCP server over board. extractor, metricsCalc
// and alertEngine may be nil, in which case the matching tools report
// that they are unavailable.
func NewServer(board core.TaskManager, extractor core.TaskExtractor, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, clk clock.Clock, version string) *Server {
	if version == "" {
		version = "dev"
	}
	if clk == nil {
		clk = clock.Real()
	}

	s := &Server{
		board:       board,
		extractor:   extractor,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
		clock:       clk,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "taskdesk", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type taskIDInput struct {
	TaskID string `json:"task_id" jsonschema:"the task identifier"`
}

type taskOutput struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Tag              string `json:"tag,omitempty"`
	Status           string `json:"status"`
	Memo             string `json:"memo,omitempty"`
	StatusComment    string `json:"status_comment,omitempty"`
	RegisteredDate   string `json:"registered_date"`
	CompletedDate    string `json:"completed_date,omitempty"`
	ElapsedSeconds   int64  `json:"elapsed_seconds"`
	Elapsed          string `json:"elapsed"`
	EstimatedMinutes int    `json:"estimated_minutes,omitempty"`
	Sessions         int    `json:"sessions"`
}

type taskResultOutput struct {
	Task    *taskOutput `json:"task,omitempty"`
	Message string      `json:"message"`
}

type groupOutput struct {
	Tag   string       `json:"tag"`
	Tasks []taskOutput `json:"tasks"`
}

type listTodayInput struct{}

type listTodayOutput struct {
	Groups []groupOutput `json:"groups"`
	Count  int           `json:"count"`
}

type listTasksInput struct {
	Tag    string `json:"tag,omitempty" jsonschema:"only tasks with this tag"`
	Status string `json:"status,omitempty" jsonschema:"filter by status (not_started, working, paused, waiting, done)"`
	Search string `json:"search,omitempty" jsonschema:"case-insensitive text to find in name or memo"`
	From   string `json:"from,omitempty" jsonschema:"earliest registered date (YYYY-MM-DD)"`
	To     string `json:"to,omitempty" jsonschema:"latest registered date (YYYY-MM-DD)"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type addSessionInput struct {
	TaskID string `json:"task_id" jsonschema:"the task identifier"`
	Date   string `json:"date" jsonschema:"calendar date of the session (YYYY-MM-DD)"`
	Start  string `json:"start" jsonschema:"start time of day (HH:MM)"`
	End    string `json:"end" jsonschema:"end time of day (HH:MM), after start"`
}

type getCalendarInput struct{}

type calendarEntryOutput struct {
	TaskID   string `json:"task_id"`
	TaskName string `json:"task_name"`
	Tag      string `json:"tag,omitempty"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Open     bool   `json:"open"`
	Seconds  int64  `json:"seconds"`
}

type calendarDayOutput struct {
	Date         string                `json:"date"`
	Weekday      string                `json:"weekday"`
	TotalSeconds int64                 `json:"total_seconds"`
	Entries      []calendarEntryOutput `json:"entries"`
}

type getCalendarOutput struct {
	Days []calendarDayOutput `json:"days"`
}

type getReviewInput struct {
	Period string `json:"period,omitempty" jsonschema:"week or month. Defaults to week."`
}

type tagStatsOutput struct {
	Tag            string `json:"tag"`
	Untagged       bool   `json:"untagged,omitempty"`
	Count          int    `json:"count"`
	Done           int    `json:"done"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
}

type getReviewOutput struct {
	Period         string           `json:"period"`
	From           string           `json:"from"`
	To             string           `json:"to"`
	Total          int              `json:"total"`
	Done           int              `json:"done"`
	CompletionRate int              `json:"completion_rate"`
	ElapsedSeconds int64            `json:"elapsed_seconds"`
	Tags           []tagStatsOutput `json:"tags"`
}

type draftOutput struct {
	Name             string `json:"name"`
	Tag              string `json:"tag,omitempty"`
	Memo             string `json:"memo,omitempty"`
	EstimatedMinutes int    `json:"estimated_minutes,omitempty"`
}

type extractTasksInput struct {
	Text     string `json:"text" jsonschema:"free text such as meeting notes or a to-do list"`
	Register bool   `json:"register,omitempty" jsonschema:"add the extracted tasks to the board"`
}

type extractTasksOutput struct {
	Source     string        `json:"source"`
	Drafts     []draftOutput `json:"drafts"`
	Registered []taskOutput  `json:"registered,omitempty"`
	Warning    string        `json:"warning,omitempty"`
}

type applyRoutinesInput struct {
	IDs []string `json:"ids,omitempty" jsonschema:"routine IDs to apply. Defaults to the routines due today."`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	TasksCreated        int            `json:"tasks_created"`
	TasksCreatedBy      map[string]int `json:"tasks_created_by"`
	TasksStarted        int            `json:"tasks_started"`
	TasksCompleted      int            `json:"tasks_completed"`
	TasksDeleted        int            `json:"tasks_deleted"`
	TaskSwitches        int            `json:"task_switches"`
	SessionEdits        int            `json:"session_edits"`
	ExtractionFallbacks int            `json:"extraction_fallbacks"`
	RoutinesApplied     int            `json:"routines_applied"`
	EventCount          int            `json:"event_count"`
	OldestEvent         string         `json:"oldest_event,omitempty"`
	NewestEvent         string         `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TaskID      string `json:"task_id,omitempty"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_today",
		Description: "List today's board: open tasks plus tasks completed today, grouped by tag in board order.",
	}, s.handleListToday)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks filtered by tag, status, text and registered-date range.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "start_task",
		Description: "Start the timer on a task. Any other running task is paused first.",
	}, s.handleTransition("started", core.TaskManager.Start))

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "pause_task",
		Description: "Pause a running task and close its work session.",
	}, s.handleTransition("paused", core.TaskManager.Pause))

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "wait_task",
		Description: "Mark a task as waiting on someone else, closing its work session if running.",
	}, s.handleTransition("set to waiting", core.TaskManager.Wait))

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "complete_task",
		Description: "Mark a task as done, closing its work session if running.",
	}, s.handleTransition("completed", core.TaskManager.Complete))

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_session",
		Description: "Record a past work session on a task. Times are local HH:MM on the given date.",
	}, s.handleAddSession)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_calendar",
		Description: "Get the work sessions of the last seven days, most recent day first.",
	}, s.handleGetCalendar)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_review",
		Description: "Get completion and time statistics for the current week or month, broken down by tag.",
	}, s.handleGetReview)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "extract_tasks",
		Description: "Extract task drafts from free text and optionally add them to the board.",
	}, s.handleExtractTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "apply_routines",
		Description: "Create tasks from routine templates, by default those scheduled for today.",
	}, s.handleApplyRoutines)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated metrics from the event log, including tasks created, started, completed and switched.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (forgotten timers, long waits, too many open tasks).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleListToday(_ context.Context, _ *gomcp.CallToolRequest, _ listTodayInput) (*gomcp.CallToolResult, listTodayOutput, error) {
	groups := s.board.Today()
	out := listTodayOutput{Groups: make([]groupOutput, len(groups))}
	for i, g := range groups {
		out.Groups[i] = groupOutput{Tag: g.Tag, Tasks: s.tasksToOutput(g.Tasks)}
		out.Count += len(g.Tasks)
	}
	return nil, out, nil
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	status := models.TaskStatus(input.Status)
	if status != "" && !status.Valid() {
		return errorResult(fmt.Sprintf("invalid status %q: must be one of not_started, working, paused, waiting, done", input.Status)), listTasksOutput{}, nil
	}

	tasks := s.board.Filter(core.TaskFilter{
		Tag:    input.Tag,
		Status: status,
		Search: input.Search,
		From:   input.From,
		To:     input.To,
	})
	out := listTasksOutput{Tasks: s.tasksToOutput(tasks), Count: len(tasks)}
	return nil, out, nil
}

type transitionFunc func(core.TaskManager, string) (models.Task, error)

func (s *Server) handleTransition(verb string, apply transitionFunc) gomcp.ToolHandlerFor[taskIDInput, taskResultOutput] {
	return func(_ context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, taskResultOutput, error) {
		if input.TaskID == "" {
			return errorResult("task_id is required"), taskResultOutput{}, nil
		}
		task, err := apply(s.board, input.TaskID)
		if errors.Is(err, core.ErrTaskNotFound) {
			return nil, missingTaskOutput(input.TaskID), nil
		}
		if err != nil {
			return errorResult(fmt.Sprintf("updating task %s: %s", input.TaskID, err)), taskResultOutput{}, nil
		}
		out := taskResultOutput{
			Task:    s.taskOutputRef(task),
			Message: fmt.Sprintf("task %q %s (status %s)", task.Name, verb, task.Status),
		}
		return nil, out, nil
	}
}

func (s *Server) handleAddSession(_ context.Context, _ *gomcp.CallToolRequest, input addSessionInput) (*gomcp.CallToolResult, taskResultOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskResultOutput{}, nil
	}
	task, err := s.board.AddSession(input.TaskID, core.SessionInput{Date: input.Date, Start: input.Start, End: input.End})
	if errors.Is(err, core.ErrTaskNotFound) {
		return nil, missingTaskOutput(input.TaskID), nil
	}
	if err != nil {
		return errorResult(fmt.Sprintf("adding session to %s: %s", input.TaskID, err)), taskResultOutput{}, nil
	}
	out := taskResultOutput{
		Task:    s.taskOutputRef(task),
		Message: fmt.Sprintf("session %s-%s on %s recorded", input.Start, input.End, input.Date),
	}
	return nil, out, nil
}

func (s *Server) handleGetCalendar(_ context.Context, _ *gomcp.CallToolRequest, _ getCalendarInput) (*gomcp.CallToolResult, getCalendarOutput, error) {
	days := s.board.Calendar()
	out := getCalendarOutput{Days: make([]calendarDayOutput, len(days))}
	for i, d := range days {
		day := calendarDayOutput{
			Date:         d.Date,
			Weekday:      d.Weekday,
			TotalSeconds: d.TotalSeconds,
			Entries:      make([]calendarEntryOutput, len(d.Entries)),
		}
		for j, e := range d.Entries {
			day.Entries[j] = calendarEntryOutput{
				TaskID:   e.TaskID,
				TaskName: e.TaskName,
				Tag:      e.Tag,
				Start:    timeutil.TimeOfDay(e.Start),
				End:      timeutil.TimeOfDay(e.End),
				Open:     e.Open,
				Seconds:  e.Seconds,
			}
		}
		out.Days[i] = day
	}
	return nil, out, nil
}

func (s *Server) handleGetReview(_ context.Context, _ *gomcp.CallToolRequest, input getReviewInput) (*gomcp.CallToolResult, getReviewOutput, error) {
	period, err := core.ParsePeriod(input.Period)
	if err != nil {
		return errorResult(err.Error()), getReviewOutput{}, nil
	}
	stats := s.board.Review(period)
	out := getReviewOutput{
		Period:         string(stats.Period),
		From:           stats.From,
		To:             stats.To,
		Total:          stats.Total,
		Done:           stats.Done,
		CompletionRate: stats.CompletionRate,
		ElapsedSeconds: stats.ElapsedSeconds,
		Tags:           make([]tagStatsOutput, len(stats.Tags)),
	}
	for i, row := range stats.Tags {
		out.Tags[i] = tagStatsOutput{Tag: row.Tag, Untagged: row.Untagged, Count: row.Count, Done: row.Done, ElapsedSeconds: row.ElapsedSeconds}
	}
	return nil, out, nil
}

func (s *Server) handleExtractTasks(ctx context.Context, _ *gomcp.CallToolRequest, input extractTasksInput) (*gomcp.CallToolResult, extractTasksOutput, error) {
	if s.extractor == nil {
		return errorResult("task extraction is not available"), extractTasksOutput{}, nil
	}
	result, err := s.extractor.Extract(ctx, input.Text, s.board.Snapshot().Tags)
	if err != nil {
		return errorResult(fmt.Sprintf("extracting tasks: %s", err)), extractTasksOutput{}, nil
	}

	out := extractTasksOutput{
		Source: string(result.Source),
		Drafts: make([]draftOutput, len(result.Drafts)),
	}
	for i, d := range result.Drafts {
		out.Drafts[i] = draftOutput{Name: d.Name, Tag: d.Tag, Memo: d.Memo}
		if d.EstimatedMinutes != nil {
			out.Drafts[i].EstimatedMinutes = *d.EstimatedMinutes
		}
	}
	if result.FellBack() && result.Err != nil {
		out.Warning = fmt.Sprintf("used local rules: %s", result.Err)
	}
	if input.Register {
		out.Registered = s.tasksToOutput(s.board.RegisterExtracted(result.Drafts))
	}
	return nil, out, nil
}

func (s *Server) handleApplyRoutines(_ context.Context, _ *gomcp.CallToolRequest, input applyRoutinesInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	ids := input.IDs
	if len(ids) == 0 {
		for _, r := range s.board.DueToday() {
			ids = append(ids, r.ID)
		}
	}
	created := s.board.ApplyRoutines(ids)
	return nil, listTasksOutput{Tasks: s.tasksToOutput(created), Count: len(created)}, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (event log may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr, s.clock.Now())
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		TasksCreated:        metrics.TasksCreated,
		TasksCreatedBy:      metrics.TasksCreatedBy,
		TasksStarted:        metrics.TasksStarted,
		TasksCompleted:      metrics.TasksCompleted,
		TasksDeleted:        metrics.TasksDeleted,
		TaskSwitches:        metrics.TaskSwitches,
		SessionEdits:        metrics.SessionEdits,
		ExtractionFallbacks: metrics.ExtractionFallbacks,
		RoutinesApplied:     metrics.RoutinesApplied,
		EventCount:          metrics.EventCount,
	}
	if out.TasksCreatedBy == nil {
		out.TasksCreatedBy = make(map[string]int)
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available"), getAlertsOutput{}, nil
	}

	alerts := s.alertEngine.Evaluate(s.board.Snapshot().Tasks, s.clock.Now())
	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TaskID:      a.TaskID,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func (s *Server) taskToOutput(t models.Task) taskOutput {
	elapsed := core.LiveElapsed(t, s.clock.Now())
	out := taskOutput{
		ID:             t.ID,
		Name:           t.Name,
		Tag:            t.Tag,
		Status:         string(t.Status),
		Memo:           t.Memo,
		StatusComment:  t.StatusComment,
		RegisteredDate: t.RegisteredDate,
		ElapsedSeconds: elapsed,
		Elapsed:        timeutil.FormatDuration(elapsed),
		Sessions:       len(t.WorkSessions),
	}
	if t.CompletedDate != nil {
		out.CompletedDate = *t.CompletedDate
	}
	if t.EstimatedMinutes != nil {
		out.EstimatedMinutes = *t.EstimatedMinutes
	}
	return out
}

func (s *Server) tasksToOutput(tasks []models.Task) []taskOutput {
	out := make([]taskOutput, len(tasks))
	for i, t := range tasks {
		out[i] = s.taskToOutput(t)
	}
	return out
}

func (s *Server) taskOutputRef(t models.Task) *taskOutput {
	out := s.taskToOutput(t)
	return &out
}

// missingTaskOutput answers a change to a task that no longer exists. The
// board is left as it was.
func missingTaskOutput(id string) taskResultOutput {
	return taskResultOutput{Message: fmt.Sprintf("task %s not found, nothing changed", id)}
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{TasksCreatedBy: make(map[string]int)}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time before now.
func parseSince(s string, now time.Time) (time.Time, error) {
	now = now.UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
