package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// Completer sends a single-turn prompt to a language model and returns
// the text of its reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ExtractionSource records where extracted drafts came from.
type ExtractionSource string

const (
	SourceAI       ExtractionSource = "ai"
	SourceFallback ExtractionSource = "fallback"
)

var (
	// ErrEmptyInput is returned when there is no text to extract from.
	ErrEmptyInput = errors.New("input is required")
	// ErrAIUnavailable is attached to fallback results when no model is
	// configured.
	ErrAIUnavailable = errors.New("ai service is not configured")
)

// ExtractionResult is either a set of model-extracted drafts or the local
// heuristic's output together with the error that forced the fallback.
type ExtractionResult struct {
	Source ExtractionSource   `json:"source"`
	Drafts []models.TaskDraft `json:"tasks"`
	Err    error              `json:"-"`
}

// FellBack reports whether the local heuristic produced the drafts.
func (r ExtractionResult) FellBack() bool {
	return r.Source == SourceFallback
}

// TaskExtractor turns free text into task drafts and review statistics
// into a written summary.
type TaskExtractor interface {
	Extract(ctx context.Context, input string, tags []string) (ExtractionResult, error)
	SummarizeReview(ctx context.Context, stats ReviewStats) (string, error)
}

type taskExtractor struct {
	completer Completer
	logger    *slog.Logger
	events    EventLogger
}

// NewTaskExtractor creates a TaskExtractor. completer may be nil, in which
// case extraction always falls back to the local heuristic. events may be
// nil.
func NewTaskExtractor(completer Completer, logger *slog.Logger, events EventLogger) TaskExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &taskExtractor{completer: completer, logger: logger, events: events}
}

// Extract asks the model for drafts and falls back to FallbackExtract on
// any transport or parse failure. The only returned error is ErrEmptyInput.
func (e *taskExtractor) Extract(ctx context.Context, input string, tags []string) (ExtractionResult, error) {
	if strings.TrimSpace(input) == "" {
		return ExtractionResult{}, ErrEmptyInput
	}

	err := ErrAIUnavailable
	if e.completer != nil {
		var reply string
		reply, err = e.completer.Complete(ctx, BuildExtractionPrompt(input, tags))
		if err == nil {
			var drafts []models.TaskDraft
			drafts, err = ParseDrafts(reply, tags)
			if err == nil {
				return ExtractionResult{Source: SourceAI, Drafts: drafts}, nil
			}
		}
	}

	drafts := FallbackExtract(input, tags)
	e.logger.Warn("task extraction fell back to local heuristic", "error", err, "drafts", len(drafts))
	if e.events != nil {
		_ = e.events.LogEvent(EventExtractionFallback, map[string]any{
			"error":  err.Error(),
			"drafts": len(drafts),
		})
	}
	return ExtractionResult{Source: SourceFallback, Drafts: drafts, Err: err}, nil
}

// SummarizeReview asks the model for a written review of the period.
func (e *taskExtractor) SummarizeReview(ctx context.Context, stats ReviewStats) (string, error) {
	if e.completer == nil {
		return "", ErrAIUnavailable
	}
	reply, err := e.completer.Complete(ctx, BuildReviewPrompt(stats))
	if err != nil {
		return "", fmt.Errorf("summarizing review: %w", err)
	}
	return CleanReviewText(reply), nil
}

// BuildExtractionPrompt renders the extraction instructions for input and
// the allowed tag vocabulary.
func BuildExtractionPrompt(input string, tags []string) string {
	var b strings.Builder
	b.WriteString("You are a task management assistant. Extract the tasks from the input text and answer with a JSON array.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- \"name\" is a short verb phrase of at most 15 characters.\n")
	b.WriteString("- Every other detail (quantities, deadlines, conditions, notes) goes into \"memo\". Use \"\" when there is none.\n")
	b.WriteString("- Drop connectives and time words such as \"first\", \"next\", \"then\", \"today\".\n")
	b.WriteString("- \"tag\" must be one of the allowed tags, or \"\" when none fits.\n")
	b.WriteString("- \"estimatedMinutes\" is an optional integer estimate.\n\n")
	b.WriteString("Example:\n")
	b.WriteString("Input: \"Next reply to the staffing agency email. I think I need to fill in the product materials.\"\n")
	b.WriteString("Output: {\"name\": \"Reply to agency\", \"tag\": \"admin\", \"memo\": \"Fill in the product materials\"}\n\n")
	fmt.Fprintf(&b, "Allowed tags: %s\n\n", strings.Join(tags, ", "))
	b.WriteString("Output format: a JSON array only, with no explanation.\n")
	b.WriteString("[{\"name\": \"short task name\", \"tag\": \"tag\", \"memo\": \"details\", \"estimatedMinutes\": 30}]\n\n")
	b.WriteString("Input text:\n")
	b.WriteString(input)
	return b.String()
}

// BuildReviewPrompt renders the review request for a period.
func BuildReviewPrompt(stats ReviewStats) string {
	period := "1 week"
	if stats.Period == PeriodMonth {
		period = "1 month"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Task review. Period: %s (%s to %s). Total: %d tasks, completed: %d (%d%%).\n",
		period, stats.From, stats.To, stats.Total, stats.Done, stats.CompletionRate)
	for _, row := range stats.Tags {
		if row.Count == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s: %d tasks, %d completed, %d minutes worked\n", row.Label(), row.Count, row.Done, row.ElapsedSeconds/60)
	}
	b.WriteString("Format:\n## What went well\n- \n## What to improve\n- \n## Suggestions for next time\n- ")
	return b.String()
}

var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// CleanJSONArray strips code fences and returns the outermost [...] block
// of a model reply, or the trimmed reply when it has none.
func CleanJSONArray(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)
	if m := jsonArrayPattern.FindString(text); m != "" {
		return m
	}
	return text
}

// CleanReviewText strips markdown code fences from a review reply.
func CleanReviewText(text string) string {
	text = strings.ReplaceAll(text, "```markdown", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

type rawDraft struct {
	Name             string   `json:"name"`
	Tag              string   `json:"tag"`
	Memo             string   `json:"memo"`
	EstimatedMinutes *float64 `json:"estimatedMinutes"`
}

// ParseDrafts decodes a model reply into drafts. Comments and trailing
// commas are tolerated. Tags outside the vocabulary become empty; names
// are trimmed but never truncated.
func ParseDrafts(reply string, tags []string) ([]models.TaskDraft, error) {
	cleaned := jsonc.ToJSON([]byte(CleanJSONArray(reply)))

	var raw []rawDraft
	if err := json.Unmarshal(cleaned, &raw); err != nil {
		return nil, fmt.Errorf("parsing extraction reply: %w", err)
	}

	drafts := make([]models.TaskDraft, 0, len(raw))
	for _, r := range raw {
		d := models.TaskDraft{
			Name: strings.TrimSpace(r.Name),
			Memo: strings.TrimSpace(r.Memo),
		}
		if containsString(tags, r.Tag) {
			d.Tag = r.Tag
		}
		if r.EstimatedMinutes != nil && *r.EstimatedMinutes >= 0 {
			m := int(math.Round(*r.EstimatedMinutes))
			d.EstimatedMinutes = &m
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

var (
	bulletPattern    = regexp.MustCompile(`^[-•*]\s+`)
	numberingPattern = regexp.MustCompile(`^\d+[.)]\s+`)
	nameSeparators   = []string{"。", ":", "："}
)

const (
	separatorWindow = 30
	maxFallbackName = 30
	truncatedName   = 27
)

// FallbackExtract derives one draft per non-blank input line without a
// model. Bullets and numbering are stripped; text before the first
// sentence delimiter within the first 30 characters becomes the name and
// the rest the memo. Every draft gets the first tag, or none.
func FallbackExtract(input string, tags []string) []models.TaskDraft {
	normalized := strings.ReplaceAll(input, `\n`, "\n")
	tag := ""
	if len(tags) > 0 {
		tag = tags[0]
	}

	drafts := []models.TaskDraft{}
	for _, line := range strings.Split(normalized, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cleaned := bulletPattern.ReplaceAllString(line, "")
		cleaned = numberingPattern.ReplaceAllString(cleaned, "")
		cleaned = strings.TrimSpace(cleaned)

		name, memo := splitNameMemo(cleaned)
		if runes := []rune(name); len(runes) > maxFallbackName && memo == "" {
			memo = name
			name = string(runes[:truncatedName]) + "..."
		}
		drafts = append(drafts, models.TaskDraft{Name: name, Tag: tag, Memo: memo})
	}
	return drafts
}

func splitNameMemo(line string) (string, string) {
	runes := []rune(line)
	for _, sep := range nameSeparators {
		sepRunes := []rune(sep)
		idx := runeIndex(runes, sepRunes)
		if idx > 0 && idx < separatorWindow {
			name := strings.TrimSpace(string(runes[:idx]))
			memo := strings.TrimSpace(string(runes[idx+len(sepRunes):]))
			return name, memo
		}
	}
	return line, ""
}

func runeIndex(haystack, needle []rune) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
