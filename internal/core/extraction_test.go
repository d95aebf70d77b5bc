package core

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func TestFallbackExtract(t *testing.T) {
	input := "- Reply to agency: fill in materials\n\n2) Check stock\n" +
		"* This line is a very long description without any delimiter at all\n" +
		`Inline\nbreak`
	drafts := FallbackExtract(input, []string{"admin", "ops"})

	if len(drafts) != 5 {
		t.Fatalf("expected 5 drafts, got %d: %+v", len(drafts), drafts)
	}
	if drafts[0].Name != "Reply to agency" || drafts[0].Memo != "fill in materials" {
		t.Errorf("draft 0 = %+v", drafts[0])
	}
	if drafts[1].Name != "Check stock" || drafts[1].Memo != "" {
		t.Errorf("draft 1 = %+v", drafts[1])
	}
	long := drafts[2]
	if long.Name != "This line is a very long de..." {
		t.Errorf("long name = %q", long.Name)
	}
	if !strings.HasPrefix(long.Memo, "This line is a very long description") {
		t.Errorf("long memo = %q", long.Memo)
	}
	if drafts[3].Name != "Inline" || drafts[4].Name != "break" {
		t.Errorf("literal \\n should split lines, got %q and %q", drafts[3].Name, drafts[4].Name)
	}
	for i, d := range drafts {
		if d.Tag != "admin" {
			t.Errorf("draft %d tag = %q, want first tag", i, d.Tag)
		}
	}
}

func TestFallbackExtract_SeparatorRules(t *testing.T) {
	tests := []struct {
		line     string
		wantName string
		wantMemo string
	}{
		{"在庫確認。26箱", "在庫確認", "26箱"},
		{"メール返信：素材を記入", "メール返信", "素材を記入"},
		{":leading colon", ":leading colon", ""},
		{"no tags here", "no tags here", ""},
	}
	for _, tt := range tests {
		d := FallbackExtract(tt.line, nil)[0]
		if d.Name != tt.wantName || d.Memo != tt.wantMemo {
			t.Errorf("FallbackExtract(%q) = %q/%q, want %q/%q", tt.line, d.Name, d.Memo, tt.wantName, tt.wantMemo)
		}
		if d.Tag != "" {
			t.Errorf("tag without vocabulary = %q, want empty", d.Tag)
		}
	}
}

func TestCleanJSONArray(t *testing.T) {
	reply := "Here you go:\n```json\n[{\"name\": \"a\"}]\n```\nThanks"
	if got := CleanJSONArray(reply); got != `[{"name": "a"}]` {
		t.Errorf("CleanJSONArray = %q", got)
	}
}

func TestParseDrafts_LenientAndVocabulary(t *testing.T) {
	reply := `[
		// first task
		{"name": " Reply to agency ", "tag": "admin", "memo": "materials", "estimatedMinutes": 29.6},
		{"name": "A name that is longer than fifteen", "tag": "unknown", "memo": ""},
	]`
	drafts, err := ParseDrafts(reply, []string{"admin"})
	if err != nil {
		t.Fatalf("ParseDrafts: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}
	if drafts[0].Name != "Reply to agency" || drafts[0].Tag != "admin" || *drafts[0].EstimatedMinutes != 30 {
		t.Errorf("draft 0 = %+v", drafts[0])
	}
	if drafts[1].Tag != "" {
		t.Errorf("out-of-vocabulary tag = %q, want empty", drafts[1].Tag)
	}
	if drafts[1].Name != "A name that is longer than fifteen" {
		t.Errorf("names must not be truncated, got %q", drafts[1].Name)
	}
}

func TestExtract_UsesModelReply(t *testing.T) {
	stub := &stubCompleter{reply: `[{"name":"Check stock","tag":"ops","memo":""}]`}
	events := &recordingEvents{}
	x := NewTaskExtractor(stub, discardLogger(), events)

	res, err := x.Extract(context.Background(), "check the stock", []string{"ops"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Source != SourceAI || res.FellBack() || len(res.Drafts) != 1 {
		t.Errorf("result = %+v", res)
	}
	if !strings.Contains(stub.prompts[0], "Allowed tags: ops") {
		t.Error("prompt should carry the tag vocabulary")
	}
	if len(events.types()) != 0 {
		t.Error("no fallback event expected")
	}
}

func TestExtract_FallsBackOnFailure(t *testing.T) {
	cases := map[string]*stubCompleter{
		"transport": {err: errors.New("connection refused")},
		"malformed": {reply: "Sorry, I cannot help with that."},
	}
	for name, stub := range cases {
		t.Run(name, func(t *testing.T) {
			events := &recordingEvents{}
			x := NewTaskExtractor(stub, discardLogger(), events)
			res, err := x.Extract(context.Background(), "one\ntwo", nil)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if !res.FellBack() || res.Err == nil || len(res.Drafts) != 2 {
				t.Errorf("result = %+v", res)
			}
			if got := events.types(); len(got) != 1 || got[0] != EventExtractionFallback {
				t.Errorf("events = %v", got)
			}
		})
	}
}

func TestExtract_NoModelAndEmptyInput(t *testing.T) {
	x := NewTaskExtractor(nil, discardLogger(), nil)
	res, err := x.Extract(context.Background(), "task", nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !errors.Is(res.Err, ErrAIUnavailable) {
		t.Errorf("Err = %v, want ErrAIUnavailable", res.Err)
	}
	if _, err := x.Extract(context.Background(), "   ", nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("blank input err = %v, want ErrEmptyInput", err)
	}
}

func TestSummarizeReview(t *testing.T) {
	stub := &stubCompleter{reply: "```markdown\n## What went well\n- shipped\n```"}
	x := NewTaskExtractor(stub, discardLogger(), nil)
	stats := BuildReview(nil, nil, PeriodMonth, baseTime)

	text, err := x.SummarizeReview(context.Background(), stats)
	if err != nil {
		t.Fatalf("SummarizeReview: %v", err)
	}
	if text != "## What went well\n- shipped" {
		t.Errorf("text = %q", text)
	}
	if !strings.Contains(stub.prompts[0], "1 month") {
		t.Error("prompt should name the period")
	}

	if _, err := NewTaskExtractor(nil, nil, nil).SummarizeReview(context.Background(), stats); !errors.Is(err, ErrAIUnavailable) {
		t.Errorf("err = %v, want ErrAIUnavailable", err)
	}
}
