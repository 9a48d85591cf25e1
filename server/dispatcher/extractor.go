package dispatcher

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/hrygo/concierge/internal/errors"
)

// CompletionService is the narrow contract on the completion collaborator:
// ordered text segments in, completion text out.
type CompletionService interface {
	Complete(ctx context.Context, parts ...string) (string, error)
}

// TaskRecord holds the structured fields for a task creation.
type TaskRecord struct {
	Name    string `json:"task_name"`
	DueDate string `json:"due_date"` // YYYY-MM-DD, "" when absent
}

// EventRecord holds the structured fields for an event insertion. Timestamps
// stay strings end to end; malformed values are forwarded to the calendar
// collaborator unvalidated.
type EventRecord struct {
	Summary   string `json:"summary"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// EmailClassification is the superset shape the email path extracts before
// narrowing into a TaskRecord or an EventRecord.
type EmailClassification struct {
	Action    string `json:"action"` // task or event
	TaskName  string `json:"task_name"`
	DueDate   string `json:"due_date"`
	Summary   string `json:"summary"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Task narrows the classification into a task record. The summary stands in
// for a missing task name on the deadline-override path.
func (c *EmailClassification) Task() *TaskRecord {
	name := c.TaskName
	if strings.TrimSpace(name) == "" {
		name = c.Summary
	}
	return &TaskRecord{Name: name, DueDate: c.DueDate}
}

// Event narrows the classification into an event record.
func (c *EmailClassification) Event() *EventRecord {
	return &EventRecord{Summary: c.Summary, StartTime: c.StartTime, EndTime: c.EndTime}
}

// Extractor turns free text into structured records through the completion
// collaborator. Every parse is fallible: required fields are re-checked even
// though the instruction requests them.
type Extractor struct {
	llm              CompletionService
	deadlineKeywords []string
	now              func() time.Time
}

// NewExtractor creates an extractor. deadlineKeywords drive the email-path
// override and come from configuration.
func NewExtractor(llm CompletionService, deadlineKeywords []string) *Extractor {
	return &Extractor{
		llm:              llm,
		deadlineKeywords: deadlineKeywords,
		now:              time.Now,
	}
}

// ExtractTask extracts a task record from the utterance.
func (e *Extractor) ExtractTask(ctx context.Context, utterance string) (*TaskRecord, error) {
	raw, err := e.complete(ctx, taskPrompt(e.now()), utterance)
	if err != nil {
		return nil, err
	}

	var rec TaskRecord
	if err := decodeFenced(raw, &rec); err != nil {
		return nil, err
	}

	rec.Name = strings.TrimSpace(rec.Name)
	if rec.Name == "" {
		return nil, errors.ExtractionFieldMissing("task_name")
	}

	rec.DueDate = e.normalizeDueDate(rec.DueDate)
	return &rec, nil
}

// ExtractEvent extracts an event record from the utterance. A missing end
// time defaults to one hour after the start time.
func (e *Extractor) ExtractEvent(ctx context.Context, utterance string) (*EventRecord, error) {
	raw, err := e.complete(ctx, eventPrompt(e.now()), utterance)
	if err != nil {
		return nil, err
	}

	var rec EventRecord
	if err := decodeFenced(raw, &rec); err != nil {
		return nil, err
	}

	if strings.TrimSpace(rec.Summary) == "" {
		return nil, errors.ExtractionFieldMissing("summary")
	}
	rec.StartTime = cleanNull(rec.StartTime)
	if rec.StartTime == "" {
		return nil, errors.ExtractionFieldMissing("start_time")
	}

	rec.EndTime = cleanNull(rec.EndTime)
	if rec.EndTime == "" {
		rec.EndTime = defaultEndTime(rec.StartTime)
	}

	return &rec, nil
}

// ExtractEmail classifies a whole email message into the superset shape and
// applies the deadline override: the upstream classifier systematically
// labels submission-deadline phrasing as a calendar event, so an event whose
// summary carries deadline language is forced back to a task, with the due
// date taken from the date portion of the original start time. The override
// fires only on this path, never on the direct event path.
func (e *Extractor) ExtractEmail(ctx context.Context, utterance string) (*EmailClassification, error) {
	raw, err := e.complete(ctx, emailPrompt(e.now()), utterance)
	if err != nil {
		return nil, err
	}

	var cls EmailClassification
	if err := decodeFenced(raw, &cls); err != nil {
		return nil, err
	}

	cls.Action = strings.ToLower(strings.TrimSpace(cls.Action))
	if cls.Action != "task" && cls.Action != "event" {
		return nil, errors.ExtractionFieldMissing("action")
	}
	cls.TaskName = cleanNull(cls.TaskName)
	cls.DueDate = cleanNull(cls.DueDate)
	cls.Summary = cleanNull(cls.Summary)
	cls.StartTime = cleanNull(cls.StartTime)
	cls.EndTime = cleanNull(cls.EndTime)

	if cls.Action == "event" && e.hasDeadlineKeyword(cls.Summary) {
		cls.Action = "task"
		cls.DueDate = datePortion(cls.StartTime)
	}

	switch cls.Action {
	case "task":
		if strings.TrimSpace(cls.Task().Name) == "" {
			return nil, errors.ExtractionFieldMissing("task_name")
		}
	case "event":
		if strings.TrimSpace(cls.Summary) == "" {
			return nil, errors.ExtractionFieldMissing("summary")
		}
		if cls.StartTime == "" {
			return nil, errors.ExtractionFieldMissing("start_time")
		}
		if cls.EndTime == "" {
			cls.EndTime = defaultEndTime(cls.StartTime)
		}
	}

	return &cls, nil
}

func (e *Extractor) complete(ctx context.Context, instruction, utterance string) (string, error) {
	if e.llm == nil {
		return "", errors.ConfigMissing("completion collaborator is not configured")
	}
	raw, err := e.llm.Complete(ctx, instruction, utterance)
	if err != nil {
		return "", errors.RemoteCallFailure("completion request failed", err)
	}
	return raw, nil
}

func (e *Extractor) hasDeadlineKeyword(summary string) bool {
	lower := strings.ToLower(summary)
	for _, kw := range e.deadlineKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// normalizeDueDate applies the year-inference rule: a year-less date the
// model resolved into the current year, landing in the past, rolls forward
// one year. Dates in other years were stated explicitly and are preserved,
// as are unparseable values.
func (e *Extractor) normalizeDueDate(due string) string {
	due = cleanNull(due)
	if due == "" {
		return ""
	}

	parsed, err := time.Parse("2006-01-02", due)
	if err != nil {
		return due
	}

	now := e.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if parsed.Year() == now.Year() && parsed.Before(today) {
		return parsed.AddDate(1, 0, 0).Format("2006-01-02")
	}
	return due
}

// decodeFenced implements the shared parsing contract: strip the literal
// fence markers, trim, and parse the remainder as a single JSON value. An
// unparseable payload gets one repair attempt before failing.
func decodeFenced(raw string, v any) error {
	cleaned := stripFences(raw)

	err := json.Unmarshal([]byte(cleaned), v)
	if err == nil {
		return nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(cleaned)
	if repairErr != nil {
		return errors.ExtractionParse("model output is not valid JSON", err)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return errors.ExtractionParse("model output is not valid JSON", err)
	}
	return nil
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// defaultEndTime returns start + 1 hour. An unparseable start is returned
// as-is so the pass-through contract holds.
func defaultEndTime(start string) string {
	for _, layout := range []string{"2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, start); err == nil {
			return t.Add(time.Hour).Format(layout)
		}
	}
	return start
}

// datePortion takes the text before the time separator of an ISO timestamp.
func datePortion(ts string) string {
	if idx := strings.Index(ts, "T"); idx >= 0 {
		return ts[:idx]
	}
	return ts
}

func cleanNull(s string) string {
	s = strings.TrimSpace(s)
	if s == "null" {
		return ""
	}
	return s
}
