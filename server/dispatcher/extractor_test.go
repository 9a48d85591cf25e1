package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/concierge/internal/errors"
)

type fakeCompletion struct {
	response string
	err      error
	gotParts []string
}

func (f *fakeCompletion) Complete(_ context.Context, parts ...string) (string, error) {
	f.gotParts = parts
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestExtractor(response string) (*Extractor, *fakeCompletion) {
	llm := &fakeCompletion{response: response}
	e := NewExtractor(llm, []string{"due", "deadline", "submit", "due date", "提出", "締め切り", "締切"})
	// Fixed clock: 2025-06-01 12:00 UTC
	e.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return e, llm
}

func TestExtractTask(t *testing.T) {
	e, llm := newTestExtractor("```json\n{\"task_name\": \"buy milk\", \"due_date\": \"2025-06-02\"}\n```")

	rec, err := e.ExtractTask(context.Background(), "add milk-buying task due tomorrow")
	require.NoError(t, err)
	require.Equal(t, "buy milk", rec.Name)
	require.Equal(t, "2025-06-02", rec.DueDate)

	// Instruction first, user content second
	require.Len(t, llm.gotParts, 2)
	require.Contains(t, llm.gotParts[0], "2025-06-01")
	require.Equal(t, "add milk-buying task due tomorrow", llm.gotParts[1])
}

func TestExtractTaskBareJSON(t *testing.T) {
	e, _ := newTestExtractor(`{"task_name": "buy milk", "due_date": null}`)

	rec, err := e.ExtractTask(context.Background(), "add a task")
	require.NoError(t, err)
	require.Equal(t, "buy milk", rec.Name)
	require.Equal(t, "", rec.DueDate)
}

func TestExtractTaskRepairsDamagedJSON(t *testing.T) {
	// Truncated output: repairable, so extraction still succeeds
	e, _ := newTestExtractor("```json\n{\"task_name\": \"buy milk\", \"due_date\": \"2025-06-02\"\n```")

	rec, err := e.ExtractTask(context.Background(), "add a task")
	require.NoError(t, err)
	require.Equal(t, "buy milk", rec.Name)
}

func TestExtractTaskProseIsParseError(t *testing.T) {
	e, _ := newTestExtractor("Sorry, I can't find a task in that message.")

	_, err := e.ExtractTask(context.Background(), "add a task")
	require.Error(t, err)
	require.True(t, errors.IsCode(err, errors.ErrCodeExtractionParse))
}

func TestExtractTaskMissingName(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "absent", response: "```json\n{\"due_date\": \"2025-06-02\"}\n```"},
		{name: "empty", response: "```json\n{\"task_name\": \"\", \"due_date\": null}\n```"},
		{name: "whitespace", response: "```json\n{\"task_name\": \"  \", \"due_date\": null}\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestExtractor(tt.response)
			_, err := e.ExtractTask(context.Background(), "add a task")
			require.Error(t, err)
			require.True(t, errors.IsCode(err, errors.ErrCodeExtractionFieldMissing))
		})
	}
}

// A current-year due date the model resolved into the past rolls forward one
// year; explicitly stated years are preserved.
func TestExtractTaskDueDateYearRollover(t *testing.T) {
	tests := []struct {
		name string
		due  string
		want string
	}{
		{name: "past date rolls to next year", due: "2025-03-10", want: "2026-03-10"},
		{name: "future date unchanged", due: "2025-06-02", want: "2025-06-02"},
		{name: "today unchanged", due: "2025-06-01", want: "2025-06-01"},
		{name: "explicit previous year preserved", due: "2024-12-31", want: "2024-12-31"},
		{name: "explicit older year preserved", due: "2023-05-01", want: "2023-05-01"},
		{name: "unparseable passes through", due: "next friday", want: "next friday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestExtractor(`{"task_name": "report", "due_date": "` + tt.due + `"}`)
			rec, err := e.ExtractTask(context.Background(), "add a task")
			require.NoError(t, err)
			require.Equal(t, tt.want, rec.DueDate)
		})
	}
}

func TestExtractEvent(t *testing.T) {
	e, _ := newTestExtractor("```json\n{\"summary\": \"Team sync\", \"start_time\": \"2025-06-02T10:00:00\", \"end_time\": \"2025-06-02T11:30:00\"}\n```")

	rec, err := e.ExtractEvent(context.Background(), "schedule a team sync")
	require.NoError(t, err)
	require.Equal(t, "Team sync", rec.Summary)
	require.Equal(t, "2025-06-02T10:00:00", rec.StartTime)
	require.Equal(t, "2025-06-02T11:30:00", rec.EndTime)
}

// Only start_time present: end_time is always start_time + 1 hour.
func TestExtractEventDefaultEndTime(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantEnd  string
	}{
		{
			name:     "missing end_time",
			response: `{"summary": "Team sync", "start_time": "2025-06-02T10:00:00"}`,
			wantEnd:  "2025-06-02T11:00:00",
		},
		{
			name:     "null end_time",
			response: `{"summary": "Team sync", "start_time": "2025-06-02T23:30:00", "end_time": null}`,
			wantEnd:  "2025-06-03T00:30:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestExtractor(tt.response)
			rec, err := e.ExtractEvent(context.Background(), "schedule it")
			require.NoError(t, err)
			require.Equal(t, tt.wantEnd, rec.EndTime)
		})
	}
}

func TestExtractEventMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "missing summary", response: `{"start_time": "2025-06-02T10:00:00"}`},
		{name: "missing start_time", response: `{"summary": "Team sync"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestExtractor(tt.response)
			_, err := e.ExtractEvent(context.Background(), "schedule it")
			require.Error(t, err)
			require.True(t, errors.IsCode(err, errors.ErrCodeExtractionFieldMissing))
		})
	}
}

// The deadline override never fires on the direct event path.
func TestExtractEventNoDeadlineOverride(t *testing.T) {
	e, _ := newTestExtractor(`{"summary": "Report submission deadline", "start_time": "2025-03-10T09:00:00"}`)

	rec, err := e.ExtractEvent(context.Background(), "schedule the report deadline")
	require.NoError(t, err)
	require.Equal(t, "Report submission deadline", rec.Summary)
	require.Equal(t, "2025-03-10T09:00:00", rec.StartTime)
}

func TestExtractEmailTask(t *testing.T) {
	e, _ := newTestExtractor("```json\n{\"action\": \"task\", \"task_name\": \"send report\", \"due_date\": \"2025-06-10\", \"summary\": null, \"start_time\": null, \"end_time\": null}\n```")

	cls, err := e.ExtractEmail(context.Background(), "email: please send the report by June 10")
	require.NoError(t, err)
	require.Equal(t, "task", cls.Action)

	rec := cls.Task()
	require.Equal(t, "send report", rec.Name)
	require.Equal(t, "2025-06-10", rec.DueDate)
}

func TestExtractEmailEvent(t *testing.T) {
	e, _ := newTestExtractor(`{"action": "event", "task_name": null, "due_date": null, "summary": "Quarterly review", "start_time": "2025-06-05T14:00:00", "end_time": null}`)

	cls, err := e.ExtractEmail(context.Background(), "email: quarterly review on June 5 at 2pm")
	require.NoError(t, err)
	require.Equal(t, "event", cls.Action)

	rec := cls.Event()
	require.Equal(t, "Quarterly review", rec.Summary)
	require.Equal(t, "2025-06-05T15:00:00", rec.EndTime)
}

// Deadline override: an event whose summary carries deadline language is
// forced back to a task, with the due date taken from the date portion of
// the original start time.
func TestExtractEmailDeadlineOverride(t *testing.T) {
	e, _ := newTestExtractor(`{"action": "event", "task_name": null, "due_date": null, "summary": "Report submission deadline", "start_time": "2025-03-10T09:00:00", "end_time": null}`)

	cls, err := e.ExtractEmail(context.Background(), "email about the report deadline")
	require.NoError(t, err)
	require.Equal(t, "task", cls.Action)
	require.Equal(t, "2025-03-10", cls.DueDate)

	rec := cls.Task()
	require.Equal(t, "Report submission deadline", rec.Name)
	require.Equal(t, "2025-03-10", rec.DueDate)
}

func TestExtractEmailDeadlineOverrideJapanese(t *testing.T) {
	e, _ := newTestExtractor(`{"action": "event", "task_name": null, "due_date": null, "summary": "レポート提出", "start_time": "2025-07-01T17:00:00", "end_time": null}`)

	cls, err := e.ExtractEmail(context.Background(), "メールの内容を処理して")
	require.NoError(t, err)
	require.Equal(t, "task", cls.Action)
	require.Equal(t, "2025-07-01", cls.DueDate)
}

func TestExtractEmailInvalidAction(t *testing.T) {
	e, _ := newTestExtractor(`{"action": "reminder", "summary": "x"}`)

	_, err := e.ExtractEmail(context.Background(), "some email")
	require.Error(t, err)
	require.True(t, errors.IsCode(err, errors.ErrCodeExtractionFieldMissing))
}

func TestExtractorUnconfiguredCompletion(t *testing.T) {
	e := NewExtractor(nil, nil)

	_, err := e.ExtractTask(context.Background(), "add a task")
	require.Error(t, err)
	require.True(t, errors.IsCode(err, errors.ErrCodeConfigMissing))
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "fenced json", in: "```json\n{\"a\":1}\n```", want: "{\"a\":1}"},
		{name: "plain fence", in: "```\n{\"a\":1}\n```", want: "{\"a\":1}"},
		{name: "no fence", in: "  {\"a\":1}  ", want: "{\"a\":1}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences() = %q, want %q", got, tt.want)
			}
		})
	}
}
