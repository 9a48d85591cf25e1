package dispatcher

import (
	"context"

	"github.com/hrygo/concierge/internal/errors"
)

// TaskService is the narrow contract on the task collaborator.
type TaskService interface {
	CreatePage(ctx context.Context, title, dueDate string) error
}

// CalendarService is the narrow contract on the calendar collaborator.
type CalendarService interface {
	InsertEvent(ctx context.Context, summary, start, end string) (link string, err error)
}

// Actuator performs exactly one outbound write per turn. An unconfigured
// collaborator degrades to a typed failure instead of crashing the turn;
// remote errors surface as a generic failure with message text.
type Actuator struct {
	tasks    TaskService
	calendar CalendarService
}

// NewActuator creates an actuator. Either collaborator may be nil.
func NewActuator(tasks TaskService, calendar CalendarService) *Actuator {
	return &Actuator{tasks: tasks, calendar: calendar}
}

// CreateTask submits a create-page request for the record.
func (a *Actuator) CreateTask(ctx context.Context, rec *TaskRecord) error {
	if a.tasks == nil {
		return errors.ConfigMissing("task collaborator is not configured")
	}
	if err := a.tasks.CreatePage(ctx, rec.Name, rec.DueDate); err != nil {
		return errors.RemoteCallFailure("task creation failed", err)
	}
	return nil
}

// CreateEvent submits an event-insertion request for the record and returns
// the created event's browseable link.
func (a *Actuator) CreateEvent(ctx context.Context, rec *EventRecord) (string, error) {
	if a.calendar == nil {
		return "", errors.ConfigMissing("calendar collaborator is not configured")
	}
	link, err := a.calendar.InsertEvent(ctx, rec.Summary, rec.StartTime, rec.EndTime)
	if err != nil {
		return "", errors.RemoteCallFailure("event insertion failed", err)
	}
	return link, nil
}
