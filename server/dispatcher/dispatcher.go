package dispatcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hrygo/concierge/internal/errors"
	"github.com/hrygo/concierge/internal/observability"
)

// Dispatcher runs one conversational turn through the three stages:
// route, extract, actuate. Every failure at every stage resolves to a
// plain-text assistant reply; nothing propagates out of a turn.
type Dispatcher struct {
	router    *Router
	extractor *Extractor
	actuator  *Actuator
	llm       CompletionService
	avail     Availability
	logger    *slog.Logger
}

// New wires a dispatcher from the configured collaborators. Any of them may
// be nil; the matching branch degrades to unavailable.
func New(llm CompletionService, tasks TaskService, calendar CalendarService, deadlineKeywords []string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		router:    NewRouter(),
		extractor: NewExtractor(llm, deadlineKeywords),
		actuator:  NewActuator(tasks, calendar),
		llm:       llm,
		avail: Availability{
			Task:       tasks != nil,
			Calendar:   calendar != nil,
			Completion: llm != nil,
		},
		logger: logger,
	}
}

// Availability returns the collaborator availability the router sees.
func (d *Dispatcher) Availability() Availability {
	return d.avail
}

// HandleTurn runs one full turn: Idle -> Routed -> (Extracting) -> Acting ->
// Responded -> Idle. Both transcript entries are appended before the call
// returns, and the per-session semaphore keeps turn ordering total.
func (d *Dispatcher) HandleTurn(ctx context.Context, sess *Session, utterance string) (string, Intent) {
	if err := sess.turnSem.Acquire(ctx, 1); err != nil {
		return "The turn was canceled before it started.", IntentUnavailable
	}
	defer sess.turnSem.Release(1)

	turnCtx := observability.NewTurnContext(d.logger, sess.ID)
	sess.Transcript.Append(RoleUser, utterance)

	intent := d.router.Route(utterance, d.avail)
	turnCtx.Debug("turn routed", slog.String(observability.LogFieldIntent, string(intent)))
	reply := d.respond(ctx, turnCtx, intent, utterance)

	sess.Transcript.Append(RoleAssistant, reply)
	turnCtx.Info("turn completed",
		slog.String(observability.LogFieldIntent, string(intent)),
		slog.Int64(observability.LogFieldDuration, turnCtx.DurationMs()))

	return reply, intent
}

func (d *Dispatcher) respond(ctx context.Context, turnCtx *observability.TurnContext, intent Intent, utterance string) string {
	switch intent {
	case IntentTask:
		return d.respondTask(ctx, turnCtx, utterance)
	case IntentEvent:
		return d.respondEvent(ctx, turnCtx, utterance)
	case IntentEmail:
		return d.respondEmail(ctx, turnCtx, utterance)
	case IntentChat:
		return d.respondChat(ctx, turnCtx, utterance)
	default:
		return "The assistant is not initialized: no completion collaborator is configured."
	}
}

func (d *Dispatcher) respondTask(ctx context.Context, turnCtx *observability.TurnContext, utterance string) string {
	rec, err := d.extractor.ExtractTask(ctx, utterance)
	if err != nil {
		turnCtx.Warn("task extraction failed", slog.String("error", err.Error()), errorCodeAttr(err))
		return failureMessage(err)
	}
	if err := d.actuator.CreateTask(ctx, rec); err != nil {
		turnCtx.Error("task creation failed", err, errorCodeAttr(err))
		return failureMessage(err)
	}
	return taskConfirmation(rec)
}

func (d *Dispatcher) respondEvent(ctx context.Context, turnCtx *observability.TurnContext, utterance string) string {
	rec, err := d.extractor.ExtractEvent(ctx, utterance)
	if err != nil {
		turnCtx.Warn("event extraction failed", slog.String("error", err.Error()), errorCodeAttr(err))
		return failureMessage(err)
	}
	link, err := d.actuator.CreateEvent(ctx, rec)
	if err != nil {
		turnCtx.Error("event insertion failed", err, errorCodeAttr(err))
		return failureMessage(err)
	}
	return eventConfirmation(rec, link)
}

func (d *Dispatcher) respondEmail(ctx context.Context, turnCtx *observability.TurnContext, utterance string) string {
	cls, err := d.extractor.ExtractEmail(ctx, utterance)
	if err != nil {
		turnCtx.Warn("email classification failed", slog.String("error", err.Error()), errorCodeAttr(err))
		return failureMessage(err)
	}

	if cls.Action == "task" {
		rec := cls.Task()
		if err := d.actuator.CreateTask(ctx, rec); err != nil {
			turnCtx.Error("task creation failed", err, errorCodeAttr(err))
			return failureMessage(err)
		}
		return taskConfirmation(rec)
	}

	rec := cls.Event()
	link, err := d.actuator.CreateEvent(ctx, rec)
	if err != nil {
		turnCtx.Error("event insertion failed", err, errorCodeAttr(err))
		return failureMessage(err)
	}
	return eventConfirmation(rec, link)
}

func (d *Dispatcher) respondChat(ctx context.Context, turnCtx *observability.TurnContext, utterance string) string {
	reply, err := d.llm.Complete(ctx, utterance)
	if err != nil {
		wrapped := errors.Wrap(err, errors.ErrCodeRemoteCallFailure, "completion request failed")
		turnCtx.Error("chat completion failed", err, errorCodeAttr(wrapped))
		return failureMessage(wrapped)
	}
	return reply
}

// errorCodeAttr exposes the pipeline error code as a structured log field.
func errorCodeAttr(err error) slog.Attr {
	return slog.String(observability.LogFieldErrorCode,
		string(errors.GetCodeFromError(err, errors.ErrCodeRemoteCallFailure)))
}

func taskConfirmation(rec *TaskRecord) string {
	if rec.DueDate != "" {
		return fmt.Sprintf("OK. Added task %q (due %s) to Notion.", rec.Name, rec.DueDate)
	}
	return fmt.Sprintf("OK. Added task %q to Notion.", rec.Name)
}

func eventConfirmation(rec *EventRecord, link string) string {
	if link != "" {
		return fmt.Sprintf("OK. Added event %q to the calendar.\n%s", rec.Summary, link)
	}
	return fmt.Sprintf("OK. Added event %q to the calendar.", rec.Summary)
}

// failureMessage maps a pipeline error to the assistant's reply text.
func failureMessage(err error) string {
	switch errors.GetCodeFromError(err, errors.ErrCodeRemoteCallFailure) {
	case errors.ErrCodeConfigMissing:
		return fmt.Sprintf("That action is unavailable: %s.", trimCode(err))
	case errors.ErrCodeExtractionParse:
		return "I could not understand the details. Please be more specific about the date and time."
	case errors.ErrCodeExtractionFieldMissing:
		return fmt.Sprintf("I could not extract everything I need (%s). Please rephrase.", trimCode(err))
	default:
		return fmt.Sprintf("The request failed: %s.", trimCode(err))
	}
}

func trimCode(err error) string {
	if dErr, ok := err.(*errors.DispatchError); ok {
		return dErr.Message
	}
	return err.Error()
}
