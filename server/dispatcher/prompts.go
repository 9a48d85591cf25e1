package dispatcher

import (
	"fmt"
	"time"
)

const taskPromptTemplate = `Extract a Notion task from the user's text as JSON:
- task_name: Short imperative task name
- due_date: Due date (YYYY-MM-DD) or null if none is mentioned
Rules:
- Today is %s. Use this to interpret "tomorrow", "next week", etc.
- If the user states no year, assume the current year; if that date is
  already past, use next year instead.
- Respond ONLY with the JSON, inside ` + "```json ... ```" + `.`

const eventPromptTemplate = `Extract Google Calendar event info from the user's text as JSON:
- summary: Event title
- start_time: Event start time (ISO 8601: YYYY-MM-DDTHH:MM:SS)
- end_time: Event end time (ISO 8601: YYYY-MM-DDTHH:MM:SS)
Rules:
- Current time is %s. Use this to interpret "tomorrow", "next week", etc.
- If no end time, assume 1 hour duration.
- Respond ONLY with the JSON, inside ` + "```json ... ```" + `.`

const emailPromptTemplate = `Classify the user's email text and extract fields as one JSON object:
- action: "task" if the email asks for something with a deadline, "event" if it announces a meeting or appointment
- task_name: Task name, or null when action is "event"
- due_date: Due date (YYYY-MM-DD), or null
- summary: Event title, or null when action is "task"
- start_time: Event start time (ISO 8601: YYYY-MM-DDTHH:MM:SS), or null
- end_time: Event end time (ISO 8601: YYYY-MM-DDTHH:MM:SS), or null
Rules:
- Current time is %s. Use this to interpret relative dates.
- Leave unused fields null.
- Respond ONLY with the JSON, inside ` + "```json ... ```" + `.`

func taskPrompt(now time.Time) string {
	return fmt.Sprintf(taskPromptTemplate, now.Format("2006-01-02"))
}

func eventPrompt(now time.Time) string {
	return fmt.Sprintf(eventPromptTemplate, now.Format(time.RFC3339))
}

func emailPrompt(now time.Time) string {
	return fmt.Sprintf(emailPromptTemplate, now.Format(time.RFC3339))
}
