package domain

// NotificationKind distinguishes success summaries from failure alerts.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationFailure NotificationKind = "failure"
)

// NotificationField is one labelled line in a notification body.
type NotificationField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Notification is the channel-independent message composed by the dispatcher.
// Channel adapters own the translation to their wire format; this type never
// leaks transport details.
type Notification struct {
	Kind     NotificationKind    `json:"kind"`
	Title    string              `json:"title"`
	Fields   []NotificationField `json:"fields,omitempty"`
	Severity Severity            `json:"severity,omitempty"`
	// Details carries the structured payload paging channels attach verbatim.
	Details map[string]any `json:"details,omitempty"`
}

// Dispatch outcome status tags.
const (
	OutcomeSuccess         = "success"
	OutcomeFailureNotified = "failure_notified"
)

// NotificationOutcome reports which channels actually received a dispatch.
// A channel that errored is logged and left out of NotificationsSent.
type NotificationOutcome struct {
	NotificationsSent []string `json:"notifications_sent"`
	Status            string   `json:"status"`
}
