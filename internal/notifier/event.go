// Package notifier delivers workflow notifications over RabbitMQ.  The
// engine publishes after a state change is committed; delivery problems are
// logged and never ripple back into the workflow.
package notifier

// Event kinds carried on the notification queue.
const (
	KindCaseCreated  = "case.created"
	KindCaseAdvanced = "case.advanced"
	KindUserInvited  = "user.invited"
)

// Event is the envelope every notification travels in.  Extra carries
// kind-specific detail so downstream consumers can render a message
// without querying the primary database.
type Event struct {
	Kind       string            `json:"kind"`
	CaseID     uint64            `json:"case_id,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
	OccurredAt string            `json:"occurred_at"`
}
