package event

type Type string

const (
	TypeRequestCompleted Type = "request.completed"
	TypeLoginSucceeded   Type = "auth.login_succeeded"
	TypeLoginFailed      Type = "auth.login_failed"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
	ActorID   string `json:"actor_id,omitempty"`
}

type Publisher interface {
	Publish(e Event)
}

type Bus interface {
	Publisher
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
