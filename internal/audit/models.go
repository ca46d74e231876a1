package audit

import "time"

// Category routes events to retention classes.
type Category string

const (
	CategorySecurity   Category = "security"
	CategoryCompliance Category = "compliance"
)

type Action string

const (
	ActionAccountRegistered Action = "account_registered"
	ActionLoginSucceeded    Action = "login_succeeded"
	ActionLoginFailed       Action = "login_failed"
	ActionPasswordChanged   Action = "password_changed"
	ActionAccountUpdated    Action = "account_updated"
	ActionRoleChanged       Action = "role_changed"
	ActionActiveChanged     Action = "active_changed"
	ActionAccountDeleted    Action = "account_deleted"
	ActionItemDeleted       Action = "item_deleted"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Category  Category  `json:"category"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	AccountID string    `json:"account_id,omitempty"`
	// ActorID differs from AccountID when an administrator acts on another account.
	ActorID   string `json:"actor_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Browser   string `json:"browser,omitempty"`
	OS        string `json:"os,omitempty"`
	Mobile    bool   `json:"mobile,omitempty"`
}
