package models

// Message is a single conversation turn. Ordering is significant and content
// equality is exact string match (no normalization).

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
