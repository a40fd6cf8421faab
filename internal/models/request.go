package models

// ChatRequest is the body of a chat turn sent by the client. Both fields are
// optional on the wire; missing or malformed values decode as empty, they are
// never treated as fatal.
type ChatRequest struct {
	Messages            []Message `json:"messages"`
	BlockedUserContents []string  `json:"blockedUserContents"`
}
