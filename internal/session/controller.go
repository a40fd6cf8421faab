// Package session owns the client side of a conversation: the message
// history, the block list, and the one-turn-at-a-time state machine that
// drives the relay server.
package session

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"guardrelay/internal/guardrail"
	"guardrelay/internal/models"
)

// State tracks where a session is within a turn.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateBlocked
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Outcome classifies how a turn ended.
type Outcome int

const (
	OutcomeAnswered Outcome = iota
	OutcomePromptBlocked
	OutcomeFailed
)

// TurnResult reports one completed turn. Reply is set for answered turns,
// Notice for blocked or failed ones.
type TurnResult struct {
	Outcome Outcome
	Reply   string
	Notice  string
}

// DefaultGreeting seeds every new conversation.
const DefaultGreeting = "Hello! How can I help you today?"

// emptyReplyPlaceholder stands in for a completed stream that produced no
// text fragments.
const emptyReplyPlaceholder = "(no response)"

// ErrTurnInFlight is returned by Send while a previous turn has not finished.
var ErrTurnInFlight = errors.New("a turn is already in flight")

const maxFailureBody = 1 << 20

// Controller drives one conversation against the relay endpoint. All mutation
// of the conversation and block list happens through Send; turns never
// overlap, so no locking beyond the state guard is needed.
type Controller struct {
	client   *http.Client
	endpoint string

	mu    sync.Mutex
	state State

	conversation []models.Message
	blocklist    BlockList
}

// NewController creates a session seeded with the assistant greeting.
// endpoint is the full URL of the chat route.
func NewController(endpoint string) *Controller {
	return &Controller{
		client:   &http.Client{},
		endpoint: endpoint,
		state:    StateIdle,
		conversation: []models.Message{
			{Role: models.RoleAssistant, Content: DefaultGreeting},
		},
	}
}

// State returns the current turn state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Messages returns a copy of the conversation.
func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, len(c.conversation))
	copy(out, c.conversation)
	return out
}

// BlockedContents returns a copy of the session block list, oldest first.
func (c *Controller) BlockedContents() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocklist.Values()
}

// Send runs one turn: append the user message, call the relay, and either
// accumulate the streamed reply or handle the failure. onFragment, when
// non-nil, observes each streamed text fragment as it arrives.
//
// On a prompt-blocked response the user message is retracted from the
// conversation and its content is added to the block list, so it is never
// included in a later request. Only one turn may be in flight at a time.
func (c *Controller) Send(ctx context.Context, text string, onFragment func(string)) (*TurnResult, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	c.state = StateSending
	c.conversation = append(c.conversation, models.Message{Role: models.RoleUser, Content: text})
	request := c.buildRequestLocked()
	c.mu.Unlock()

	defer c.setState(StateIdle)

	resp, err := c.post(ctx, request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.handleFailure(resp)
	}

	c.setState(StateStreaming)
	reply, err := c.consumeStream(resp.Body, onFragment)
	if reply == "" {
		reply = emptyReplyPlaceholder
	}
	c.mu.Lock()
	c.conversation = append(c.conversation, models.Message{Role: models.RoleAssistant, Content: reply})
	c.mu.Unlock()
	if err != nil {
		return &TurnResult{Outcome: OutcomeAnswered, Reply: reply}, fmt.Errorf("stream interrupted: %w", err)
	}
	return &TurnResult{Outcome: OutcomeAnswered, Reply: reply}, nil
}

// buildRequestLocked filters the conversation against the local block list
// before sending. The server re-filters independently; this is defense in
// depth on the client side.
func (c *Controller) buildRequestLocked() models.ChatRequest {
	messages := make([]models.Message, 0, len(c.conversation))
	for _, msg := range c.conversation {
		if msg.Role == models.RoleUser && c.blocklist.Contains(msg.Content) {
			continue
		}
		messages = append(messages, msg)
	}
	return models.ChatRequest{
		Messages:            messages,
		BlockedUserContents: c.blocklist.Values(),
	}
}

func (c *Controller) post(ctx context.Context, request models.ChatRequest) (*http.Response, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send turn: %w", err)
	}
	return resp, nil
}

func (c *Controller) handleFailure(resp *http.Response) (*TurnResult, error) {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxFailureBody))
	notice := gjson.GetBytes(body, "error").String()
	if notice == "" {
		notice = guardrail.GenericFailureMessage
	}

	if notice == guardrail.PromptBlockedMessage {
		c.mu.Lock()
		c.state = StateBlocked
		if retracted, ok := c.retractLastUserLocked(); ok {
			c.blocklist.Add(retracted)
		}
		c.mu.Unlock()
		return &TurnResult{Outcome: OutcomePromptBlocked, Notice: notice}, nil
	}
	// Response-blocked and generic failures do not retract the turn.
	return &TurnResult{Outcome: OutcomeFailed, Notice: notice}, nil
}

// retractLastUserLocked removes the nearest user entry from the end of the
// conversation, exactly one, and returns its content.
func (c *Controller) retractLastUserLocked() (string, bool) {
	for i := len(c.conversation) - 1; i >= 0; i-- {
		if c.conversation[i].Role == models.RoleUser {
			content := c.conversation[i].Content
			c.conversation = append(c.conversation[:i], c.conversation[i+1:]...)
			return content, true
		}
	}
	return "", false
}

// consumeStream accumulates the text fragments from the event stream. Each
// record's payload is an opaque structured fragment; the reply text lives in
// its `response` field.
func (c *Controller) consumeStream(body io.Reader, onFragment func(string)) (string, error) {
	var reply strings.Builder
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "" || payload == "[DONE]" {
			continue
		}
		fragment := gjson.Get(payload, "response").String()
		if fragment == "" {
			continue
		}
		reply.WriteString(fragment)
		if onFragment != nil {
			onFragment(fragment)
		}
	}
	return reply.String(), scanner.Err()
}

func (c *Controller) setState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}
