// Package guardrail classifies failed model-call responses and maps them to
// the fixed user-facing messages surfaced to clients.
package guardrail

import "github.com/tidwall/gjson"

// Upstream error codes given bespoke handling; every other code falls through
// to message passthrough or the generic fallback.
const (
	CodePromptBlocked   = 2016
	CodeResponseBlocked = 2017
)

const (
	PromptBlockedMessage   = "Prompt was blocked by guardrails."
	ResponseBlockedMessage = "Response was blocked by guardrails."
	GenericFailureMessage  = "An error occurred while processing your request."
)

// Classification is the code/message pair extracted from a failure body.
// HasCode distinguishes code 0 from no code at all.
type Classification struct {
	Code    int
	HasCode bool
	Message string
}

// Classify inspects an arbitrary failure body and extracts an error code and
// message if any known shape matches. It never panics: anything unparseable
// degrades to the zero Classification.
//
// Shapes are tried in order: an `error` array of objects (element 0 wins), an
// `errors` array with the same shape, a string `error`, a string `message`,
// then a string `detail`.
func Classify(body []byte) Classification {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return Classification{}
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return Classification{}
	}

	for _, field := range []string{"error", "errors"} {
		arr := root.Get(field)
		if !arr.IsArray() {
			continue
		}
		items := arr.Array()
		if len(items) == 0 {
			continue
		}
		first := items[0]
		cls := Classification{Message: first.Get("message").String()}
		if code := first.Get("code"); code.Exists() {
			cls.Code = int(code.Int())
			cls.HasCode = true
		}
		return cls
	}

	for _, field := range []string{"error", "message", "detail"} {
		if value := root.Get(field); value.Type == gjson.String {
			return Classification{Message: value.String()}
		}
	}
	return Classification{}
}

// UserMessage maps a classification to the text surfaced to the client. The
// guardrail codes get their fixed sentences, any other extracted message is
// used verbatim, and everything else falls back to a generic error.
func UserMessage(cls Classification) string {
	switch {
	case cls.HasCode && cls.Code == CodePromptBlocked:
		return PromptBlockedMessage
	case cls.HasCode && cls.Code == CodeResponseBlocked:
		return ResponseBlockedMessage
	case cls.Message != "":
		return cls.Message
	default:
		return GenericFailureMessage
	}
}
