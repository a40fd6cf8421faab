package guardrail

import "testing"

func TestClassifyShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want Classification
	}{
		{
			name: "error array with code and message",
			body: `{"error":[{"code":2016,"message":"prompt rejected"}]}`,
			want: Classification{Code: 2016, HasCode: true, Message: "prompt rejected"},
		},
		{
			name: "errors array",
			body: `{"errors":[{"code":2017,"message":"response rejected"}]}`,
			want: Classification{Code: 2017, HasCode: true, Message: "response rejected"},
		},
		{
			name: "error array element without code",
			body: `{"error":[{"message":"just text"}]}`,
			want: Classification{Message: "just text"},
		},
		{
			name: "string error field",
			body: `{"error":"upstream exploded"}`,
			want: Classification{Message: "upstream exploded"},
		},
		{
			name: "string message field",
			body: `{"message":"oops"}`,
			want: Classification{Message: "oops"},
		},
		{
			name: "string detail field",
			body: `{"detail":"not found"}`,
			want: Classification{Message: "not found"},
		},
		{
			name: "error array takes priority over message",
			body: `{"error":[{"code":7,"message":"from array"}],"message":"ignored"}`,
			want: Classification{Code: 7, HasCode: true, Message: "from array"},
		},
		{
			name: "empty error array falls through",
			body: `{"error":[],"message":"fallback"}`,
			want: Classification{Message: "fallback"},
		},
		{
			name: "empty object",
			body: `{}`,
			want: Classification{},
		},
		{
			name: "null body",
			body: `null`,
			want: Classification{},
		},
		{
			name: "invalid json",
			body: `{"error": [`,
			want: Classification{},
		},
		{
			name: "empty body",
			body: ``,
			want: Classification{},
		},
		{
			name: "non-object body",
			body: `"just a string"`,
			want: Classification{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify([]byte(tc.body))
			if got != tc.want {
				t.Fatalf("Classify(%s) = %+v, want %+v", tc.body, got, tc.want)
			}
		})
	}
}

func TestUserMessageMapping(t *testing.T) {
	cases := []struct {
		name string
		cls  Classification
		want string
	}{
		{"prompt blocked", Classification{Code: 2016, HasCode: true, Message: "raw"}, PromptBlockedMessage},
		{"response blocked", Classification{Code: 2017, HasCode: true}, ResponseBlockedMessage},
		{"other code with message", Classification{Code: 5001, HasCode: true, Message: "capacity exceeded"}, "capacity exceeded"},
		{"message only", Classification{Message: "oops"}, "oops"},
		{"code zero is not a guardrail code", Classification{HasCode: true}, GenericFailureMessage},
		{"empty classification", Classification{}, GenericFailureMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := UserMessage(tc.cls); got != tc.want {
				t.Fatalf("UserMessage(%+v) = %q, want %q", tc.cls, got, tc.want)
			}
		})
	}
}
