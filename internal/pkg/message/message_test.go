package message

import (
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantHeadline string
		wantBody     string
	}{
		{
			name:         "headline only",
			raw:          "Add user authentication",
			wantHeadline: "Add user authentication",
		},
		{
			name:         "headline and bullet body",
			raw:          "Add a.py\n\n- implement feature",
			wantHeadline: "Add a.py",
			wantBody:     "- implement feature",
		},
		{
			name:         "code fence stripped",
			raw:          "```\nFix token refresh\n\n- retry expired sessions\n```",
			wantHeadline: "Fix token refresh",
			wantBody:     "- retry expired sessions",
		},
		{
			name:         "fence with language tag stripped",
			raw:          "```markdown\nUpdate dependencies\n```",
			wantHeadline: "Update dependencies",
		},
		{
			name:         "unclosed fence kept",
			raw:          "```text starts here\nand continues",
			wantHeadline: "```text starts here",
			wantBody:     "and continues",
		},
		{
			name:         "surrounding double quotes stripped",
			raw:          "\"Fix race in poller\"",
			wantHeadline: "Fix race in poller",
		},
		{
			name:         "surrounding single quotes stripped",
			raw:          "'Rename config keys'",
			wantHeadline: "Rename config keys",
		},
		{
			name:         "quoted message inside fence",
			raw:          "```\n\"Tidy error paths\"\n```",
			wantHeadline: "Tidy error paths",
		},
		{
			name:         "interior quotes kept",
			raw:          "Rename \"old\" to \"new\"",
			wantHeadline: "Rename \"old\" to \"new\"",
		},
		{
			name:         "crlf normalized",
			raw:          "Add parser\r\n\r\n- handle comments\r\n- handle blanks",
			wantHeadline: "Add parser",
			wantBody:     "- handle comments\n- handle blanks",
		},
		{
			name:         "blank run before body collapsed",
			raw:          "Add cache\n\n\n\n- memoize lookups",
			wantHeadline: "Add cache",
			wantBody:     "- memoize lookups",
		},
		{
			name:         "blank runs inside body collapsed",
			raw:          "Add cache\n\n- memoize lookups\n\n\n- expire entries",
			wantHeadline: "Add cache",
			wantBody:     "- memoize lookups\n\n- expire entries",
		},
		{
			name:         "trailing whitespace trimmed per line",
			raw:          "Add cache  \n\n- memoize lookups\t\n- expire entries   ",
			wantHeadline: "Add cache",
			wantBody:     "- memoize lookups\n- expire entries",
		},
		{
			name:         "empty input",
			raw:          "",
			wantHeadline: "",
		},
		{
			name:         "whitespace only",
			raw:          "  \n\t\n  ",
			wantHeadline: "",
		},
		{
			name:         "fence wrapping nothing",
			raw:          "```\n```",
			wantHeadline: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.raw)
			if m.Headline != tt.wantHeadline {
				t.Errorf("Headline = %q, want %q", m.Headline, tt.wantHeadline)
			}
			if m.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", m.Body, tt.wantBody)
			}
		})
	}
}

func TestMessage_Render(t *testing.T) {
	tests := []struct {
		name string
		m    *Message
		want string
	}{
		{
			name: "headline only",
			m:    &Message{Headline: "Add feature"},
			want: "Add feature",
		},
		{
			name: "headline and body",
			m:    &Message{Headline: "Add feature", Body: "- first\n- second"},
			want: "Add feature\n\n- first\n- second",
		},
		{
			name: "empty message",
			m:    &Message{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Render(); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNew_CleanMessageRoundTrips(t *testing.T) {
	raw := "Add a.py\n\n- implement feature"
	if got := New(raw).Render(); got != raw {
		t.Errorf("Render() = %q, want input unchanged %q", got, raw)
	}
}

func TestMessage_IsEmpty(t *testing.T) {
	if !New("").IsEmpty() {
		t.Error("expected empty message for empty input")
	}
	if New("Fix bug").IsEmpty() {
		t.Error("expected non-empty message")
	}
}

func TestMessage_HasBody(t *testing.T) {
	if New("Fix bug").HasBody() {
		t.Error("headline-only message must not report a body")
	}
	if !New("Fix bug\n\n- details").HasBody() {
		t.Error("expected body to be detected")
	}
}
