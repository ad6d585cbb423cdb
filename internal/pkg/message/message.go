// Package message normalizes model output into a commit message.
package message

import (
	"strings"
)

// Message is a commit message split into a headline and an optional body.
type Message struct {
	Headline string
	Body     string
}

// New sanitizes raw model output and parses it into a Message.
//
// Sanitizing strips surrounding code fences and quotes, normalizes line
// endings, and trims whitespace. Models wrap their answer in markdown
// fences often enough that committing the fence verbatim is a real
// failure mode.
func New(raw string) *Message {
	m := &Message{}
	m.parse(sanitize(raw))
	return m
}

// Render returns the message as commit-ready text: the headline, then a
// single blank line, then the body when one exists.
func (m *Message) Render() string {
	if m.Body == "" {
		return m.Headline
	}
	return m.Headline + "\n\n" + m.Body
}

// IsEmpty returns true if the message has no content at all.
func (m *Message) IsEmpty() bool {
	return m.Headline == "" && m.Body == ""
}

// HasBody returns true if the message has a body section.
func (m *Message) HasBody() bool {
	return m.Body != ""
}

// parse splits sanitized text into headline and body. Blank lines between
// the headline and the body collapse to the single separator Render emits;
// blank runs inside the body collapse to one line.
func (m *Message) parse(text string) {
	if text == "" {
		return
	}

	lines := strings.Split(text, "\n")
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start == len(lines) {
		return
	}

	m.Headline = strings.TrimSpace(lines[start])

	body := make([]string, 0, len(lines)-start-1)
	for _, line := range lines[start+1:] {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if len(body) == 0 || body[len(body)-1] == "" {
				continue
			}
		}
		body = append(body, line)
	}
	for len(body) > 0 && body[len(body)-1] == "" {
		body = body[:len(body)-1]
	}
	m.Body = strings.Join(body, "\n")
}

// sanitize normalizes line endings and strips wrapping until the text
// stops changing. Stripping can expose another layer (a quoted message
// inside a fence), so a single pass is not enough.
func sanitize(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	for {
		prev := text
		text = strings.TrimSpace(text)
		text = stripFence(text)
		text = stripQuotes(text)
		if text == prev {
			return text
		}
	}
}

// stripFence removes a code fence wrapping the whole text. The opening
// line may carry a language tag; the closing line must be backticks only.
func stripFence(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}
	first := strings.TrimSpace(lines[0])
	last := strings.TrimSpace(lines[len(lines)-1])
	if !strings.HasPrefix(first, "```") {
		return text
	}
	if !strings.HasPrefix(last, "```") || strings.Trim(last, "`") != "" {
		return text
	}
	return strings.Join(lines[1:len(lines)-1], "\n")
}

// stripQuotes removes one layer of matching quotes wrapping the whole text.
func stripQuotes(text string) string {
	if len(text) < 2 {
		return text
	}
	first := text[0]
	if first != text[len(text)-1] {
		return text
	}
	switch first {
	case '"', '\'', '`':
		return text[1 : len(text)-1]
	}
	return text
}
