// Package security scans outgoing diff payloads for credential material.
//
// The scan is advisory. Findings produce a warning before the payload is
// sent to a provider; they never block the run and never alter the payload.
package security

import (
	"fmt"
	"regexp"
	"strings"
)

// A Finding is one suspected credential in an outgoing payload. The matched
// text itself is never captured, so rendering findings cannot re-leak the
// secret.
type Finding struct {
	// Kind names the matched pattern, for example "API key".
	Kind string
	// File is the diff path the matching line belongs to, when the payload
	// carries a diff header for it.
	File string
	// Line is the 1-based line number within the payload.
	Line int
}

// credentialPatterns are shapes that identify themselves as secrets.
// Specific key prefixes come first; the generic assignment pattern is a
// catch-all and must stay last.
var credentialPatterns = []struct {
	kind string
	re   *regexp.Regexp
}{
	{"API key", regexp.MustCompile(`(?:sk-(?:ant-)?[a-zA-Z0-9_-]{20,}|gsk_[a-zA-Z0-9]{20,}|xai-[a-zA-Z0-9]{20,}|AIza[a-zA-Z0-9_-]{30,})`)},
	{"AWS access key ID", regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
	{"GitHub token", regexp.MustCompile(`\b(?:gh[pousr]_[A-Za-z0-9]{36,}|github_pat_[A-Za-z0-9_]{22,})\b`)},
	{"bearer token", regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._=-]{16,}`)},
	{"private key block", regexp.MustCompile(`-----BEGIN (?:[A-Z]+ )*PRIVATE KEY-----`)},
	{"credential assignment", regexp.MustCompile(`(?i)(?:api[_-]?key|apikey|api[_-]?secret|secret[_-]?key|client[_-]?secret|access[_-]?token|auth[_-]?token|password|passwd)\s*[:=]\s*["']?[^\s"']{8,}`)},
}

// Scan inspects each line of a diff payload and reports suspected
// credentials. Removed lines are scanned too; they travel in the payload
// just like additions. A line is reported at most once, under the first
// pattern that matches it.
func Scan(payload string) []Finding {
	var findings []Finding
	file := ""
	for i, line := range strings.Split(payload, "\n") {
		if strings.HasPrefix(line, "diff --git ") {
			file = headerFilePath(line)
			continue
		}
		for _, p := range credentialPatterns {
			if p.re.MatchString(line) {
				findings = append(findings, Finding{Kind: p.kind, File: file, Line: i + 1})
				break
			}
		}
	}
	return findings
}

// Warning renders findings as the advisory printed before the payload is
// sent. Findings of the same kind in the same file collapse into one entry.
// It returns "" when there is nothing to report.
func Warning(findings []Finding) string {
	if len(findings) == 0 {
		return ""
	}

	type group struct {
		kind  string
		file  string
		count int
		first int
	}
	var groups []*group
	index := make(map[string]*group)
	for _, f := range findings {
		key := f.Kind + "\x00" + f.File
		g, ok := index[key]
		if !ok {
			g = &group{kind: f.Kind, file: f.File, first: f.Line}
			index[key] = g
			groups = append(groups, g)
		}
		g.count++
	}

	var sb strings.Builder
	sb.WriteString("Staged diff appears to contain credentials:\n")
	for _, g := range groups {
		sb.WriteString("  - " + g.kind)
		if g.file != "" {
			sb.WriteString(" in " + g.file)
		}
		if g.count == 1 {
			fmt.Fprintf(&sb, " (line %d)", g.first)
		} else {
			fmt.Fprintf(&sb, " (%d places)", g.count)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("The diff is sent to the provider unmodified. Unstage the affected files or add them to .caiignore if they must stay private.")
	return sb.String()
}

// headerFilePath pulls the post-image path out of a "diff --git a/x b/y"
// line.
func headerFilePath(line string) string {
	line = strings.TrimPrefix(line, "diff --git ")
	parts := strings.Split(line, " b/")
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}
