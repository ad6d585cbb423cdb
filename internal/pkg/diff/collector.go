// Package diff assembles the staged diff payload sent to the model.
package diff

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
	"github.com/gitcai/gitcai/internal/pkg/git"
	"github.com/gitcai/gitcai/internal/pkg/ignore"
)

// Default size limits for the payload.
const (
	// DefaultMaxFileSize is the per-file content limit. Larger files keep
	// only a statistics summary in the payload.
	DefaultMaxFileSize = 100 * 1024

	// DefaultMaxPayloadSize is the soft cap on the whole payload. Beyond it
	// the payload is cut at a line boundary and marked as truncated.
	DefaultMaxPayloadSize = 200 * 1024
)

// TruncationMarker is appended to payloads cut at the size cap.
const TruncationMarker = "[diff truncated]"

// Payload is the filtered staged diff handed to the message generator.
type Payload struct {
	Records        []git.DiffChunk
	Content        string
	TotalFiles     int
	TotalAdditions int
	TotalDeletions int
	ExcludedFiles  int
	Truncated      bool
}

// Collector defines the interface for building diff payloads.
type Collector interface {
	Collect(ctx context.Context, stageAll bool) (*Payload, error)
}

// CollectorConfig holds size limits for the collector.
type CollectorConfig struct {
	MaxFileSize    int // Per-file content limit in bytes
	MaxPayloadSize int // Soft cap for the whole payload in bytes
}

// DefaultCollector implements Collector on top of the git client and the
// ignore ruleset.
type DefaultCollector struct {
	client git.Client
	rules  *ignore.Ruleset
	config CollectorConfig
}

// NewCollector creates a DefaultCollector with default size limits.
func NewCollector(client git.Client, rules *ignore.Ruleset) *DefaultCollector {
	return NewCollectorWithConfig(client, rules, CollectorConfig{})
}

// NewCollectorWithConfig creates a DefaultCollector with custom size limits.
func NewCollectorWithConfig(client git.Client, rules *ignore.Ruleset, config CollectorConfig) *DefaultCollector {
	// Apply defaults for zero values
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = DefaultMaxFileSize
	}
	if config.MaxPayloadSize <= 0 {
		config.MaxPayloadSize = DefaultMaxPayloadSize
	}
	return &DefaultCollector{client: client, rules: rules, config: config}
}

// Collect stages tracked files when requested, reads the staged diff, drops
// records matching the ignore rules and renders the remaining records into a
// single payload. Returns an empty-diff error when nothing is left.
func (c *DefaultCollector) Collect(ctx context.Context, stageAll bool) (*Payload, error) {
	if stageAll {
		if err := c.client.StageTracked(ctx); err != nil {
			return nil, err
		}
	}

	chunks, err := c.client.GetStagedDiff(ctx)
	if err != nil {
		return nil, err
	}

	records := c.filterIgnored(chunks)
	excluded := len(chunks) - len(records)
	if excluded > 0 {
		apperrors.Info("excluded %d staged file(s) via %s", excluded, ignore.FileName)
	}

	if len(records) == 0 {
		return nil, apperrors.NewEmptyDiffError().WithContext("excluded_files", excluded)
	}

	records = c.summarizeLargeFiles(records)

	payload := &Payload{
		Records:       records,
		TotalFiles:    len(records),
		ExcludedFiles: excluded,
	}
	for _, record := range records {
		payload.TotalAdditions += record.Additions
		payload.TotalDeletions += record.Deletions
	}

	payload.Content, payload.Truncated = c.render(records)
	if payload.Truncated {
		apperrors.Info("diff payload truncated to %d bytes", c.config.MaxPayloadSize)
	}

	return payload, nil
}

// filterIgnored drops records whose path matches the ignore rules.
func (c *DefaultCollector) filterIgnored(chunks []git.DiffChunk) []git.DiffChunk {
	if c.rules.Len() == 0 {
		return chunks
	}

	filtered := make([]git.DiffChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if c.rules.Matches(chunk.FilePath) {
			apperrors.Debug("ignoring %s", chunk.FilePath)
			continue
		}
		filtered = append(filtered, chunk)
	}
	return filtered
}

// summarizeLargeFiles replaces content with a statistics summary for files
// exceeding the per-file limit. Binary files carry no content to begin with,
// so only oversized text patches are affected.
func (c *DefaultCollector) summarizeLargeFiles(chunks []git.DiffChunk) []git.DiffChunk {
	processed := make([]git.DiffChunk, len(chunks))
	for i, chunk := range chunks {
		processed[i] = chunk
		if len(chunk.Content) > c.config.MaxFileSize {
			processed[i].Content = fileSummary(&chunk)
		}
	}
	return processed
}

// fileSummary renders a per-file summary used in place of oversized content.
func fileSummary(chunk *git.DiffChunk) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("File: %s\n", chunk.FilePath))
	sb.WriteString(fmt.Sprintf("Change Type: %s\n", chunk.ChangeType.String()))
	sb.WriteString(fmt.Sprintf("Additions: +%d\n", chunk.Additions))
	sb.WriteString(fmt.Sprintf("Deletions: -%d\n", chunk.Deletions))

	if chunk.IsBinary {
		sb.WriteString("Note: Binary file (content not shown)\n")
	} else {
		sb.WriteString(fmt.Sprintf("Note: Large file (%d bytes) - showing statistics only\n", len(chunk.Content)))
	}

	if chunk.OldPath != "" {
		sb.WriteString(fmt.Sprintf("Renamed from: %s\n", chunk.OldPath))
	}

	return sb.String()
}

// render concatenates record contents and applies the payload cap, cutting
// at the last full line before the limit.
func (c *DefaultCollector) render(records []git.DiffChunk) (string, bool) {
	var sb strings.Builder
	for _, record := range records {
		sb.WriteString(record.Content)
		if !strings.HasSuffix(record.Content, "\n") {
			sb.WriteString("\n")
		}
	}

	content := sb.String()
	if len(content) <= c.config.MaxPayloadSize {
		return content, false
	}

	cut := strings.LastIndexByte(content[:c.config.MaxPayloadSize], '\n')
	if cut <= 0 {
		cut = c.config.MaxPayloadSize
	}
	return content[:cut] + "\n" + TruncationMarker + "\n", true
}
