package status

import (
	"fmt"

	"github.com/walteh/projectbackup/pkg/export"
)

// 🎨 Message templates
const (
	MsgProgress   = "%s Progress: %d/%d (%.0f%%)"
	EmojiProgress = "⏳"
	EmojiComplete = "✅"
)

// FileFormatter defines how export issues and progress should be formatted
type FileFormatter interface {
	// FormatIssue formats a skipped, failed or untouched file
	FormatIssue(issue export.Issue) string

	// FormatProgress formats a progress message
	FormatProgress(current, total int) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatIssue formats an issue with emojis
func (f *DefaultFileFormatter) FormatIssue(issue export.Issue) string {
	var msg string
	switch issue.Reason.Outcome() {
	case export.OutcomeSkipped:
		msg = fmt.Sprintf("⏭️  Skipped %s (%s)", issue.Path, issue.Reason)
	case export.OutcomeNotProcessed:
		msg = fmt.Sprintf("⏸️  Not processed %s (%s)", issue.Path, issue.Reason)
	default:
		msg = fmt.Sprintf("❌ Failed %s (%s)", issue.Path, issue.Reason)
	}
	if issue.Err != nil {
		msg += ": " + issue.Err.Error()
	}
	return msg
}

// FormatProgress formats a progress message with percentage
func (f *DefaultFileFormatter) FormatProgress(current, total int) string {
	current = max(current, 0)
	total = max(total, 0)

	var percentage float64
	if total > 0 {
		percentage = min(float64(current)/float64(total)*100, 100)
	}

	if current >= total {
		return fmt.Sprintf(MsgProgress, EmojiComplete, current, total, percentage)
	}
	return fmt.Sprintf(MsgProgress, EmojiProgress, current, total, percentage)
}
