package telegram

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLength stays just under the Telegram limit of 4096 characters.
const MaxMessageLength = 4090

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// EscapeMarkdown escapes the characters legacy Markdown treats as markup.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// FormatAdminAlert renders a notification for the ops chat.
func FormatAdminAlert(kind, title, message string, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s *%s*\n", alertIcon(kind), EscapeMarkdown(title)))
	b.WriteString(EscapeMarkdown(message))
	b.WriteString(fmt.Sprintf("\n\n🕒 %s", at.UTC().Format("2006-01-02 15:04 MST")))
	return b.String()
}

// FormatBulkRefreshSummary renders the outcome of a balance refresh sweep.
func FormatBulkRefreshSummary(total, refreshed int, failures []string) string {
	var b strings.Builder
	b.WriteString("🔄 *Account refresh*\n")
	b.WriteString(fmt.Sprintf("Total: %d | Refreshed: %d | Failed: %d\n", total, refreshed, len(failures)))
	if len(failures) > 0 {
		b.WriteString("\n")
		for _, f := range failures {
			b.WriteString("• ")
			b.WriteString(EscapeMarkdown(f))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// SplitMessage cuts text on line boundaries into parts no longer than limit.
// A single line longer than limit is hard-cut on a rune boundary.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	var parts []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, strings.TrimRight(current.String(), "\n"))
			current.Reset()
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			flush()
			cut := runeCut(line, limit)
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		if current.Len()+len(line) > limit {
			flush()
		}
		current.WriteString(line)
	}
	flush()
	return parts
}

// runeCut returns the largest index <= limit that does not split a rune.
// A first rune wider than limit is kept whole.
func runeCut(s string, limit int) int {
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return cut
}

func alertIcon(kind string) string {
	switch kind {
	case "ea_deploy_failed", "automation_error":
		return "🚨"
	case "mt5_request":
		return "📥"
	case "vps_ready", "ea_deployed", "mt5_approved":
		return "✅"
	case "vps_provisioning", "ea_deploying":
		return "⚙️"
	default:
		return "ℹ️"
	}
}
