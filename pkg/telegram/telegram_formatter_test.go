package telegram

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAdminAlert(t *testing.T) {
	at := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	got := FormatAdminAlert("ea_deploy_failed", "EA Deployment Failed", "account_5001 failed", at)

	assert.True(t, strings.HasPrefix(got, "🚨 *EA Deployment Failed*"))
	assert.Contains(t, got, "account\\_5001")
	assert.Contains(t, got, "2026-10-17 09:30 UTC")
}

func TestFormatBulkRefreshSummary(t *testing.T) {
	got := FormatBulkRefreshSummary(3, 2, []string{"Account 1001: timeout"})
	assert.Contains(t, got, "Total: 3 | Refreshed: 2 | Failed: 1")
	assert.Contains(t, got, "• Account 1001: timeout")
}

func TestSplitMessage(t *testing.T) {
	text := strings.Repeat("line of text\n", 10)
	parts := SplitMessage(text, 30)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 30)
	}
	assert.Equal(t, strings.TrimRight(text, "\n"), strings.Join(parts, "\n"))

	long := strings.Repeat("x", 70)
	parts = SplitMessage(long, 30)
	assert.Equal(t, []string{long[:30], long[30:60], long[60:]}, parts)

	assert.Equal(t, []string{"short"}, SplitMessage("short", 30))
}

func TestSplitMessageKeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("é", 20)
	parts := SplitMessage(text, 7)

	require.Len(t, parts, 7)
	for _, p := range parts {
		assert.True(t, utf8.ValidString(p), p)
		assert.LessOrEqual(t, len(p), 7)
	}
	assert.Equal(t, text, strings.Join(parts, ""))

	assert.Equal(t, []string{"🚨", "🚨"}, SplitMessage("🚨🚨", 2))
}
