package journal

import (
	"strings"

	"mood-journal-be/internal/constant"
)

// DeriveTitle builds a session title from the first user message. The
// message is trimmed and, when longer than the rune limit, cut at the limit
// with a "..." suffix appended. Truncation counts runes, not bytes, so
// multi-byte text is never split mid-character.
func DeriveTitle(firstMessage string) string {
	title := strings.TrimSpace(firstMessage)
	runes := []rune(title)
	if len(runes) > constant.SessionTitleMaxRunes {
		return string(runes[:constant.SessionTitleMaxRunes]) + "..."
	}
	return title
}
