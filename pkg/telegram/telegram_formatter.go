package telegram

import (
	"fmt"
	"strings"
)

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// EscapeMarkdown escapes the characters that legacy Telegram Markdown treats as markup.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// FormatSignalMessage renders a signal notification as a Telegram Markdown message.
func FormatSignalMessage(title, body, link string) string {
	var builder strings.Builder

	icon := "🟡"
	upper := strings.ToUpper(title)
	switch {
	case strings.HasSuffix(upper, "BUY"):
		icon = "🟢"
	case strings.HasSuffix(upper, "SELL"):
		icon = "🔴"
	}

	builder.WriteString(fmt.Sprintf("%s *%s*\n", icon, EscapeMarkdown(title)))
	if body != "" {
		builder.WriteString(EscapeMarkdown(body))
		builder.WriteString("\n")
	}
	if link != "" {
		builder.WriteString(fmt.Sprintf("🔗 [Fonte](%s)\n", link))
	}
	return builder.String()
}
