package caselaw

import "strings"

// FormatContent renders the markdown body used when a case arrives without
// its own content.
func FormatContent(title, summary string, participants []string) string {
	var b strings.Builder
	b.WriteString("\n# ")
	b.WriteString(title)
	b.WriteString("\n\n## Summary\n")
	b.WriteString(summary)
	if len(participants) > 0 {
		b.WriteString("\n\n## Participants")
		for _, p := range participants {
			b.WriteString("\n- ")
			b.WriteString(p)
		}
	}
	return b.String()
}

func appendSourceLink(content, link string) string {
	return content + "\n\n## Original Source\n[View original source](" + link + ")"
}
