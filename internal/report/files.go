package report

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

func WriteReportFile(content, outputDir string, reportDate time.Time, teamName string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s_%s.md", sanitizeFilename(teamName), reportDate.Format("20060102"))
	path := filepath.Join(outputDir, filename)
	return path, os.WriteFile(path, []byte(content), 0644)
}

// WriteEmailDraftFile writes a multipart .eml draft whose plain and HTML
// parts are both derived from the Markdown body.
func WriteEmailDraftFile(body, outputDir string, reportDate time.Time, subjectPrefix string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s_%s.eml", sanitizeFilename(subjectPrefix), reportDate.Format("20060102"))
	path := filepath.Join(outputDir, filename)
	subject := fmt.Sprintf("%s %s", subjectPrefix, reportDate.Format("2006-01-02"))
	return path, os.WriteFile(path, []byte(buildEML(subject, body)), 0644)
}

func buildEML(subject, body string) string {
	const boundary = "slaintel-alt"
	var out strings.Builder
	out.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&out, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	fmt.Fprintf(&out, "Subject: %s\r\n\r\n", subject)

	writePart := func(contentType, content string) {
		out.WriteString("--" + boundary + "\r\n")
		out.WriteString("Content-Type: " + contentType + "; charset=UTF-8\r\n")
		out.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
		out.WriteString(content)
		if !strings.HasSuffix(content, "\r\n") {
			out.WriteString("\r\n")
		}
		out.WriteString("\r\n")
	}
	writePart("text/plain", toCRLF(markdownToPlain(body)))
	writePart("text/html", markdownToHTML(body))
	out.WriteString("--" + boundary + "--\r\n")
	return out.String()
}

func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_", " ", "_")
	return strings.TrimLeft(replacer.Replace(strings.TrimSpace(s)), ".")
}

func toCRLF(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", "\r\n")
}

func markdownToPlain(body string) string {
	var out []string
	prevBlank := false
	for _, line := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, "#") {
			line = strings.ToUpper(strings.TrimSpace(strings.TrimLeft(trimmed, "#")))
		}
		line = strings.ReplaceAll(line, "**", "")
		blank := strings.TrimSpace(line) == ""
		if blank && prevBlank {
			continue
		}
		prevBlank = blank
		out = append(out, line)
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n") + "\n"
}

var boldRe = regexp.MustCompile(`\*\*([^*]+)\*\*`)

func inlineHTML(s string) string {
	escaped := html.EscapeString(s)
	return boldRe.ReplaceAllString(escaped, "<strong>$1</strong>")
}

// markdownToHTML supports headings and two levels of "- " bullets.
func markdownToHTML(body string) string {
	var b strings.Builder
	b.WriteString(`<html><body style="font-family: Calibri, Arial, sans-serif; font-size: 11pt; color: #1f1f1f;">`)
	depth := 0
	closeTo := func(target int) {
		for depth > target {
			b.WriteString("</li></ul>")
			depth--
		}
	}

	for _, raw := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			closeTo(0)
		case strings.HasPrefix(trimmed, "#"):
			closeTo(0)
			b.WriteString(`<h3 style="margin: 12px 0 6px 0;">` + inlineHTML(strings.TrimSpace(strings.TrimLeft(trimmed, "#"))) + `</h3>`)
		case strings.HasPrefix(trimmed, "- "):
			level := 1
			if strings.HasPrefix(line, "  ") {
				level = 2
			}
			text := inlineHTML(strings.TrimPrefix(trimmed, "- "))
			switch {
			case level > depth:
				for depth < level {
					b.WriteString(`<ul style="margin: 0; padding-left: 18px;">`)
					depth++
					if depth < level {
						b.WriteString("<li>")
					}
				}
			case level < depth:
				closeTo(level)
				b.WriteString("</li>")
			default:
				b.WriteString("</li>")
			}
			b.WriteString(`<li style="margin: 2px 0;">` + text)
		default:
			closeTo(0)
			b.WriteString(`<div style="margin: 2px 0;">` + inlineHTML(trimmed) + `</div>`)
		}
	}
	closeTo(0)
	b.WriteString(`</body></html>`)
	return b.String()
}
