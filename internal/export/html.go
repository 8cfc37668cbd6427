// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/auditlogic/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports sessions to a standalone HTML page with embedded CSS.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a session to HTML format.
// SECURITY: every model-supplied string is HTML-escaped; the page contains
// no script.
func (e *HTMLExporter) Export(session *model.AuditSession) ([]byte, error) {
	if err := validateSession(session); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "dark" {
		theme = "light"
	}

	var sb strings.Builder
	r := session.Result

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(ReportTitle)))
	sb.WriteString("    <meta name=\"generator\" content=\"auditlogic\">\n")
	sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", session.CreatedAt().Format(time.RFC3339)))
	sb.WriteString(e.getCSS())
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", theme))
	sb.WriteString("    <div class=\"container\">\n")

	// Header
	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(ReportTitle)))
	sb.WriteString(fmt.Sprintf("            <span class=\"badge %s\">%s</span>\n",
		riskClass(r.RiskAssessment.Level), html.EscapeString(r.RiskAssessment.Level.Badge())))
	sb.WriteString("        </header>\n")

	sb.WriteString("        <main class=\"report\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString("            <div class=\"metadata\">\n")
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Audited:</strong> %s</span>\n", formatTimestamp(session.CreatedAt())))
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Session:</strong> <code>%s</code></span>\n", html.EscapeString(session.ID)))
		sb.WriteString("            </div>\n")
		sb.WriteString("            <blockquote class=\"statement\">\n")
		sb.WriteString(formatParagraphs(session.FounderStatement))
		sb.WriteString("            </blockquote>\n")
	}

	sb.WriteString("            <div class=\"verdict\">\n")
	sb.WriteString(fmt.Sprintf("                <strong>%s</strong> &ldquo;%s&rdquo;\n",
		html.EscapeString(VerdictLabel), html.EscapeString(r.RiskAssessment.Summary)))
	sb.WriteString("            </div>\n")

	e.renderSection(&sb, SectionBiases, "biases", renderChips(r.DetectedBiases))
	e.renderSection(&sb, SectionEvidence, "evidence", formatParagraphs(r.Evidence))
	e.renderSection(&sb, SectionReasoningFlaws, "flaws", renderList(r.ReasoningFlaws, false))
	e.renderSection(&sb, SectionWeakAssumptions, "assumptions", renderList(r.WeakAssumptions, true))
	e.renderSection(&sb, SectionCounter, "counter", renderCards(r.CounterHypotheses))
	e.renderSection(&sb, SectionKillCriteria, "kill", renderList(r.KillCriteria, false))

	sb.WriteString("        </main>\n")

	// Footer
	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Exported from <strong>AuditLogic</strong> on %s</p>\n",
		e.options.now().Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("        </footer>\n")

	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderSection(sb *strings.Builder, title, class, body string) {
	sb.WriteString(fmt.Sprintf("            <section class=\"section %s\">\n", class))
	sb.WriteString(fmt.Sprintf("                <h3>%s</h3>\n", html.EscapeString(title)))
	sb.WriteString(body)
	sb.WriteString("            </section>\n")
}

// riskClass maps a level to its badge colour class. Unknown levels get the
// neutral badge.
func riskClass(level model.RiskLevel) string {
	switch level {
	case model.RiskExtreme:
		return "risk-extreme"
	case model.RiskHigh:
		return "risk-high"
	case model.RiskModerate:
		return "risk-moderate"
	default:
		return "risk-neutral"
	}
}

func renderChips(items []string) string {
	if len(items) == 0 {
		return "                <p class=\"empty\">None identified.</p>\n"
	}
	var sb strings.Builder
	sb.WriteString("                <div class=\"chips\">\n")
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("                    <span class=\"chip\">%s</span>\n", html.EscapeString(item)))
	}
	sb.WriteString("                </div>\n")
	return sb.String()
}

func renderList(items []string, numbered bool) string {
	if len(items) == 0 {
		return "                <p class=\"empty\">None identified.</p>\n"
	}
	var sb strings.Builder
	sb.WriteString("                <ul>\n")
	for i, item := range items {
		if numbered {
			sb.WriteString(fmt.Sprintf("                    <li><span class=\"index\">[%d]</span> %s</li>\n", i+1, html.EscapeString(item)))
		} else {
			sb.WriteString(fmt.Sprintf("                    <li>%s</li>\n", html.EscapeString(item)))
		}
	}
	sb.WriteString("                </ul>\n")
	return sb.String()
}

func renderCards(items []string) string {
	if len(items) == 0 {
		return "                <p class=\"empty\">None identified.</p>\n"
	}
	var sb strings.Builder
	sb.WriteString("                <div class=\"cards\">\n")
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("                    <div class=\"card\">&ldquo;%s&rdquo;</div>\n", html.EscapeString(item)))
	}
	sb.WriteString("                </div>\n")
	return sb.String()
}

// formatParagraphs escapes text and splits it on blank lines.
func formatParagraphs(text string) string {
	text = strings.ReplaceAll(strings.TrimSpace(text), "\r", "")
	if text == "" {
		return "                <p class=\"empty\">None cited.</p>\n"
	}

	var sb strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		escaped := strings.ReplaceAll(html.EscapeString(para), "\n", "<br>")
		sb.WriteString(fmt.Sprintf("                <p>%s</p>\n", escaped))
	}
	return sb.String()
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

// getCSS returns the embedded CSS for the HTML export.
func (e *HTMLExporter) getCSS() string {
	return `    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", monospace;
        }

        .light-theme {
            --bg-primary: #f5f5f7;
            --bg-secondary: #ffffff;
            --bg-tertiary: #f9fafb;
            --text-primary: #1d1d1f;
            --text-secondary: #424245;
            --text-muted: #86868b;
            --border-color: #e5e7eb;
            --accent-blue: #0071e3;
            --accent-indigo: #4f46e5;
            --accent-red: #b91c1c;
        }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --bg-tertiary: #1f2335;
            --text-primary: #c0caf5;
            --text-secondary: #a9b1d6;
            --text-muted: #565f89;
            --border-color: #414868;
            --accent-blue: #7aa2f7;
            --accent-indigo: #bb9af7;
            --accent-red: #f7768e;
        }

        body {
            font-family: var(--font-sans);
            font-size: 16px;
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container {
            max-width: 900px;
            margin: 0 auto;
            background: var(--bg-secondary);
            border-radius: 16px;
            box-shadow: 0 4px 6px rgba(0, 0, 0, 0.06);
            overflow: hidden;
        }

        .header {
            display: flex;
            justify-content: space-between;
            align-items: center;
            padding: 32px;
            border-bottom: 1px solid var(--border-color);
        }

        .header h1 {
            font-size: 28px;
            font-weight: 700;
            letter-spacing: -0.5px;
        }

        .badge {
            padding: 6px 16px;
            border-radius: 999px;
            font-size: 12px;
            font-weight: 700;
            text-transform: uppercase;
            letter-spacing: 1px;
        }

        .risk-extreme { background: #ef4444; color: #ffffff; }
        .risk-high { background: #f97316; color: #ffffff; }
        .risk-moderate { background: #facc15; color: #000000; }
        .risk-neutral { background: #e5e7eb; color: #1f2937; }

        .report {
            padding: 24px 32px;
        }

        .metadata {
            display: flex;
            flex-wrap: wrap;
            gap: 16px;
            font-size: 14px;
            color: var(--text-muted);
            margin-bottom: 16px;
        }

        .statement {
            border-left: 4px solid var(--accent-blue);
            padding: 12px 20px;
            margin-bottom: 24px;
            color: var(--text-secondary);
        }

        .verdict {
            padding: 24px;
            background: var(--bg-tertiary);
            border: 1px solid var(--border-color);
            border-radius: 16px;
            font-style: italic;
            color: var(--text-secondary);
            margin-bottom: 32px;
        }

        .verdict strong {
            font-style: normal;
            color: var(--text-primary);
            margin-right: 8px;
        }

        .section {
            border-bottom: 1px solid var(--border-color);
            padding-bottom: 24px;
            margin-bottom: 24px;
        }

        .section:last-child {
            border-bottom: none;
        }

        .section h3 {
            font-size: 12px;
            font-weight: 600;
            text-transform: uppercase;
            letter-spacing: 2px;
            opacity: 0.6;
            margin-bottom: 12px;
        }

        .biases h3 { color: var(--accent-blue); }
        .flaws h3, .kill h3 { color: var(--accent-red); }
        .counter h3 { color: var(--accent-indigo); }

        .section ul {
            padding-left: 20px;
        }

        .section li {
            margin-bottom: 8px;
        }

        .assumptions ul, .kill ul {
            list-style: none;
            padding-left: 0;
        }

        .index {
            font-family: var(--font-mono);
            font-size: 12px;
            color: var(--text-muted);
            margin-right: 8px;
        }

        .chips {
            display: flex;
            flex-wrap: wrap;
            gap: 8px;
        }

        .chip {
            padding: 4px 12px;
            border-radius: 999px;
            border: 1px solid var(--border-color);
            color: var(--accent-blue);
            font-size: 14px;
            font-weight: 500;
        }

        .cards {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(260px, 1fr));
            gap: 16px;
        }

        .card {
            padding: 16px;
            border-radius: 12px;
            border: 1px solid var(--border-color);
            font-size: 14px;
            font-style: italic;
        }

        .kill li {
            padding: 10px 12px;
            border: 1px solid var(--border-color);
            border-left: 4px solid var(--accent-red);
            border-radius: 8px;
            font-weight: 500;
        }

        .empty {
            color: var(--text-muted);
            font-style: italic;
        }

        .footer {
            padding: 20px 32px;
            text-align: center;
            font-size: 14px;
            color: var(--text-muted);
            border-top: 1px solid var(--border-color);
        }

        @media print {
            body {
                padding: 0;
            }

            .container {
                box-shadow: none;
                border-radius: 0;
            }

            .section {
                page-break-inside: avoid;
            }
        }

        @media (max-width: 768px) {
            body {
                padding: 10px;
            }

            .header, .report, .footer {
                padding: 16px;
            }
        }
    </style>
`
}
