package errors

import (
	"fmt"
	"html"
)

// Overlay generates the HTML error overlay injected into the served page
// when a wasm rebuild fails.
func Overlay(diagnostics []Diagnostic) string {
	if len(diagnostics) == 0 {
		return ""
	}

	out := `
<div id="rustle-error-overlay" style="
	position: fixed;
	top: 0;
	left: 0;
	width: 100%;
	height: 100%;
	background: rgba(0, 0, 0, 0.8);
	color: white;
	font-family: 'Monaco', 'Menlo', monospace;
	font-size: 14px;
	z-index: 9999;
	padding: 20px;
	box-sizing: border-box;
	overflow: auto;
">
	<div style="max-width: 1000px; margin: 0 auto;">
		<div style="display: flex; justify-content: space-between; align-items: center; margin-bottom: 20px;">
			<h2 style="margin: 0; color: #ff6b6b;">Build Errors</h2>
			<button onclick="document.getElementById('rustle-error-overlay').style.display='none'"
					style="background: none; border: 1px solid #ccc; color: white; padding: 5px 10px; cursor: pointer;">
				Close
			</button>
		</div>
		<div>`

	for _, d := range diagnostics {
		severityColor := "#ff6b6b"
		switch d.Severity {
		case SeverityWarning:
			severityColor = "#feca57"
		case SeverityNote, SeverityHelp:
			severityColor = "#48dbfb"
		}

		title := d.Message
		if d.Code != "" {
			title = fmt.Sprintf("%s [%s]", d.Message, d.Code)
		}

		out += fmt.Sprintf(`
			<div style="
				background: #2d3748;
				padding: 15px;
				margin-bottom: 15px;
				border-radius: 4px;
				border-left: 4px solid %s;
			">
				<div style="display: flex; justify-content: space-between; align-items: center; margin-bottom: 10px;">
					<span style="color: %s; font-weight: bold;">%s</span>
					<span style="color: #a0aec0; font-size: 12px;">%s</span>
				</div>
				<div style="color: #e2e8f0; margin-bottom: 5px;">
					<strong>%s</strong>
				</div>
				<div style="color: #a0aec0; font-size: 12px;">
					%s:%d:%d
				</div>
			</div>
		`, severityColor, severityColor, d.Severity.String(), d.Timestamp.Format("15:04:05"),
			html.EscapeString(title), html.EscapeString(d.File), d.Line, d.Column)
	}

	out += `
		</div>
	</div>
</div>`

	return out
}
