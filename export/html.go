// ABOUTME: HTML summary report for batch graph exports
// ABOUTME: Server-side template rendering, no client tooling required

package export

import (
	"fmt"
	"html/template"
	"strings"
)

const summaryTemplate = `<div style="font-family:system-ui, sans-serif; padding:10px;">
<div style="margin-bottom:10px;">Generated {{len .Items}} graph(s) to {{.Dir}}</div>
{{if .Errors}}
<div style="color:#b00; margin-bottom:10px;"><b>Errors:</b><ul>
{{range .Errors}}<li>[{{.Index}}] {{.Descriptor}}: {{.Message}}</li>
{{end}}</ul></div>
{{end}}
{{range .Items}}
<div style="margin:14px 0; padding-bottom:12px; border-bottom:1px solid #ddd;">
  <div style="margin-bottom:6px;"><b>[{{.Index}}]</b> {{.Descriptor}}<br/>
    <span style="opacity:.7;">{{.Path}}</span>
  </div>
  <pre style="background:#f6f6f6; padding:8px; overflow-x:auto;">{{.Source}}</pre>
</div>
{{end}}
</div>
`

var summaryTmpl = template.Must(template.New("summary").Parse(summaryTemplate))

// RenderHTML builds the single summary report for one export batch:
// every produced graph plus the aggregated per-instance errors.
func RenderHTML(result Result) (string, error) {
	var sb strings.Builder
	if err := summaryTmpl.Execute(&sb, result); err != nil {
		return "", fmt.Errorf("export: render summary: %w", err)
	}
	return sb.String(), nil
}
