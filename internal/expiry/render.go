package expiry

import (
	"html/template"
	"strings"
)

var reportTemplate = template.Must(template.New("expiry-report").Parse(`<html>
<body>
<p>{{len .Expiring}} consent record(s) expire within the next {{.WindowDays}} days.</p>
{{if .Expiring}}
<table border="1" cellpadding="4" cellspacing="0">
  <tr><th>Player</th><th>Consent type</th><th>Expires</th><th>Days left</th><th>Guardian contact</th></tr>
  {{range .Expiring}}
  <tr>
    <td>{{.PlayerName}} ({{.PlayerID}})</td>
    <td>{{.ConsentType}}</td>
    <td>{{.ExpiresAt.Format "2006-01-02"}}</td>
    <td>{{.DaysLeft}}</td>
    <td>{{if .GuardianEmail}}{{.GuardianEmail}}{{else}}&mdash;{{end}}</td>
  </tr>
  {{end}}
</table>
{{else}}
<p>No action required.</p>
{{end}}
<p>Generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}.</p>
</body>
</html>`))

func renderHTML(report *Report) (string, error) {
	var buf strings.Builder
	if err := reportTemplate.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}
