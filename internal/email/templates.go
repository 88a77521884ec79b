package email

import (
	"html/template"
	"strings"
)

var prospectingTmpl = template.Must(template.New("prospecting").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933; line-height: 1.5;">
	<div style="max-width: 600px; margin: 0 auto; padding: 24px;">
		{{range .Paragraphs}}<p>{{.}}</p>
		{{end}}
	</div>
</body>
</html>`))

var notificationTmpl = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933; line-height: 1.5;">
	<div style="max-width: 600px; margin: 0 auto; padding: 24px; border-left: 4px solid #d97706;">
		{{range .Paragraphs}}<p>{{.}}</p>
		{{end}}
	</div>
</body>
</html>`))

type bodyData struct {
	Paragraphs []string
}

func renderProspecting(body string) string {
	return render(prospectingTmpl, body)
}

func renderNotification(body string) string {
	return render(notificationTmpl, body)
}

func render(tmpl *template.Template, body string) string {
	var paragraphs []string
	for _, p := range strings.Split(body, "\n\n") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, bodyData{Paragraphs: paragraphs}); err != nil {
		// template is static and data is plain strings; fall back to raw body
		return body
	}
	return b.String()
}
