package notifications

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strconv"
	"strings"
	texttemplate "text/template"
)

type templateData struct {
	RecipientName string
	StaffName     string
	ManagerName   string
	DirectorName  string
	Period        string
	TemplateName  string
	Score         string
	Grade         string
	ReturnedBy    string
	Comments      string
	Link          string
}

type emailTemplate struct {
	subject string
	body    string
}

var emailTemplates = map[Type]emailTemplate{
	TypeAssessmentSubmitted: {
		subject: "Self-assessment submitted: %s (%s)",
		body: `{{.StaffName}} has submitted their self-assessment for {{.Period}} using the "{{.TemplateName}}" rubric.
The assessment is now waiting for your review.`,
	},
	TypeManagerReviewCompleted: {
		subject: "Manager review completed: %s (%s)",
		body: `{{.ManagerName}} has completed the review of {{.StaffName}} for {{.Period}}.
{{if .Score}}Final score: {{.Score}} (grade {{.Grade}}).
{{end}}The assessment is now waiting for your approval.`,
	},
	TypeDirectorApproved: {
		subject: "Assessment approved: %s (%s)",
		body: `{{.DirectorName}} has approved the assessment of {{.StaffName}} for {{.Period}}.
{{if .Score}}Final score: {{.Score}} (grade {{.Grade}}).
{{end}}It is ready to be released to the employee.`,
	},
	TypeAdminReleased: {
		subject: "Your assessment results are available: %s (%s)",
		body: `Your performance assessment for {{.Period}} has been released.
{{if .Score}}Final score: {{.Score}} (grade {{.Grade}}).
{{end}}Please review the results and acknowledge them.`,
	},
	TypeAssessmentReturned: {
		subject: "Assessment returned for revision: %s (%s)",
		body: `Your assessment for {{.Period}} was returned by {{.ReturnedBy}}.
{{if .Comments}}Comments: {{.Comments}}
{{end}}Please update your self-assessment and submit it again.`,
	},
	TypeAssessmentAcknowledged: {
		subject: "Assessment acknowledged: %s (%s)",
		body: `{{.StaffName}} has acknowledged the results of their assessment for {{.Period}}.`,
	},
}

const htmlLayout = `<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #222;">
<p>Hello {{.Data.RecipientName}},</p>
{{range .Lines}}<p>{{.}}</p>
{{end}}<p><a href="{{.Data.Link}}">Open the assessment</a></p>
<p style="color:#777;font-size:12px;">You can change which emails you receive in your notification preferences.</p>
</body></html>`

const textLayout = `Hello {{.Data.RecipientName}},

{{range .Lines}}{{.}}
{{end}}
Open the assessment: {{.Data.Link}}

You can change which emails you receive in your notification preferences.
`

var (
	htmlBodies = map[Type]*htmltemplate.Template{}
	textBodies = map[Type]*texttemplate.Template{}
	htmlPage   = htmltemplate.Must(htmltemplate.New("layout").Parse(htmlLayout))
	textPage   = texttemplate.Must(texttemplate.New("layout").Parse(textLayout))
)

func init() {
	for t, tmpl := range emailTemplates {
		htmlBodies[t] = htmltemplate.Must(htmltemplate.New(string(t)).Parse(tmpl.body))
		textBodies[t] = texttemplate.Must(texttemplate.New(string(t)).Parse(tmpl.body))
	}
}

// Render builds the subject and both bodies for one recipient. User supplied
// values are escaped in the HTML part.
func Render(t Type, view View, recipientName, baseURL string) (Content, error) {
	tmpl, ok := emailTemplates[t]
	if !ok {
		return Content{}, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	data := buildTemplateData(view, recipientName, baseURL)

	var textBody bytes.Buffer
	if err := textBodies[t].Execute(&textBody, data); err != nil {
		return Content{}, fmt.Errorf("render text body: %w", err)
	}
	var htmlBody bytes.Buffer
	if err := htmlBodies[t].Execute(&htmlBody, data); err != nil {
		return Content{}, fmt.Errorf("render html body: %w", err)
	}

	page := struct {
		Data  templateData
		Lines []string
	}{Data: data}

	var text bytes.Buffer
	page.Lines = splitLines(textBody.String())
	if err := textPage.Execute(&text, page); err != nil {
		return Content{}, fmt.Errorf("render text layout: %w", err)
	}

	// body lines are already escaped by the per-type template
	var html bytes.Buffer
	lines := splitLines(htmlBody.String())
	htmlLines := make([]htmltemplate.HTML, len(lines))
	for i, l := range lines {
		htmlLines[i] = htmltemplate.HTML(l)
	}
	htmlPageData := struct {
		Data  templateData
		Lines []htmltemplate.HTML
	}{Data: data, Lines: htmlLines}
	if err := htmlPage.Execute(&html, htmlPageData); err != nil {
		return Content{}, fmt.Errorf("render html layout: %w", err)
	}

	return Content{
		Subject: fmt.Sprintf(tmpl.subject, orDash(view.Staff.Name), orDash(view.Period)),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

func buildTemplateData(view View, recipientName, baseURL string) templateData {
	data := templateData{
		RecipientName: orDefault(recipientName, "there"),
		StaffName:     orDash(view.Staff.Name),
		ManagerName:   orDash(view.Manager.Name),
		DirectorName:  orDash(view.Director.Name),
		Period:        orDash(view.Period),
		TemplateName:  orDash(view.TemplateName),
		Grade:         view.FinalGrade,
		ReturnedBy:    orDefault(view.ReturnedBy, "your director"),
		Comments:      view.DirectorComments,
		Link:          strings.TrimRight(baseURL, "/") + "/assessments/" + view.AssessmentID,
	}
	if view.FinalScore != nil {
		data.Score = strconv.FormatFloat(*view.FinalScore, 'f', 2, 64)
	}
	return data
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func orDash(s string) string {
	return orDefault(s, "-")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
