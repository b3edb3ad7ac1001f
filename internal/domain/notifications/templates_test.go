package notifications

import (
	"strings"
	"testing"
)

func TestRenderEveryType(t *testing.T) {
	for _, typ := range Types {
		c, err := Render(typ, sampleView(), "Reader", "https://appraisal.example.com/")
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if c.Subject == "" || c.HTML == "" || c.Text == "" {
			t.Fatalf("%s: empty content %+v", typ, c)
		}
		if !strings.Contains(c.Text, "https://appraisal.example.com/assessments/a1") {
			t.Fatalf("%s: missing link in %q", typ, c.Text)
		}
		if !strings.Contains(c.Subject, "2026-H1") {
			t.Fatalf("%s: subject missing period: %q", typ, c.Subject)
		}
	}
}

func TestRenderEscapesNames(t *testing.T) {
	view := sampleView()
	view.Staff.Name = `<script>alert("x")</script>`
	c, err := Render(TypeAssessmentSubmitted, view, "<b>Boss</b>", "http://localhost")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(c.HTML, "<script>") || strings.Contains(c.HTML, "<b>Boss</b>") {
		t.Fatalf("expected escaped html, got %s", c.HTML)
	}
	if !strings.Contains(c.HTML, "&lt;script&gt;") {
		t.Fatalf("expected escaped staff name, got %s", c.HTML)
	}
	if !strings.Contains(c.Text, "<script>") {
		t.Fatalf("text part should keep the raw name")
	}
}

func TestRenderIncludesScoreAndReturnReason(t *testing.T) {
	c, err := Render(TypeAdminReleased, sampleView(), "Sam", "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(c.Text, "3.50") || !strings.Contains(c.Text, "B+") {
		t.Fatalf("expected score and grade, got %q", c.Text)
	}

	view := sampleView()
	view.ReturnedBy = "Dana Director"
	view.DirectorComments = "Add evidence for teamwork"
	c, err = Render(TypeAssessmentReturned, view, "Sam", "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(c.Text, "Dana Director") || !strings.Contains(c.Text, "Add evidence") {
		t.Fatalf("expected return details, got %q", c.Text)
	}
}

func TestRenderUnknownType(t *testing.T) {
	if _, err := Render(Type("nope"), sampleView(), "x", ""); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
