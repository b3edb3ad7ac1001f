package assessment

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"
)

// WriteReport renders a printable summary of the assessment as PDF.
func WriteReport(w io.Writer, view View) error {
	d := view.Assessment
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Performance assessment "+d.Period, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr("Performance Assessment"))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	lines := []string{
		"Employee: " + d.StaffName,
		"Department: " + orDash(d.Department),
		"Period: " + d.Period,
		"Rubric: " + d.TemplateName,
		"Manager: " + orDash(d.ManagerName),
		"Director: " + orDash(d.DirectorName),
		"Status: " + string(d.Status),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, tr(line))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(90, 8, "Section", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 8, "Weight", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Self", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Manager", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, section := range view.Summary.Sections {
		pdf.CellFormat(90, 7, tr(section.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, strconv.FormatFloat(section.Weight, 'f', -1, 64), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, formatScore(section.StaffAverage), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, formatScore(section.ManagerAverage), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Self score: %s %s", formatScore(view.Summary.StaffScore), view.Summary.StaffGrade))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Final score: %s %s", formatScore(d.FinalScore), d.FinalGrade))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	if d.ManagerNotes != "" {
		pdf.MultiCell(0, 5, tr("Manager feedback: "+d.ManagerNotes), "", "L", false)
		pdf.Ln(3)
	}
	if d.DirectorComments != "" {
		pdf.MultiCell(0, 5, tr("Director comments: "+d.DirectorComments), "", "L", false)
	}

	return pdf.Output(w)
}

func formatScore(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
