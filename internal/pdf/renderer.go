// Package pdf renders the uploadable artifact for an approved record. The
// rendering engine is deliberately pluggable; the built-in renderer emits a
// small summary document so the pipeline works end to end without an
// external engine.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/drive-uploader/internal/models"
)

// Renderer produces the PDF artifact for a record.
type Renderer interface {
	Render(ctx context.Context, record *models.Record) ([]byte, error)
}

// SummaryRenderer renders a one-page summary PDF with stdlib only.
type SummaryRenderer struct{}

// NewSummaryRenderer creates the built-in renderer
func NewSummaryRenderer() *SummaryRenderer {
	return &SummaryRenderer{}
}

// Render implements Renderer.
func (r *SummaryRenderer) Render(ctx context.Context, record *models.Record) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("cannot render nil record")
	}

	lines := []string{
		"Evaluation Summary",
		"",
		fmt.Sprintf("Record: %s", record.ID),
		fmt.Sprintf("Name: %s", record.DisplayName),
	}
	if record.ApprovedAt != nil {
		lines = append(lines, fmt.Sprintf("Approved: %s", record.ApprovedAt.UTC().Format(time.RFC3339)))
	}

	return buildPDF(lines), nil
}

// buildPDF assembles a minimal single-page PDF document showing the given
// lines in Helvetica.
func buildPDF(lines []string) []byte {
	var content bytes.Buffer
	content.WriteString("BT\n/F1 12 Tf\n72 720 Td\n14 TL\n")
	for i, line := range lines {
		if i > 0 {
			content.WriteString("T*\n")
		}
		fmt.Fprintf(&content, "(%s) Tj\n", escapePDFString(line))
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefOffset := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n", len(objects)+1)
	out.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefOffset)

	return out.Bytes()
}

func escapePDFString(s string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"(", "\\(",
		")", "\\)",
		"\r", " ",
		"\n", " ",
	)
	return replacer.Replace(s)
}
