package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/drive-uploader/internal/models"
)

func TestRenderProducesPDF(t *testing.T) {
	renderer := NewSummaryRenderer()
	approved := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	data, err := renderer.Render(context.Background(), &models.Record{
		ID:          "rec-1",
		TenantID:    "tenant-1",
		DisplayName: "Jane Doe",
		IsApproved:  true,
		ApprovedAt:  &approved,
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !bytes.HasPrefix(data, []byte("%PDF-1.4")) {
		t.Error("output does not start with a PDF header")
	}
	if !bytes.Contains(data, []byte("Jane Doe")) {
		t.Error("output does not contain the display name")
	}
	if !bytes.HasSuffix(bytes.TrimSpace(data), []byte("%%EOF")) {
		t.Error("output does not end with the PDF trailer")
	}
}

func TestRenderEscapesSpecialCharacters(t *testing.T) {
	renderer := NewSummaryRenderer()

	data, err := renderer.Render(context.Background(), &models.Record{
		ID:          "rec-2",
		DisplayName: "Jane (Interim) Doe",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !bytes.Contains(data, []byte(`Jane \(Interim\) Doe`)) {
		t.Error("parentheses in the display name were not escaped")
	}
}

func TestRenderNilRecord(t *testing.T) {
	renderer := NewSummaryRenderer()

	if _, err := renderer.Render(context.Background(), nil); err == nil {
		t.Error("expected an error for a nil record")
	}
}

func TestRenderCancelledContext(t *testing.T) {
	renderer := NewSummaryRenderer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := renderer.Render(ctx, &models.Record{ID: "rec-3"}); err == nil {
		t.Error("expected an error for a cancelled context")
	}
}
