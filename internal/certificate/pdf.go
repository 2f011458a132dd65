package certificate

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// ArtifactStore keeps rendered files and hands back a public URL.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// PDFRenderer draws a one-page landscape certificate and uploads it.
type PDFRenderer struct {
	artifacts ArtifactStore
	issuer    string
}

func NewPDFRenderer(artifacts ArtifactStore, issuer string) *PDFRenderer {
	if issuer == "" {
		issuer = "LPK Merdeka"
	}
	return &PDFRenderer{artifacts: artifacts, issuer: issuer}
}

func (r *PDFRenderer) Render(ctx context.Context, doc Document) (Artifact, error) {
	data, err := r.draw(doc)
	if err != nil {
		return Artifact{}, err
	}
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}

	key := ObjectKey(doc.Code)
	url, err := r.artifacts.Put(ctx, key, data, "application/pdf")
	if err != nil {
		return Artifact{}, fmt.Errorf("upload certificate: %w", err)
	}
	return Artifact{Key: key, URL: url}, nil
}

func (r *PDFRenderer) Discard(ctx context.Context, key string) error {
	return r.artifacts.Delete(ctx, key)
}

func (r *PDFRenderer) draw(doc Document) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Certificate "+doc.Code, true)
	pdf.SetAuthor(r.issuer, true)
	pdf.AddPage()

	pdf.SetLineWidth(1.5)
	pdf.Rect(10, 10, 277, 190, "D")

	pdf.SetFont("Helvetica", "B", 32)
	pdf.Ln(25)
	pdf.CellFormat(0, 16, tr("Certificate of Completion"), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.Ln(8)
	pdf.CellFormat(0, 10, tr("This certifies that"), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 26)
	pdf.CellFormat(0, 16, tr(doc.UserName), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, tr("has successfully completed"), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 14, tr(doc.QuizTitle), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.Ln(6)
	pdf.CellFormat(0, 8, fmt.Sprintf("Score: %d", doc.Score), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, tr("Issued on "+doc.IssuedAt.Format("2 January 2006")), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetY(180)
	pdf.CellFormat(0, 6, tr(r.issuer+" - "+doc.Code), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// ObjectKey is where the artifact for code is stored.
func ObjectKey(code string) string {
	return "certificates/" + code + ".pdf"
}
