package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor reads text out of PDF documents. Plain .txt files are read
// as-is.
type PDFExtractor struct{}

// NewPDFExtractor creates a new PDFExtractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract returns the document text and the tables found on its pages. A
// table is a run of consecutive lines with at least two separate cells.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (string, [][][]string, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(b), nil, nil
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	var text strings.Builder
	var tables [][][]string
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", nil, fmt.Errorf("failed to read page %d of %s: %w", i, path, err)
		}

		var table [][]string
		for _, row := range rows {
			cells := rowCells(row)
			text.WriteString(strings.Join(cells, " "))
			text.WriteByte('\n')
			if len(cells) >= 2 {
				table = append(table, cells)
				continue
			}
			if len(table) >= 2 {
				tables = append(tables, table)
			}
			table = nil
		}
		if len(table) >= 2 {
			tables = append(tables, table)
		}
	}
	return text.String(), tables, nil
}

// rowCells groups the glyph runs of a row into cells split at wide
// horizontal gaps.
func rowCells(row *pdf.Row) []string {
	content := append([]pdf.Text(nil), row.Content...)
	sort.SliceStable(content, func(i, j int) bool { return content[i].X < content[j].X })

	var cells []string
	var cur strings.Builder
	lastEnd := 0.0
	for i, t := range content {
		gap := t.X - lastEnd
		if i > 0 && gap > 2*t.FontSize && cur.Len() > 0 {
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
		cur.WriteString(t.S)
		lastEnd = t.X + t.W
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		cells = append(cells, s)
	}
	return cells
}
