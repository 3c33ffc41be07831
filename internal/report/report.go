// Package report renders the sample history as a PDF table.
//
// [BuildTable] is the pure part: it turns a history into rows with a fixed
// header. [Render] lays that table out with fixed styling using fpdf.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/jpalmerr/sensorboard/internal/store"
)

// Filename is the attachment name used when the report is downloaded.
const Filename = "reporte_esp32.pdf"

const (
	defaultTitle = "Reporte de datos del acelerómetro"

	pageMargin = 15.0
	colWidth   = 50.0
	rowHeight  = 8.0
)

// header holds the fixed column labels, in column order.
var header = []string{"AX", "AY", "AZ"}

// Table is the tabular form of a sample history.
type Table struct {
	Header []string
	Rows   [][]float64
}

// Options tweak the document around the table. The table itself is fixed.
type Options struct {
	// Title is printed above the table. Defaults to a Spanish report title.
	Title string

	// GeneratedAt is printed under the title and stamped as the document
	// creation date. Zero omits the line and uses a fixed date.
	GeneratedAt time.Time
}

// BuildTable converts history into a [Table] with one row per sample,
// holding ax, ay and az in that order.
func BuildTable(history []store.Sample) Table {
	rows := make([][]float64, len(history))
	for i, s := range history {
		rows[i] = []float64{s.AX, s.AY, s.AZ}
	}

	return Table{
		Header: append([]string(nil), header...),
		Rows:   rows,
	}
}

// FormatValue renders a table cell with the shortest exact representation.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Render writes history as a PDF document to w. The column header is
// repeated at the top of every page the table spans.
func Render(w io.Writer, history []store.Sample, opts Options) error {
	_, err := render(w, history, opts)
	return err
}

// layout records how a rendered table was split across pages.
type layout struct {
	pages      int
	headerRows int
}

func render(w io.Writer, history []store.Sample, opts Options) (layout, error) {
	table := BuildTable(history)

	title := opts.Title
	if title == "" {
		title = defaultTitle
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	// rows break pages themselves so the header can follow them
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.SetCatalogSort(true)
	if opts.GeneratedAt.IsZero() {
		pdf.SetCreationDate(time.Unix(0, 0).UTC())
	} else {
		pdf.SetCreationDate(opts.GeneratedAt)
	}
	pdf.SetTitle(title, true)
	pdf.SetCreator("sensorboard", false)

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")

	if !opts.GeneratedAt.IsZero() {
		pdf.SetFont("Helvetica", "", 9)
		stamp := fmt.Sprintf("Generado: %s", opts.GeneratedAt.Format("2006-01-02 15:04:05"))
		pdf.CellFormat(0, 6, tr(stamp), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	// centre the table on the page
	pageWidth, pageHeight := pdf.GetPageSize()
	left := (pageWidth - colWidth*float64(len(table.Header))) / 2

	var out layout
	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetFillColor(52, 73, 94)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetX(left)
		for _, label := range table.Header {
			pdf.CellFormat(colWidth, rowHeight, label, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(0, 0, 0)
		out.headerRows++
	}

	drawHeader()
	for i, row := range table.Rows {
		if pdf.GetY()+rowHeight > pageHeight-pageMargin {
			pdf.AddPage()
			drawHeader()
		}

		// zebra striping is by row index, never by value
		if i%2 == 0 {
			pdf.SetFillColor(236, 240, 241)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		pdf.SetX(left)
		for _, v := range row {
			pdf.CellFormat(colWidth, rowHeight, FormatValue(v), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
	out.pages = pdf.PageCount()

	if err := pdf.Output(w); err != nil {
		return out, fmt.Errorf("failed to write pdf: %w", err)
	}
	return out, nil
}
