// Package pdf turns rendered template HTML into an A4 letterhead PDF.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"schooldocs/internal/mergefield"
)

const (
	fontFamily   = "Arial"
	bodySize     = 10.0
	lineHeight   = 5.0
	paraSpacing  = 2.5
	listIndentMM = 6.0
	letterheadID = "letterhead"
)

var ErrEmptyDocument = errors.New("document has no printable content")

// Renderer produces PDF documents. It is safe for concurrent use; each call
// builds its own fpdf document.
type Renderer struct {
	letterhead []byte
	imageType  string
	title      string
}

type Option func(*Renderer)

// WithLetterhead draws img (PNG or JPG) over the whole page, behind the text.
func WithLetterhead(img []byte, imageType string) Option {
	return func(r *Renderer) {
		r.letterhead = img
		r.imageType = strings.ToUpper(imageType)
	}
}

// WithTitle sets the PDF document title metadata.
func WithTitle(title string) Option {
	return func(r *Renderer) { r.title = title }
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{title: "Documento"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadLetterhead reads a letterhead image from disk. An empty path yields no option.
func LoadLetterhead(path string) ([]Option, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read letterhead: %w", err)
	}
	typ := strings.TrimPrefix(strings.ToUpper(filepath.Ext(path)), ".")
	if typ == "JPEG" {
		typ = "JPG"
	}
	if typ != "PNG" && typ != "JPG" {
		return nil, fmt.Errorf("unsupported letterhead image type %q", typ)
	}
	return []Option{WithLetterhead(b, typ)}, nil
}

// Render converts an HTML fragment into PDF bytes.
func (r *Renderer) Render(htmlContent string) ([]byte, error) {
	blocks, err := layout(htmlContent)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if len(blocks) == 0 {
		return nil, ErrEmptyDocument
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(r.title, true)
	doc.SetCreator("schooldocs", true)
	doc.SetMargins(mergefield.MarginSideMM, mergefield.MarginTopMM, mergefield.MarginSideMM)
	doc.SetAutoPageBreak(true, mergefield.MarginBottomMM)

	if len(r.letterhead) > 0 {
		opt := fpdf.ImageOptions{ImageType: r.imageType, ReadDpi: true}
		doc.RegisterImageOptionsReader(letterheadID, opt, bytes.NewReader(r.letterhead))
		doc.SetHeaderFuncMode(func() {
			doc.ImageOptions(letterheadID, 0, 0, mergefield.PageWidthMM, mergefield.PageHeightMM, false, opt, 0, "")
		}, true)
	}

	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.AddPage()
	doc.SetFont(fontFamily, "", bodySize)

	for _, b := range blocks {
		switch b.kind {
		case blockHeading:
			doc.SetFont(fontFamily, "B", headingSize(b.level))
			doc.MultiCell(0, lineHeight+1.5, tr(b.plainText()), "", align(b.center), false)
			doc.Ln(paraSpacing * 2)
		case blockListItem:
			left, _, _, _ := doc.GetMargins()
			indent := listIndentMM * float64(b.level)
			doc.SetFont(fontFamily, "", bodySize)
			doc.SetX(left + indent)
			doc.CellFormat(listIndentMM, lineHeight, tr(b.bullet), "", 0, "L", false, 0, "")
			doc.SetLeftMargin(left + indent + listIndentMM)
			writeRuns(doc, tr, b.runs)
			doc.SetLeftMargin(left)
			doc.Ln(lineHeight)
		default:
			if b.center {
				doc.SetFont(fontFamily, styleOf(b.runs), bodySize)
				doc.MultiCell(0, lineHeight, tr(b.plainText()), "", "C", false)
			} else {
				writeRuns(doc, tr, b.runs)
				doc.Ln(lineHeight)
			}
			doc.Ln(paraSpacing)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRuns(doc *fpdf.Fpdf, tr func(string) string, runs []run) {
	for _, r := range runs {
		if r.text == "\n" {
			doc.Ln(lineHeight)
			continue
		}
		doc.SetFont(fontFamily, r.style, bodySize)
		doc.Write(lineHeight, tr(r.text))
	}
	doc.SetFont(fontFamily, "", bodySize)
}

// styleOf returns the style shared by every run, or "".
func styleOf(runs []run) string {
	if len(runs) == 0 {
		return ""
	}
	s := runs[0].style
	for _, r := range runs[1:] {
		if r.text != "\n" && r.style != s {
			return ""
		}
	}
	return s
}

func headingSize(level int) float64 {
	switch level {
	case 1:
		return 16
	case 2:
		return 14
	case 3:
		return 12
	default:
		return 11
	}
}

func align(center bool) string {
	if center {
		return "C"
	}
	return "L"
}
