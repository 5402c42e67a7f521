package export

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"voyage/models"
	"voyage/richtext"
)

// PDFOptions tunes the local PDF renderer.
type PDFOptions struct {
	Hidden []string
	// ShareURL, when set, is printed as a QR code on the last page.
	ShareURL string
}

type rgb struct{ r, g, b int }

func parseHex(c string) (rgb, bool) {
	c = strings.TrimPrefix(strings.TrimSpace(c), "#")
	if len(c) == 3 {
		c = string([]byte{c[0], c[0], c[1], c[1], c[2], c[2]})
	}
	if len(c) != 6 {
		return rgb{}, false
	}
	v, err := strconv.ParseUint(c, 16, 32)
	if err != nil {
		return rgb{}, false
	}
	return rgb{int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)}, true
}

// RenderPDF writes an A4 PDF of the proposal to w.
func RenderPDF(doc *models.VoyageDocument, w io.Writer, opts PDFOptions) error {
	if doc == nil {
		return fmt.Errorf("render pdf: nil document")
	}
	hidden := make(map[string]bool, len(opts.Hidden))
	for _, id := range opts.Hidden {
		hidden[id] = true
	}
	theme, ok := parseHex(doc.ThemeColor)
	if !ok {
		theme, _ = parseHex(models.Defaults()[models.FieldThemeColor])
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle(doc.Title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	heading := func(text string) {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 15)
		pdf.SetTextColor(theme.r, theme.g, theme.b)
		pdf.CellFormat(0, 9, tr(text), "", 1, "L", false, 0, "")
		pdf.SetTextColor(29, 42, 51)
		pdf.SetFont("Helvetica", "", 11)
	}
	para := func(text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		pdf.MultiCell(0, 6, tr(text), "", "L", false)
	}

	if !hidden[SectionCover] {
		pdf.SetFillColor(theme.r, theme.g, theme.b)
		pdf.Rect(0, 0, 210, 48, "F")
		pdf.SetXY(20, 14)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 22)
		pdf.CellFormat(0, 12, tr(doc.Title), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		meta := strings.Join(nonBlank([]string{doc.Subtitle, doc.Destination, doc.TravelDates, doc.Travelers}), " • ")
		pdf.CellFormat(0, 8, tr(meta), "", 1, "L", false, 0, "")
		pdf.SetY(56)
		pdf.SetTextColor(29, 42, 51)
		pdf.SetFont("Helvetica", "", 11)
	}

	if !hidden[SectionIntro] {
		para(doc.IntroText)
	}

	if !hidden[SectionItinerary] && len(doc.Itinerary) > 0 {
		heading(doc.ItineraryHeading)
		for _, row := range doc.Itinerary {
			head := row.Day
			if row.Date != "" {
				head += " • " + row.Date
			}
			pdf.SetFont("Helvetica", "B", 11)
			pdf.SetTextColor(theme.r, theme.g, theme.b)
			pdf.CellFormat(0, 7, tr(head), "", 1, "L", false, 0, "")
			pdf.SetTextColor(29, 42, 51)
			pdf.SetFont("Helvetica", "", 11)
			para(row.Program)
			if row.NightAt != "" {
				night := "Nuit à " + row.NightAt
				if row.Hotel != "" {
					night += " • " + row.Hotel
				}
				pdf.SetFont("Helvetica", "I", 10)
				pdf.CellFormat(0, 6, tr(night), "", 1, "L", false, 0, "")
				pdf.SetFont("Helvetica", "", 11)
			}
			pdf.Ln(2)
		}
	}

	if !hidden[SectionProgram] && strings.TrimSpace(doc.ProgramNarrative) != "" {
		heading(doc.ProgramHeading)
		para(richtext.PlainText(doc.ProgramNarrative))
	}

	if !hidden[SectionServices] {
		list := func(title string, items []string) {
			items = nonBlank(items)
			if len(items) == 0 {
				return
			}
			heading(title)
			for _, it := range items {
				pdf.MultiCell(0, 6, tr("• "+it), "", "L", false)
			}
		}
		list(doc.IncludedHeading, doc.Included)
		list(doc.ExcludedHeading, doc.Excluded)
	}

	if cards := Hotels(doc); !hidden[SectionHotels] && len(cards) > 0 {
		heading(doc.HotelsHeading)
		for _, h := range cards {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.CellFormat(0, 7, tr(h.Name), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			if h.NightAt != "" {
				pdf.CellFormat(0, 6, tr("Nuit à "+h.NightAt), "", 1, "L", false, 0, "")
			}
			para(h.Description)
		}
	}

	if !hidden[SectionPricing] && (doc.Price != "" || doc.PriceDetails != "" || doc.PriceNote != "") {
		heading(doc.PricingHeading)
		if doc.Price != "" {
			pdf.SetFont("Helvetica", "B", 18)
			pdf.CellFormat(0, 10, tr(doc.Price), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 11)
		}
		para(doc.PriceDetails)
		if doc.PriceNote != "" {
			pdf.SetFont("Helvetica", "I", 9)
			para(doc.PriceNote)
			pdf.SetFont("Helvetica", "", 11)
		}
	}

	if !hidden[SectionNotes] && doc.Notes != "" {
		heading(doc.NotesHeading)
		para(doc.Notes)
	}

	if opts.ShareURL != "" {
		png, err := qrcode.Encode(opts.ShareURL, qrcode.Medium, 256)
		if err != nil {
			return fmt.Errorf("render pdf: qr code: %w", err)
		}
		imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("share-qr", imgOpts, bytes.NewReader(png))
		pdf.Ln(6)
		y := pdf.GetY()
		pdf.ImageOptions("share-qr", 20, y, 30, 30, false, imgOpts, 0, "")
		pdf.SetXY(54, y+10)
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 6, tr("Version en ligne : "+opts.ShareURL), "", 1, "L", false, 0, "")
		pdf.SetY(y + 32)
	}

	if !hidden[SectionFooter] {
		footer := strings.Join(nonBlank([]string{doc.AgencyName, doc.Contact, doc.FooterText}), " • ")
		if footer != "" {
			pdf.Ln(4)
			pdf.SetFont("Helvetica", "I", 9)
			pdf.SetTextColor(95, 111, 122)
			pdf.MultiCell(0, 5, tr(footer), "T", "C", false)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
