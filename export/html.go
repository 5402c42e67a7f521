// Package export renders a proposal as a standalone HTML page or a PDF.
package export

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"voyage/images"
	"voyage/models"
	"voyage/richtext"
)

const (
	HTMLFilename = "proposition-voyage.html"
	PDFFilename  = "proposition-voyage.pdf"
)

// Section ids understood by Options.Hidden.
const (
	SectionCover     = "cover"
	SectionIntro     = "intro"
	SectionItinerary = "itinerary"
	SectionProgram   = "program"
	SectionServices  = "services"
	SectionHotels    = "hotels"
	SectionPricing   = "pricing"
	SectionNotes     = "notes"
	SectionFooter    = "footer"
)

// Options tunes a render. The zero value renders every non-empty section
// without a design overlay.
type Options struct {
	Overlay *models.DesignOverlay
	Hidden  []string
}

// HotelCard is one entry of the accommodations grid.
type HotelCard struct {
	Name        string
	NightAt     string
	Description string
	Images      []string
	Custom      bool
}

// Hotels returns itinerary hotels first, then custom hotels. Images that are
// not renderable are dropped.
func Hotels(doc *models.VoyageDocument) []HotelCard {
	var cards []HotelCard
	for _, h := range models.ExtractHotels(doc) {
		cards = append(cards, HotelCard{Name: h.Name, NightAt: h.NightAt})
	}
	for _, h := range doc.CustomHotels {
		if strings.TrimSpace(h.Name) == "" && h.Description == "" && len(h.Images) == 0 {
			continue
		}
		cards = append(cards, HotelCard{
			Name:        h.Name,
			Description: h.Description,
			Images:      images.Filter(h.Images),
			Custom:      true,
		})
	}
	return cards
}

type page struct {
	Doc        *models.VoyageDocument
	Theme      template.CSS
	OverlayCSS template.CSS
	Narrative  template.HTML
	Cover      template.URL
	Included   []string
	Excluded   []string
	Hotels     []HotelCard
	hidden     map[string]bool
}

// Show reports whether a section is visible.
func (p page) Show(id string) bool {
	return !p.hidden[id]
}

func (p page) HasPricing() bool {
	return p.Doc.Price != "" || p.Doc.PriceDetails != "" || p.Doc.PriceNote != ""
}

func (p page) HasFooter() bool {
	return p.Doc.AgencyName != "" || p.Doc.Contact != "" || p.Doc.FooterText != ""
}

var (
	colorRe   = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]{3,20}|rgba?\([0-9.,%\s]+\))$`)
	cssUnsafe = strings.NewReplacer("<", "", ">", "", "{", "", "}", "", ";", "", "\\", "")
)

func themeColor(c string) template.CSS {
	c = strings.TrimSpace(c)
	if !colorRe.MatchString(c) {
		c = models.Defaults()[models.FieldThemeColor]
	}
	return template.CSS(c)
}

func overlayCSS(o *models.DesignOverlay) template.CSS {
	if o == nil {
		return ""
	}
	safe := o.Clone()
	for k, v := range safe.Colors {
		if !models.ValidColorKey(k) {
			delete(safe.Colors, k)
			continue
		}
		safe.Colors[k] = cssUnsafe.Replace(v)
	}
	safe.Typography.HeadingFont = cssUnsafe.Replace(safe.Typography.HeadingFont)
	safe.Typography.BodyFont = cssUnsafe.Replace(safe.Typography.BodyFont)
	return template.CSS(safe.CSSVariables())
}

func nonBlank(items []string) []string {
	var out []string
	for _, it := range items {
		if strings.TrimSpace(it) != "" {
			out = append(out, it)
		}
	}
	return out
}

// RenderHTML produces the standalone export page. It performs no I/O.
func RenderHTML(doc *models.VoyageDocument, opts Options) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("render html: nil document")
	}
	p := page{
		Doc:        doc,
		Theme:      themeColor(doc.ThemeColor),
		OverlayCSS: overlayCSS(opts.Overlay),
		Included:   nonBlank(doc.Included),
		Excluded:   nonBlank(doc.Excluded),
		Hotels:     Hotels(doc),
		hidden:     make(map[string]bool, len(opts.Hidden)),
	}
	if strings.TrimSpace(doc.ProgramNarrative) != "" {
		p.Narrative = template.HTML(richtext.Render(doc.ProgramNarrative))
	}
	if images.IsRenderable(doc.CoverImage) {
		p.Cover = template.URL(doc.CoverImage)
	}
	for _, id := range opts.Hidden {
		p.hidden[id] = true
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}
