package models

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
)

var colorKeyRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,32}$`)

// ValidColorKey reports whether k can name a CSS custom property.
func ValidColorKey(k string) bool {
	return colorKeyRe.MatchString(k)
}

// DesignOverlay is the cosmetic layer drawn over the proposal preview.
// It is stored on the user profile, separately from the proposal.
type DesignOverlay struct {
	Colors     map[string]string `json:"colors" bson:"colors" yaml:"colors"`
	Typography Typography        `json:"typography" bson:"typography" yaml:"typography"`
	Shapes     []Shape           `json:"shapes" bson:"shapes" yaml:"shapes"`
	Images     []OverlayImage    `json:"images" bson:"images" yaml:"images"`
}

type Typography struct {
	HeadingFont string  `json:"headingFont" bson:"headingFont" yaml:"headingFont"`
	BodyFont    string  `json:"bodyFont" bson:"bodyFont" yaml:"bodyFont"`
	BaseSize    float64 `json:"baseSize" bson:"baseSize" yaml:"baseSize"`
}

// Placement is shared by shapes and images.
type Placement struct {
	X        float64 `json:"x" bson:"x" yaml:"x"`
	Y        float64 `json:"y" bson:"y" yaml:"y"`
	Width    float64 `json:"width" bson:"width" yaml:"width"`
	Height   float64 `json:"height" bson:"height" yaml:"height"`
	Rotation float64 `json:"rotation" bson:"rotation" yaml:"rotation"`
	Opacity  float64 `json:"opacity" bson:"opacity" yaml:"opacity"`
}

type Shape struct {
	ID        string `json:"id" bson:"id" yaml:"id"`
	Kind      string `json:"kind" bson:"kind" yaml:"kind"` // rect, circle, line
	Fill      string `json:"fill" bson:"fill" yaml:"fill"`
	Placement `bson:",inline" yaml:",inline"`
}

type OverlayImage struct {
	ID        string `json:"id" bson:"id" yaml:"id"`
	URL       string `json:"url" bson:"url" yaml:"url"`
	Placement `bson:",inline" yaml:",inline"`
}

// DefaultOverlay is used when the profile has no overlay yet.
func DefaultOverlay() DesignOverlay {
	return DesignOverlay{
		Colors: map[string]string{
			"primary":    "#1f6f8b",
			"accent":     "#e2a03f",
			"background": "#ffffff",
			"text":       "#1d2a33",
		},
		Typography: Typography{
			HeadingFont: "Georgia, serif",
			BodyFont:    "Helvetica, Arial, sans-serif",
			BaseSize:    15,
		},
	}
}

// Clone returns a deep copy.
func (o DesignOverlay) Clone() DesignOverlay {
	c := o
	if o.Colors != nil {
		c.Colors = make(map[string]string, len(o.Colors))
		for k, v := range o.Colors {
			c.Colors[k] = v
		}
	}
	c.Shapes = slices.Clone(o.Shapes)
	c.Images = slices.Clone(o.Images)
	return c
}

// CSSVariables renders the overlay as a :root block of custom properties.
func (o DesignOverlay) CSSVariables() string {
	var b strings.Builder
	b.WriteString(":root{")
	keys := make([]string, 0, len(o.Colors))
	for k := range o.Colors {
		if ValidColorKey(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "--color-%s:%s;", k, o.Colors[k])
	}
	if o.Typography.HeadingFont != "" {
		fmt.Fprintf(&b, "--font-heading:%s;", o.Typography.HeadingFont)
	}
	if o.Typography.BodyFont != "" {
		fmt.Fprintf(&b, "--font-body:%s;", o.Typography.BodyFont)
	}
	if o.Typography.BaseSize > 0 {
		fmt.Fprintf(&b, "--font-size:%gpx;", o.Typography.BaseSize)
	}
	b.WriteString("}")
	return b.String()
}
