package models

import (
	"fmt"
	"slices"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
)

// VoyageDocument is the travel proposal edited and exported by the app.
// Scalar template fields are addressed by their bson/json key through the
// field table below.
type VoyageDocument struct {
	Itinerary    []ItineraryEntry `json:"itinerary" bson:"itinerary" yaml:"itinerary"`
	Included     []string         `json:"inclus" bson:"inclus" yaml:"inclus"`
	Excluded     []string         `json:"exclus" bson:"exclus" yaml:"exclus"`
	CustomHotels []CustomHotel    `json:"customHotels" bson:"customHotels" yaml:"customHotels"`

	ThemeColor       string `json:"themeColor" bson:"themeColor" yaml:"themeColor"`
	Title            string `json:"title" bson:"title" yaml:"title"`
	Subtitle         string `json:"subtitle" bson:"subtitle" yaml:"subtitle"`
	Destination      string `json:"destination" bson:"destination" yaml:"destination"`
	TravelDates      string `json:"travelDates" bson:"travelDates" yaml:"travelDates"`
	Travelers        string `json:"travelers" bson:"travelers" yaml:"travelers"`
	CoverImage       string `json:"coverImage" bson:"coverImage" yaml:"coverImage"`
	IntroText        string `json:"introText" bson:"introText" yaml:"introText"`
	ProgramNarrative string `json:"programmeDetaille" bson:"programmeDetaille" yaml:"programmeDetaille"`
	Price            string `json:"price" bson:"price" yaml:"price"`
	PriceDetails     string `json:"priceDetails" bson:"priceDetails" yaml:"priceDetails"`
	PriceNote        string `json:"priceNote" bson:"priceNote" yaml:"priceNote"`
	Notes            string `json:"notes" bson:"notes" yaml:"notes"`
	AgencyName       string `json:"agencyName" bson:"agencyName" yaml:"agencyName"`
	Contact          string `json:"contact" bson:"contact" yaml:"contact"`
	FooterText       string `json:"footerText" bson:"footerText" yaml:"footerText"`

	ItineraryHeading string `json:"itineraryHeading" bson:"itineraryHeading" yaml:"itineraryHeading"`
	ProgramHeading   string `json:"programHeading" bson:"programHeading" yaml:"programHeading"`
	IncludedHeading  string `json:"includedHeading" bson:"includedHeading" yaml:"includedHeading"`
	ExcludedHeading  string `json:"excludedHeading" bson:"excludedHeading" yaml:"excludedHeading"`
	HotelsHeading    string `json:"hotelsHeading" bson:"hotelsHeading" yaml:"hotelsHeading"`
	PricingHeading   string `json:"pricingHeading" bson:"pricingHeading" yaml:"pricingHeading"`
	NotesHeading     string `json:"notesHeading" bson:"notesHeading" yaml:"notesHeading"`
}

// Scalar field keys.
const (
	FieldThemeColor       = "themeColor"
	FieldTitle            = "title"
	FieldSubtitle         = "subtitle"
	FieldDestination      = "destination"
	FieldTravelDates      = "travelDates"
	FieldTravelers        = "travelers"
	FieldCoverImage       = "coverImage"
	FieldIntroText        = "introText"
	FieldProgramNarrative = "programmeDetaille"
	FieldPrice            = "price"
	FieldPriceDetails     = "priceDetails"
	FieldPriceNote        = "priceNote"
	FieldNotes            = "notes"
	FieldAgencyName       = "agencyName"
	FieldContact          = "contact"
	FieldFooterText       = "footerText"
	FieldItineraryHeading = "itineraryHeading"
	FieldProgramHeading   = "programHeading"
	FieldIncludedHeading  = "includedHeading"
	FieldExcludedHeading  = "excludedHeading"
	FieldHotelsHeading    = "hotelsHeading"
	FieldPricingHeading   = "pricingHeading"
	FieldNotesHeading     = "notesHeading"
)

// ListKind names one of the ordered lists of the document.
type ListKind string

const (
	ListItinerary ListKind = "itinerary"
	ListIncluded  ListKind = "inclus"
	ListExcluded  ListKind = "exclus"
	ListHotels    ListKind = "hotels"
)

var fieldTable = map[string]func(*VoyageDocument) *string{
	FieldThemeColor:       func(d *VoyageDocument) *string { return &d.ThemeColor },
	FieldTitle:            func(d *VoyageDocument) *string { return &d.Title },
	FieldSubtitle:         func(d *VoyageDocument) *string { return &d.Subtitle },
	FieldDestination:      func(d *VoyageDocument) *string { return &d.Destination },
	FieldTravelDates:      func(d *VoyageDocument) *string { return &d.TravelDates },
	FieldTravelers:        func(d *VoyageDocument) *string { return &d.Travelers },
	FieldCoverImage:       func(d *VoyageDocument) *string { return &d.CoverImage },
	FieldIntroText:        func(d *VoyageDocument) *string { return &d.IntroText },
	FieldProgramNarrative: func(d *VoyageDocument) *string { return &d.ProgramNarrative },
	FieldPrice:            func(d *VoyageDocument) *string { return &d.Price },
	FieldPriceDetails:     func(d *VoyageDocument) *string { return &d.PriceDetails },
	FieldPriceNote:        func(d *VoyageDocument) *string { return &d.PriceNote },
	FieldNotes:            func(d *VoyageDocument) *string { return &d.Notes },
	FieldAgencyName:       func(d *VoyageDocument) *string { return &d.AgencyName },
	FieldContact:          func(d *VoyageDocument) *string { return &d.Contact },
	FieldFooterText:       func(d *VoyageDocument) *string { return &d.FooterText },
	FieldItineraryHeading: func(d *VoyageDocument) *string { return &d.ItineraryHeading },
	FieldProgramHeading:   func(d *VoyageDocument) *string { return &d.ProgramHeading },
	FieldIncludedHeading:  func(d *VoyageDocument) *string { return &d.IncludedHeading },
	FieldExcludedHeading:  func(d *VoyageDocument) *string { return &d.ExcludedHeading },
	FieldHotelsHeading:    func(d *VoyageDocument) *string { return &d.HotelsHeading },
	FieldPricingHeading:   func(d *VoyageDocument) *string { return &d.PricingHeading },
	FieldNotesHeading:     func(d *VoyageDocument) *string { return &d.NotesHeading },
}

// FieldNames lists every scalar field key, sorted.
func FieldNames() []string {
	names := make([]string, 0, len(fieldTable))
	for name := range fieldTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func IsField(name string) bool {
	_, ok := fieldTable[name]
	return ok
}

// Field returns the value of a scalar field.
func (d *VoyageDocument) Field(name string) (string, error) {
	get, ok := fieldTable[name]
	if !ok {
		return "", fmt.Errorf("unknown field %q", name)
	}
	return *get(d), nil
}

// SetField replaces the value of a scalar field.
func (d *VoyageDocument) SetField(name, value string) error {
	get, ok := fieldTable[name]
	if !ok {
		return fmt.Errorf("unknown field %q", name)
	}
	*get(d) = value
	return nil
}

// Strings returns the string list for inclus / exclus.
func (d *VoyageDocument) Strings(kind ListKind) (*[]string, bool) {
	switch kind {
	case ListIncluded:
		return &d.Included, true
	case ListExcluded:
		return &d.Excluded, true
	}
	return nil, false
}

// Len returns the length of any list kind, or -1 for an unknown kind.
func (d *VoyageDocument) Len(kind ListKind) int {
	switch kind {
	case ListItinerary:
		return len(d.Itinerary)
	case ListIncluded:
		return len(d.Included)
	case ListExcluded:
		return len(d.Excluded)
	case ListHotels:
		return len(d.CustomHotels)
	}
	return -1
}

// Clone returns a deep copy.
func (d *VoyageDocument) Clone() *VoyageDocument {
	if d == nil {
		return nil
	}
	c := *d
	c.Itinerary = slices.Clone(d.Itinerary)
	c.Included = slices.Clone(d.Included)
	c.Excluded = slices.Clone(d.Excluded)
	if d.CustomHotels != nil {
		c.CustomHotels = make([]CustomHotel, len(d.CustomHotels))
		for i, h := range d.CustomHotels {
			c.CustomHotels[i] = h.clone()
		}
	}
	return &c
}

// EnsureIDs assigns an id to every row that lacks one.
func (d *VoyageDocument) EnsureIDs() {
	for i := range d.Itinerary {
		if d.Itinerary[i].ID == "" {
			d.Itinerary[i].ID = NewEntryID()
		}
	}
	for i := range d.CustomHotels {
		if d.CustomHotels[i].ID == "" {
			d.CustomHotels[i].ID = NewEntryID()
		}
	}
}

// Defaults are applied to fields missing from a loaded payload.
func Defaults() map[string]string {
	return map[string]string{
		FieldThemeColor:       "#1f6f8b",
		FieldTitle:            "Votre proposition de voyage",
		FieldItineraryHeading: "Itinéraire",
		FieldProgramHeading:   "Programme détaillé",
		FieldIncludedHeading:  "Inclus",
		FieldExcludedHeading:  "Non inclus",
		FieldHotelsHeading:    "Hébergements",
		FieldPricingHeading:   "Tarif",
		FieldNotesHeading:     "Notes",
		FieldFooterText:       "Proposition établie sur demande, sous réserve de disponibilité.",
	}
}

// FromMap decodes a stored proposal payload. Defaults fill only the keys
// absent from raw; a key present with an empty value stays empty.
func FromMap(raw map[string]any) (*VoyageDocument, error) {
	doc := &VoyageDocument{}
	if raw != nil {
		data, err := bson.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		if err := bson.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
	}
	for name, value := range Defaults() {
		if _, present := raw[name]; !present {
			_ = doc.SetField(name, value)
		}
	}
	doc.EnsureIDs()
	doc.ensureLists()
	return doc, nil
}

// ensureLists makes absent lists empty so they encode as [] rather than null.
func (d *VoyageDocument) ensureLists() {
	if d.Itinerary == nil {
		d.Itinerary = []ItineraryEntry{}
	}
	if d.Included == nil {
		d.Included = []string{}
	}
	if d.Excluded == nil {
		d.Excluded = []string{}
	}
	if d.CustomHotels == nil {
		d.CustomHotels = []CustomHotel{}
	}
}
