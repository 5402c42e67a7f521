package models

import (
	"slices"

	"github.com/google/uuid"
)

// ItineraryEntry is one day of the proposal itinerary
type ItineraryEntry struct {
	ID      string `json:"id" bson:"id" yaml:"id"`
	Day     string `json:"day" bson:"day" yaml:"day"`
	Date    string `json:"date" bson:"date" yaml:"date"`
	Program string `json:"program" bson:"program" yaml:"program"`
	NightAt string `json:"nightAt" bson:"nightAt" yaml:"nightAt"`
	Hotel   string `json:"hotel" bson:"hotel" yaml:"hotel"`
}

// CustomHotel is a hotel added by hand, stored on the document
type CustomHotel struct {
	ID          string   `json:"id" bson:"id" yaml:"id"`
	Name        string   `json:"name" bson:"name" yaml:"name"`
	Description string   `json:"description" bson:"description" yaml:"description"`
	Images      []string `json:"images" bson:"images" yaml:"images"`
}

// ExtractedHotel is derived from itinerary rows and never persisted.
type ExtractedHotel struct {
	Name    string `json:"name"`
	NightAt string `json:"nightAt"`
}

func NewEntryID() string {
	return uuid.New().String()
}

// Row field names accepted by SetItineraryField / SetHotelField.
const (
	RowDay     = "day"
	RowDate    = "date"
	RowProgram = "program"
	RowNightAt = "nightAt"
	RowHotel   = "hotel"

	HotelName        = "name"
	HotelDescription = "description"
)

// Set updates one column of the row. It reports false for unknown columns.
func (e *ItineraryEntry) Set(field, value string) bool {
	switch field {
	case RowDay:
		e.Day = value
	case RowDate:
		e.Date = value
	case RowProgram:
		e.Program = value
	case RowNightAt:
		e.NightAt = value
	case RowHotel:
		e.Hotel = value
	default:
		return false
	}
	return true
}

func (h *CustomHotel) Set(field, value string) bool {
	switch field {
	case HotelName:
		h.Name = value
	case HotelDescription:
		h.Description = value
	default:
		return false
	}
	return true
}

func (h CustomHotel) clone() CustomHotel {
	h.Images = slices.Clone(h.Images)
	return h
}

// ExtractHotels returns the hotels named in the itinerary, deduplicated by
// name, in order of first appearance.
func ExtractHotels(doc *VoyageDocument) []ExtractedHotel {
	if doc == nil {
		return nil
	}
	seen := make(map[string]bool)
	var hotels []ExtractedHotel
	for _, row := range doc.Itinerary {
		if row.Hotel == "" || seen[row.Hotel] {
			continue
		}
		seen[row.Hotel] = true
		hotels = append(hotels, ExtractedHotel{Name: row.Hotel, NightAt: row.NightAt})
	}
	return hotels
}
