package editor

import (
	"fmt"

	"voyage/images"
	"voyage/models"
)

// move extracts the element at from and reinserts it at to.
// Out-of-range indices leave s unchanged and report false.
func move[T any](s []T, from, to int) ([]T, bool) {
	if from < 0 || from >= len(s) || to < 0 || to >= len(s) || from == to {
		return s, false
	}
	item := s[from]
	out := make([]T, 0, len(s))
	out = append(out, s[:from]...)
	out = append(out, s[from+1:]...)
	out = append(out, item)
	copy(out[to+1:], out[to:len(out)-1])
	out[to] = item
	return out, true
}

func inRange(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, n)
	}
	return nil
}

func stringList(doc *models.VoyageDocument, kind models.ListKind) (*[]string, error) {
	list, ok := doc.Strings(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownList, kind)
	}
	return list, nil
}

// SetListItem replaces line i of inclus / exclus.
func (s *Session) SetListItem(kind models.ListKind, i int, value string) error {
	return s.mutate(func(doc *models.VoyageDocument) error {
		list, err := stringList(doc, kind)
		if err != nil {
			return err
		}
		if err := inRange(i, len(*list)); err != nil {
			return err
		}
		(*list)[i] = value
		return nil
	})
}

// AddListItem appends an empty line.
func (s *Session) AddListItem(kind models.ListKind) error {
	return s.mutate(func(doc *models.VoyageDocument) error {
		list, err := stringList(doc, kind)
		if err != nil {
			return err
		}
		*list = append(*list, "")
		return nil
	})
}

// RemoveListItem deletes line i; later lines shift down by one.
func (s *Session) RemoveListItem(kind models.ListKind, i int) error {
	return s.mutate(func(doc *models.VoyageDocument) error {
		list, err := stringList(doc, kind)
		if err != nil {
			return err
		}
		if err := inRange(i, len(*list)); err != nil {
			return err
		}
		*list = append((*list)[:i], (*list)[i+1:]...)
		return nil
	})
}

// Reorder moves one item within a list. Invalid indices are a no-op.
func (s *Session) Reorder(kind models.ListKind, from, to int) error {
	return s.mutate(func(doc *models.VoyageDocument) error {
		var moved bool
		switch kind {
		case models.ListItinerary:
			doc.Itinerary, moved = move(doc.Itinerary, from, to)
		case models.ListIncluded:
			doc.Included, moved = move(doc.Included, from, to)
		case models.ListExcluded:
			doc.Excluded, moved = move(doc.Excluded, from, to)
		case models.ListHotels:
			doc.CustomHotels, moved = move(doc.CustomHotels, from, to)
		default:
			return fmt.Errorf("%w: %s", ErrUnknownList, kind)
		}
		if !moved {
			return errNoChange
		}
		return nil
	})
}

// AddItineraryRow appends a blank row and returns it.
func (s *Session) AddItineraryRow() (models.ItineraryEntry, error) {
	row := models.ItineraryEntry{ID: models.NewEntryID()}
	err := s.mutate(func(doc *models.VoyageDocument) error {
		doc.Itinerary = append(doc.Itinerary, row)
		return nil
	})
	return row, err
}

func (s *Session) RemoveItineraryRow(i int) error {
	return s.mutate(func(doc *models.VoyageDocument) error {
		if err := inRange(i, len(doc.Itinerary)); err != nil {
			return err
		}
		doc.Itinerary = append(doc.Itinerary[:i], doc.Itinerary[i+1:]...)
		return nil
	})
}

// SetItineraryField updates one column (day, date, program, nightAt, hotel)
// of row i.
func (s *Session) SetItineraryField(i int, field, value string) error {
	return s.mutate(func(doc *models.VoyageDocument) error {
		if err := inRange(i, len(doc.Itinerary)); err != nil {
			return err
		}
		if !doc.Itinerary[i].Set(field, value) {
			return fmt.Errorf("%w: itinerary.%s", ErrUnknownField, field)
		}
		return nil
	})
}

// ItineraryIndex returns the position of the row with the given id, or -1.
func (s *Session) ItineraryIndex(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.current.Itinerary {
		if row.ID == id {
			return i
		}
	}
	return -1
}

// AddHotel appends an empty custom hotel and returns it.
func (s *Session) AddHotel() (models.CustomHotel, error) {
	hotel := models.CustomHotel{ID: models.NewEntryID(), Images: []string{}}
	err := s.mutate(func(doc *models.VoyageDocument) error {
		doc.CustomHotels = append(doc.CustomHotels, hotel)
		return nil
	})
	return hotel, err
}

func (s *Session) RemoveHotel(i int) error {
	return s.mutate(func(doc *models.VoyageDocument) error {
		if err := inRange(i, len(doc.CustomHotels)); err != nil {
			return err
		}
		doc.CustomHotels = append(doc.CustomHotels[:i], doc.CustomHotels[i+1:]...)
		return nil
	})
}

// SetHotelField updates name or description of custom hotel i.
func (s *Session) SetHotelField(i int, field, value string) error {
	return s.mutate(func(doc *models.VoyageDocument) error {
		if err := inRange(i, len(doc.CustomHotels)); err != nil {
			return err
		}
		if !doc.CustomHotels[i].Set(field, value) {
			return fmt.Errorf("%w: hotel.%s", ErrUnknownField, field)
		}
		return nil
	})
}

// AddHotelImage appends url to hotel i. A URL that is not a renderable image
// is still stored; the returned warning tells the caller it will be skipped
// in previews and exports.
func (s *Session) AddHotelImage(i int, url string) (*Warning, error) {
	err := s.mutate(func(doc *models.VoyageDocument) error {
		if err := inRange(i, len(doc.CustomHotels)); err != nil {
			return err
		}
		doc.CustomHotels[i].Images = append(doc.CustomHotels[i].Images, url)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !images.IsRenderable(url) {
		return &Warning{
			Field:   "customHotels.images",
			Message: "URL is not a recognised image and will not be displayed",
		}, nil
	}
	return nil, nil
}

func (s *Session) RemoveHotelImage(i, img int) error {
	return s.mutate(func(doc *models.VoyageDocument) error {
		if err := inRange(i, len(doc.CustomHotels)); err != nil {
			return err
		}
		imgs := doc.CustomHotels[i].Images
		if err := inRange(img, len(imgs)); err != nil {
			return err
		}
		doc.CustomHotels[i].Images = append(imgs[:img], imgs[img+1:]...)
		return nil
	})
}

// HotelIndex returns the position of the custom hotel with the given id, or -1.
func (s *Session) HotelIndex(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.current.CustomHotels {
		if h.ID == id {
			return i
		}
	}
	return -1
}
