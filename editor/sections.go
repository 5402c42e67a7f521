package editor

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"voyage/history"
	"voyage/models"
)

// HideSection hides a section in previews and exports. It does not touch
// the document and works in either mode.
func (s *Session) HideSection(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden[id] = true
}

func (s *Session) RestoreSection(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hidden, id)
}

// Hidden returns the hidden section ids, sorted.
func (s *Session) Hidden() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hiddenLocked()
}

func (s *Session) hiddenLocked() []string {
	ids := make([]string, 0, len(s.hidden))
	for id := range s.hidden {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DeleteSection moves the given field values into the trash under id and
// clears those fields in the document.
func (s *Session) DeleteSection(id string, snapshot map[string]string) error {
	for name := range snapshot {
		if !models.IsField(name) {
			return fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
	}
	values := make(map[string]string, len(snapshot))
	for k, v := range snapshot {
		values[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateLocked(func(doc *models.VoyageDocument) error {
		for name := range values {
			_ = doc.SetField(name, "")
		}
		s.pushTrash(history.FieldPatch{ID: id, Values: values})
		return nil
	})
}

// DeleteListSection moves a whole list into the trash under id and empties it.
func (s *Session) DeleteListSection(id string, kind models.ListKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateLocked(func(doc *models.VoyageDocument) error {
		patch := history.SplicePatch{ID: id, List: string(kind)}
		switch kind {
		case models.ListItinerary:
			patch.Rows = doc.Itinerary
			doc.Itinerary = []models.ItineraryEntry{}
		case models.ListHotels:
			patch.Rows = doc.CustomHotels
			doc.CustomHotels = []models.CustomHotel{}
		case models.ListIncluded, models.ListExcluded:
			list, _ := doc.Strings(kind)
			patch.Strings = *list
			*list = []string{}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownList, kind)
		}
		s.pushTrash(patch)
		return nil
	})
}

func (s *Session) pushTrash(p history.Patch) {
	if evicted := s.trash.Push(p); evicted != nil {
		log.Debug().Str("section", evicted.Tag()).Msg("deleted section dropped from trash")
	}
}

// RestoreDeletedSection puts back the most recent content deleted under id
// and forgets it.
func (s *Session) RestoreDeletedSection(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEdit {
		return ErrNotEditing
	}
	patch, ok := s.trash.Take(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNothingToRestore, id)
	}
	return s.mutateLocked(func(doc *models.VoyageDocument) error {
		applyPatch(doc, patch)
		return nil
	})
}

func applyPatch(doc *models.VoyageDocument, patch history.Patch) {
	switch p := patch.(type) {
	case history.FieldPatch:
		for name, v := range p.Values {
			_ = doc.SetField(name, v)
		}
	case history.SplicePatch:
		kind := models.ListKind(p.List)
		switch kind {
		case models.ListItinerary:
			rows, _ := p.Rows.([]models.ItineraryEntry)
			doc.Itinerary = splice(doc.Itinerary, p.Index, rows)
		case models.ListHotels:
			rows, _ := p.Rows.([]models.CustomHotel)
			doc.CustomHotels = splice(doc.CustomHotels, p.Index, rows)
		default:
			if list, ok := doc.Strings(kind); ok {
				*list = splice(*list, p.Index, p.Strings)
			}
		}
	}
}

// splice inserts items into s at index i, clamped to the list bounds.
func splice[T any](s []T, i int, items []T) []T {
	if i < 0 {
		i = 0
	}
	if i > len(s) {
		i = len(s)
	}
	out := make([]T, 0, len(s)+len(items))
	out = append(out, s[:i]...)
	out = append(out, items...)
	return append(out, s[i:]...)
}
