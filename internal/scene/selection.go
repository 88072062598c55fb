package scene

import (
	"slices"

	"github.com/samber/lo"
)

// Select replaces the selection with id, or toggles id when additive.
func (s *Store) Select(id string, additive bool) bool {
	return s.mutate(func() bool {
		if _, ok := s.byID[id]; !ok {
			return false
		}
		switch {
		case !additive:
			s.selected = []string{id}
		case lo.Contains(s.selected, id):
			s.selected = lo.Without(s.selected, id)
		default:
			s.selected = append(s.selected, id)
		}
		return true
	})
}

// SelectMany replaces the selection with the known ids among ids.
func (s *Store) SelectMany(ids []string) bool {
	return s.mutate(func() bool {
		next := lo.Uniq(lo.Filter(ids, func(id string, _ int) bool {
			_, ok := s.byID[id]
			return ok
		}))
		if slices.Equal(next, s.selected) {
			return false
		}
		s.selected = next
		return true
	})
}

func (s *Store) ClearSelection() bool {
	return s.mutate(func() bool {
		if len(s.selected) == 0 {
			return false
		}
		s.selected = nil
		return true
	})
}

func (s *Store) SelectAll() bool {
	return s.mutate(func() bool {
		s.selected = make([]string, 0, len(s.images))
		for _, img := range s.images {
			s.selected = append(s.selected, img.ID)
		}
		return len(s.selected) > 0
	})
}

// SelectedIDs returns the selection in selection order.
func (s *Store) SelectedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.selected...)
}

func (s *Store) IsSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Contains(s.selected, id)
}
