package service

import (
	"fmt"
	"slices"

	"github.com/msomdec/squadhub/internal/domain"
)

// InterestOption is one entry of the interest grid.
type InterestOption struct {
	Term   string
	Active bool
}

// InterestSelector is the bounded interest selection shared by onboarding
// and profile edit. It holds at most domain.MaxInterests terms, in the
// order they were selected.
type InterestSelector struct {
	selected []string
}

// NewInterestSelector pre-selects the first MaxInterests known terms of
// selected, skipping duplicates.
func NewInterestSelector(selected []string) *InterestSelector {
	s := &InterestSelector{}
	for _, term := range selected {
		if len(s.selected) == domain.MaxInterests {
			break
		}
		if domain.IsInterest(term) && !s.IsSelected(term) {
			s.selected = append(s.selected, term)
		}
	}
	return s
}

// Toggle adds an unselected term or removes a selected one. Adding past
// the cap returns ErrInterestCap and leaves the selection unchanged.
func (s *InterestSelector) Toggle(term string) error {
	if !domain.IsInterest(term) {
		return fmt.Errorf("%w: unknown interest %q", domain.ErrInvalidInput, term)
	}
	if i := slices.Index(s.selected, term); i >= 0 {
		s.selected = slices.Delete(s.selected, i, i+1)
		return nil
	}
	if len(s.selected) >= domain.MaxInterests {
		return domain.ErrInterestCap
	}
	s.selected = append(s.selected, term)
	return nil
}

func (s *InterestSelector) IsSelected(term string) bool {
	return slices.Contains(s.selected, term)
}

// Selected returns a copy of the selection in insertion order.
func (s *InterestSelector) Selected() []string {
	return slices.Clone(s.selected)
}

// Options lists the whole library in its fixed order.
func (s *InterestSelector) Options() []InterestOption {
	opts := make([]InterestOption, len(domain.InterestLibrary))
	for i, term := range domain.InterestLibrary {
		opts[i] = InterestOption{Term: term, Active: s.IsSelected(term)}
	}
	return opts
}

func (s *InterestSelector) Summary() string {
	return fmt.Sprintf("%d / %d selected", len(s.selected), domain.MaxInterests)
}

// CanSave reports whether at least one interest is selected.
func (s *InterestSelector) CanSave() bool {
	return len(s.selected) > 0
}
