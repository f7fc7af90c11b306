package service_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/service"
)

func TestInterestSelector_Toggle(t *testing.T) {
	s := service.NewInterestSelector(nil)

	for _, term := range []string{"AI/ML", "Robotics"} {
		if err := s.Toggle(term); err != nil {
			t.Fatalf("Toggle %s: %v", term, err)
		}
	}
	if !reflect.DeepEqual(s.Selected(), []string{"AI/ML", "Robotics"}) {
		t.Fatalf("expected insertion order, got %v", s.Selected())
	}
	if s.Summary() != "2 / 5 selected" {
		t.Fatalf("unexpected summary %q", s.Summary())
	}

	if err := s.Toggle("AI/ML"); err != nil {
		t.Fatalf("Toggle off: %v", err)
	}
	if !reflect.DeepEqual(s.Selected(), []string{"Robotics"}) {
		t.Fatalf("expected [Robotics], got %v", s.Selected())
	}
}

func TestInterestSelector_CapRejectsSixth(t *testing.T) {
	s := service.NewInterestSelector(nil)
	for _, term := range domain.InterestLibrary[:domain.MaxInterests] {
		if err := s.Toggle(term); err != nil {
			t.Fatalf("Toggle %s: %v", term, err)
		}
	}
	before := s.Selected()

	err := s.Toggle(domain.InterestLibrary[domain.MaxInterests])
	if !errors.Is(err, domain.ErrInterestCap) {
		t.Fatalf("expected ErrInterestCap, got %v", err)
	}
	if !reflect.DeepEqual(s.Selected(), before) {
		t.Fatalf("selection changed after rejected toggle: %v", s.Selected())
	}

	// Removing still works at capacity.
	if err := s.Toggle(before[0]); err != nil {
		t.Fatalf("Toggle off at cap: %v", err)
	}
	if len(s.Selected()) != domain.MaxInterests-1 {
		t.Fatalf("expected %d selected, got %d", domain.MaxInterests-1, len(s.Selected()))
	}
}

func TestInterestSelector_UnknownTerm(t *testing.T) {
	s := service.NewInterestSelector(nil)
	if err := s.Toggle("Knitting"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if s.CanSave() {
		t.Fatal("expected CanSave to be false with nothing selected")
	}
}

func TestNewInterestSelector_PreselectsFirstFive(t *testing.T) {
	s := service.NewInterestSelector([]string{"Design", "Design", "Knitting", "Web Dev", "App Dev", "Finance", "Coding", "Hardware"})
	want := []string{"Design", "Web Dev", "App Dev", "Finance", "Coding"}
	if !reflect.DeepEqual(s.Selected(), want) {
		t.Fatalf("expected %v, got %v", want, s.Selected())
	}

	opts := s.Options()
	if len(opts) != len(domain.InterestLibrary) {
		t.Fatalf("expected %d options, got %d", len(domain.InterestLibrary), len(opts))
	}
	if opts[0].Term != "Web Dev" || !opts[0].Active {
		t.Fatalf("expected Web Dev first and active, got %+v", opts[0])
	}
	if opts[2].Term != "AI/ML" || opts[2].Active {
		t.Fatalf("expected AI/ML inactive, got %+v", opts[2])
	}
}
