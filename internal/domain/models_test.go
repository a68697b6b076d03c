package domain

import (
	"errors"
	"testing"
)

func TestNewQuestionValidation(t *testing.T) {
	if _, err := NewQuestion("Q?", []string{"A", "B"}, []string{"A"}, ""); err != nil {
		t.Fatalf("valid question rejected: %v", err)
	}
	if _, err := NewQuestion("Q?", []string{"A"}, []string{"A"}, ""); !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("expected rejection for single option, got %v", err)
	}
	if _, err := NewQuestion("Q?", []string{"A", "A"}, []string{"A"}, ""); !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("expected rejection for duplicate options, got %v", err)
	}
	if _, err := NewQuestion("Q?", []string{"A", "B"}, nil, ""); !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("expected rejection for empty correct set, got %v", err)
	}
	if _, err := NewQuestion("Q?", []string{"A", "B"}, []string{"C"}, ""); !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("expected rejection for correct answer outside options, got %v", err)
	}
	if _, err := NewQuestion("", []string{"A", "B"}, []string{"A"}, ""); !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("expected rejection for empty text, got %v", err)
	}
}

func TestQuizValidateRequiresQuestions(t *testing.T) {
	if err := (Quiz{Title: "empty"}).Validate(); !errors.Is(err, ErrEmptyQuiz) {
		t.Fatalf("expected ErrEmptyQuiz, got %v", err)
	}
}

func TestSelectionToggleRoundTrip(t *testing.T) {
	s := NewSelection()
	s.Toggle("A")
	if !s.Has("A") {
		t.Fatalf("expected A selected")
	}
	s.Toggle("A")
	if len(s) != 0 {
		t.Fatalf("expected empty after double toggle, got %v", s.Values())
	}
}

func TestSelectionEquality(t *testing.T) {
	s := NewSelection("B", "C")
	if !s.Equals([]string{"C", "B"}) {
		t.Fatalf("order must not matter")
	}
	if s.Equals([]string{"B"}) {
		t.Fatalf("subset must not match")
	}
	if s.Equals([]string{"A", "B", "C"}) {
		t.Fatalf("superset must not match")
	}
	if NewSelection().Equals([]string{"B"}) {
		t.Fatalf("empty set must not match a non-empty correct set")
	}
}
