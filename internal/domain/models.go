package domain

import (
	"fmt"
	"sort"
	"time"
)

// Tier is a subscription/access level.
type Tier string

const (
	TierGratuit Tier = "gratuit"
	TierPremium Tier = "premium"
)

// Question is a single quiz question. Correctness is always decided by exact
// set equality between the user's selection and CorrectAnswers, regardless of
// how many answers are correct.
type Question struct {
	Text           string   `json:"text"`
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"correctAnswers"`
	Explanation    string   `json:"explanation,omitempty"`
}

// NewQuestion builds a validated question: at least two options unique by
// value, and a non-empty correct set drawn verbatim from those options.
func NewQuestion(text string, options, correctAnswers []string, explanation string) (Question, error) {
	if text == "" {
		return Question{}, fmt.Errorf("%w: empty question text", ErrInvalidQuestion)
	}
	if len(options) < 2 {
		return Question{}, fmt.Errorf("%w: need at least 2 options, got %d", ErrInvalidQuestion, len(options))
	}
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		if _, dup := seen[opt]; dup {
			return Question{}, fmt.Errorf("%w: duplicate option %q", ErrInvalidQuestion, opt)
		}
		seen[opt] = struct{}{}
	}
	if len(correctAnswers) == 0 {
		return Question{}, fmt.Errorf("%w: no correct answers", ErrInvalidQuestion)
	}
	for _, ans := range correctAnswers {
		if _, ok := seen[ans]; !ok {
			return Question{}, fmt.Errorf("%w: correct answer %q is not an option", ErrInvalidQuestion, ans)
		}
	}
	return Question{
		Text:           text,
		Options:        append([]string(nil), options...),
		CorrectAnswers: append([]string(nil), correctAnswers...),
		Explanation:    explanation,
	}, nil
}

// Quiz is an ordered set of questions; order defines numbering and navigation
// and is fixed for the lifetime of an attempt. A quiz with an empty ID is
// ephemeral (e.g. freshly AI-generated) and its attempts are never persisted.
type Quiz struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Questions       []Question `json:"questions"`
	DurationMinutes int        `json:"durationMinutes"`
	AccessTier      Tier       `json:"accessTier"`
	IsMockExam      bool       `json:"isMockExam"`
	ScheduledFor    *time.Time `json:"scheduledFor,omitempty"`
	CreatedAt       time.Time  `json:"createdAt,omitempty"`
}

// Validate re-runs the question builder checks over the whole quiz. Records
// loaded from the store or produced by the generator go through this before
// an attempt can start.
func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return ErrEmptyQuiz
	}
	for i, question := range q.Questions {
		if _, err := NewQuestion(question.Text, question.Options, question.CorrectAnswers, question.Explanation); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

// Ephemeral reports whether attempts on this quiz are skipped by the recorder.
func (q Quiz) Ephemeral() bool {
	return q.ID == ""
}

// Selection is the set of options a user has picked for one question.
type Selection map[string]struct{}

func NewSelection(values ...string) Selection {
	s := make(Selection, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Toggle adds value if absent, removes it if present. Toggling twice is a
// round trip back to the original set.
func (s Selection) Toggle(value string) {
	if _, ok := s[value]; ok {
		delete(s, value)
		return
	}
	s[value] = struct{}{}
}

func (s Selection) Has(value string) bool {
	_, ok := s[value]
	return ok
}

// Equals is exact set equality: same size, same elements.
func (s Selection) Equals(values []string) bool {
	if len(s) != len(values) {
		return false
	}
	for _, v := range values {
		if _, ok := s[v]; !ok {
			return false
		}
	}
	return true
}

// Values returns the selection sorted for stable output.
func (s Selection) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// QuestionResult is the per-question verdict inside a Result.
type QuestionResult struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Selected    []string `json:"selected"`
	Correct     []string `json:"correct"`
	IsCorrect   bool     `json:"isCorrect"`
	Explanation string   `json:"explanation,omitempty"`
}

// Result is the immutable outcome of a finished attempt.
type Result struct {
	PerQuestion []QuestionResult `json:"perQuestion"`
	Score       int              `json:"score"`
	Total       int              `json:"total"`
	Percentage  int              `json:"percentage"`
}

// Attempt is the persisted summary of a completed session.
type Attempt struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	QuizID     string    `json:"quizId"`
	QuizTitle  string    `json:"quizTitle"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percentage int       `json:"percentage"`
	TakenAt    time.Time `json:"takenAt"`
}

// User carries the subscription state gating premium content.
type User struct {
	ID                    string     `json:"id"`
	Email                 string     `json:"email"`
	DisplayName           string     `json:"displayName"`
	SubscriptionType      Tier       `json:"subscriptionType"`
	SubscriptionExpiresAt *time.Time `json:"subscriptionExpiresAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt,omitempty"`
}

// TransactionAccepted is the gateway status code that upgrades a subscription.
const TransactionAccepted = "ACCEPTED"

// Transaction is the verified view of a payment, as returned by the gateway's
// status-check endpoint. The webhook's own claims are never trusted; only
// this round-trip result drives a tier change.
type Transaction struct {
	ID       string
	Status   string
	UserID   string
	Amount   int
	Currency string
	PlanDays int
}
