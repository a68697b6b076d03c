package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"prepquiz-service/internal/domain"
)

// PromptClient sends a prompt to the generative-AI service and returns the
// raw model output.
type PromptClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GenerateRequest is the quiz-generation input contract.
type GenerateRequest struct {
	Topic             string `json:"topic"`
	NumberOfQuestions int    `json:"numberOfQuestions,omitempty"`
	Difficulty        string `json:"difficulty,omitempty"`
}

const (
	DifficultyFacile    = "facile"
	DifficultyMoyen     = "moyen"
	DifficultyDifficile = "difficile"

	defaultQuestionCount = 5
	maxQuestionCount     = 20
)

// GeneratorService produces ephemeral quizzes from a topic via the prompt
// service. Generated quizzes carry no ID, so attempts on them are never
// recorded.
type GeneratorService struct {
	client PromptClient
}

func NewGeneratorService(client PromptClient) *GeneratorService {
	return &GeneratorService{client: client}
}

// Generate validates the request, prompts the model, and parses the output
// through the question builder so malformed questions never reach a session.
func (s *GeneratorService) Generate(ctx context.Context, req GenerateRequest) (domain.Quiz, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return domain.Quiz{}, domain.ErrMissingTopic
	}
	count := req.NumberOfQuestions
	if count <= 0 {
		count = defaultQuestionCount
	}
	if count > maxQuestionCount {
		count = maxQuestionCount
	}
	difficulty := req.Difficulty
	switch difficulty {
	case DifficultyFacile, DifficultyMoyen, DifficultyDifficile:
	case "":
		difficulty = DifficultyMoyen
	default:
		return domain.Quiz{}, fmt.Errorf("%w: %q", domain.ErrInvalidDifficulty, req.Difficulty)
	}

	raw, err := s.client.Complete(ctx, buildPrompt(req.Topic, count, difficulty))
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	quiz, err := parseGeneratedQuiz(raw)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	if quiz.Title == "" {
		quiz.Title = "Quiz: " + req.Topic
	}
	quiz.DurationMinutes = len(quiz.Questions)
	quiz.AccessTier = domain.TierGratuit
	return quiz, nil
}

func buildPrompt(topic string, count int, difficulty string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a multiple-choice quiz about %q with exactly %d questions at difficulty %q.\n", topic, count, difficulty)
	b.WriteString("Respond with JSON only, no prose, in this shape:\n")
	b.WriteString(`{"title": "...", "description": "...", "questions": [{"text": "...", "options": ["...", "..."], "correctAnswers": ["..."], "explanation": "..."}]}`)
	b.WriteString("\nEach question needs at least 2 distinct options; every correctAnswers entry must appear verbatim in options.")
	return b.String()
}

// parseGeneratedQuiz tolerates markdown code fences around the JSON, a common
// model habit, then runs the result through the domain builder.
func parseGeneratedQuiz(raw string) (domain.Quiz, error) {
	cleaned := stripCodeFences(raw)

	var wire struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Questions   []struct {
			Text           string   `json:"text"`
			Options        []string `json:"options"`
			CorrectAnswers []string `json:"correctAnswers"`
			Explanation    string   `json:"explanation"`
		} `json:"questions"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal model output: %v", err)
	}
	if len(wire.Questions) == 0 {
		return domain.Quiz{}, fmt.Errorf("model output has no questions")
	}

	questions := make([]domain.Question, 0, len(wire.Questions))
	for i, q := range wire.Questions {
		question, err := domain.NewQuestion(q.Text, q.Options, q.CorrectAnswers, q.Explanation)
		if err != nil {
			return domain.Quiz{}, fmt.Errorf("generated question %d: %v", i+1, err)
		}
		questions = append(questions, question)
	}
	return domain.Quiz{
		Title:       wire.Title,
		Description: wire.Description,
		Questions:   questions,
	}, nil
}

func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
