package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrEmptyQuiz is returned when a quiz has no questions; no session is created.
	ErrEmptyQuiz = errors.New("quiz has no questions")
	// ErrInvalidQuestion is returned by the question builder on arity violations.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrSessionNotFound is returned when an attempt session has not been started.
	ErrSessionNotFound = errors.New("attempt session not found")
	// ErrOptionUnknown indicates a toggled option is not on the current question.
	ErrOptionUnknown = errors.New("option not on question")
	// ErrUserNotFound indicates the user record is absent from the store.
	ErrUserNotFound = errors.New("user not found")
	// ErrPremiumRequired gates premium quizzes behind an active subscription.
	ErrPremiumRequired = errors.New("premium subscription required")
	// ErrExamNotOpen is returned for mock exams before their scheduled start.
	ErrExamNotOpen = errors.New("mock exam not open yet")
	// ErrMissingTransaction is returned when a payment notification carries no transaction ID.
	ErrMissingTransaction = errors.New("missing transaction identifier")
	// ErrMissingUser is returned when a verified transaction carries no user identifier.
	ErrMissingUser = errors.New("transaction has no user identifier")
	// ErrVerificationFailed wraps a failed round trip to the payment gateway.
	ErrVerificationFailed = errors.New("payment verification failed")
	// ErrMissingVerification is returned when the gateway's status check comes
	// back without a transaction status, so the notification cannot be judged.
	ErrMissingVerification = errors.New("missing verification response")
	// ErrInvalidDifficulty is returned for a difficulty outside facile/moyen/difficile.
	ErrInvalidDifficulty = errors.New("unknown difficulty")
	// ErrMissingTopic is returned when quiz generation is requested without a topic.
	ErrMissingTopic = errors.New("missing topic")
	// ErrGenerationFailed wraps prompt-service failures and unparseable output.
	ErrGenerationFailed = errors.New("quiz generation failed")
)
