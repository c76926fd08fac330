// Package scoring turns raw quiz answers into subject scores and resolves ranks.
package scoring

import (
	"strings"
	"time"
)

// Recognised subjects, in their stored spelling.
const (
	SubjectEnglish       = "English"
	SubjectMathematics   = "Mathematics"
	SubjectMentalAbility = "Mental_ability"
	SubjectScience       = "Science"
	SubjectSocialScience = "Social_Science"
)

const (
	pointsCorrect = 4
	penaltyWrong  = 1
)

var allowedSubjects = map[string]string{
	"english":        SubjectEnglish,
	"mathematics":    SubjectMathematics,
	"mental_ability": SubjectMentalAbility,
	"science":        SubjectScience,
	"social_science": SubjectSocialScience,
}

// Subjects lists the recognised subjects in a fixed order.
func Subjects() []string {
	return []string{SubjectEnglish, SubjectMathematics, SubjectMentalAbility, SubjectScience, SubjectSocialScience}
}

// CanonicalSubject maps a free-form subject label onto the allow-list.
func CanonicalSubject(label string) (string, bool) {
	subject, ok := allowedSubjects[strings.ToLower(strings.TrimSpace(label))]
	return subject, ok
}

// Score is a single subject's running score and the maximum it could have reached.
type Score struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

// SubjectScores holds one Score per recognised subject.
type SubjectScores map[string]Score

// Normalize returns a copy keyed by canonical subject names with every subject present.
// Unrecognised keys are dropped.
func (s SubjectScores) Normalize() SubjectScores {
	out := make(SubjectScores, len(allowedSubjects))
	for _, subject := range Subjects() {
		out[subject] = Score{}
	}
	for label, score := range s {
		if subject, ok := CanonicalSubject(label); ok {
			out[subject] = score
		}
	}
	return out
}

// Question is one quiz item as submitted by the client.
type Question struct {
	Subject string `json:"subject" validate:"required"`
	Answer  string `json:"answer"`
}

// Attempt is a stored test attempt. A zero Timestamp means the attempt carries no time.
type Attempt struct {
	Score         int           `json:"score"`
	Total         int           `json:"total"`
	SubjectScores SubjectScores `json:"subjectScores,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// HasTimestamp reports whether the attempt recorded when it was taken.
func (a Attempt) HasTimestamp() bool {
	return !a.Timestamp.IsZero()
}

// Aggregate scores answers against questions. answers is parallel to questions; an empty
// or missing entry is a skipped question. warn, when non-nil, receives the index and label
// of every question whose subject is not recognised.
func Aggregate(questions []Question, answers []string, warn func(index int, subject string)) SubjectScores {
	scores := SubjectScores{}.Normalize()

	for i, question := range questions {
		subject, ok := CanonicalSubject(question.Subject)
		if !ok {
			if warn != nil {
				warn(i, question.Subject)
			}
			continue
		}

		var answer string
		if i < len(answers) {
			answer = answers[i]
		}

		current := scores[subject]
		current.Total += pointsCorrect
		switch {
		case answer == "":
		case answer == question.Answer:
			current.Score += pointsCorrect
		default:
			current.Score -= penaltyWrong
			if current.Score < 0 {
				current.Score = 0
			}
		}
		scores[subject] = current
	}

	return scores
}
