package viewer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/five82/lectern/internal/moodle"
	"github.com/five82/lectern/internal/session"
)

// QuizGateway lists quizzes.
type QuizGateway interface {
	Quizzes(ctx context.Context, courseIDs ...int) ([]moodle.Quiz, error)
}

// Bridger converts a site URL into an authenticated one.
type Bridger interface {
	URL(ctx context.Context, target string) string
}

// SessionSource supplies the active endpoint.
type SessionSource interface {
	Current() (session.Config, bool)
}

var ErrQuizNotFound = errors.New("quiz not found")

// QuizSummary is what the quiz viewer shows. Attempts happen in the browser
// at OpenURL.
type QuizSummary struct {
	Quiz    moodle.Quiz
	OpenURL string
}

// Quizzes is the quiz viewer.
type Quizzes struct {
	gateway QuizGateway
	bridge  Bridger
	session SessionSource
}

// NewQuizzes builds the quiz viewer.
func NewQuizzes(gateway QuizGateway, bridge Bridger, src SessionSource) *Quizzes {
	return &Quizzes{gateway: gateway, bridge: bridge, session: src}
}

// Summary finds the quiz behind m and builds its bridged web link.
func (q *Quizzes) Summary(ctx context.Context, courseID int, m moodle.Module) (QuizSummary, error) {
	cfg, ok := q.session.Current()
	if !ok || !cfg.Usable() {
		return QuizSummary{}, moodle.ErrNotConfigured
	}
	quizzes, err := q.gateway.Quizzes(ctx, courseID)
	if err != nil {
		return QuizSummary{}, fmt.Errorf("list quizzes: %w", err)
	}
	for _, quiz := range quizzes {
		if (m.Instance != 0 && quiz.ID == m.Instance) || quiz.CourseModule == m.ID {
			cmid := quiz.CourseModule
			if cmid == 0 {
				cmid = m.ID
			}
			target := fmt.Sprintf("%s/mod/quiz/view.php?id=%d", strings.TrimRight(cfg.URL, "/"), cmid)
			return QuizSummary{Quiz: quiz, OpenURL: q.bridge.URL(ctx, target)}, nil
		}
	}
	return QuizSummary{}, fmt.Errorf("%w: module %d", ErrQuizNotFound, m.ID)
}
