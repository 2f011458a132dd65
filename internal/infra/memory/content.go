package memory

import (
	"context"
	"sort"
	"sync"

	"lpk-quiz-service/internal/domain"
)

// Content is an in-memory catalogue of quizzes and questions (useful for tests/demos).
// It serves both as a QuizLoader and as an app.QuestionStore.
type Content struct {
	mu        sync.RWMutex
	quizzes   map[string]domain.Quiz
	questions map[string]domain.Question
	curated   map[string][]string
}

func NewContent() *Content {
	return &Content{
		quizzes:   make(map[string]domain.Quiz),
		questions: make(map[string]domain.Question),
		curated:   make(map[string][]string),
	}
}

// PutQuiz adds or replaces a quiz.
func (c *Content) PutQuiz(quiz domain.Quiz) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quizzes[quiz.ID] = quiz
}

// PutQuestions adds or replaces questions.
func (c *Content) PutQuestions(questions ...domain.Question) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range questions {
		c.questions[q.ID] = q
	}
}

// Curate sets the ordered question list of a quiz.
func (c *Content) Curate(quizID string, questionIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.curated[quizID] = append([]string(nil), questionIDs...)
}

func (c *Content) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if quiz, ok := c.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

// FindByIDs skips unknown IDs.
func (c *Content) FindByIDs(_ context.Context, ids []string) ([]domain.Question, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Question, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if q, ok := c.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

// FindByFilter returns matching questions ordered by ID.
func (c *Content) FindByFilter(_ context.Context, filter domain.QuestionFilter, limit int) ([]domain.Question, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Question, 0)
	for _, q := range c.questions {
		if filter.Type != "" && q.Type != filter.Type {
			continue
		}
		if filter.CategoryID != "" && q.CategoryID != filter.CategoryID {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *Content) CuratedForQuiz(_ context.Context, quizID string) ([]domain.Question, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := c.curated[quizID]
	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := c.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}
