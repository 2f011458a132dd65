package app

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"lpk-quiz-service/internal/domain"
	"lpk-quiz-service/internal/ledger"
	"lpk-quiz-service/internal/scoring"
)

const defaultStartGrace = 5 * time.Minute

// Deps wires the collaborators of QuizService.
type Deps struct {
	Quizzes      QuizRepository
	Questions    QuestionStore
	Sessions     SessionRepository
	Work         UnitOfWork
	Ledger       *ledger.Service
	Certificates CertificateIssuer
	Events       EventPublisher
	Notifier     *NotificationHub
	// StartGrace extends the start marker past the quiz duration.
	StartGrace time.Duration
}

// QuizService contains the quiz start and submission use cases.
type QuizService struct {
	quizzes      QuizRepository
	questions    QuestionStore
	sessions     SessionRepository
	work         UnitOfWork
	ledger       *ledger.Service
	certificates CertificateIssuer
	events       EventPublisher
	notifier     *NotificationHub
	startGrace   time.Duration
	now          func() time.Time
	newID        func() string
}

func NewQuizService(deps Deps) *QuizService {
	s := &QuizService{
		quizzes:      deps.Quizzes,
		questions:    deps.Questions,
		sessions:     deps.Sessions,
		work:         deps.Work,
		ledger:       deps.Ledger,
		certificates: deps.Certificates,
		events:       deps.Events,
		notifier:     deps.Notifier,
		startGrace:   deps.StartGrace,
		now:          time.Now,
		newID:        func() string { return uuid.NewString() },
	}
	if s.events == nil {
		s.events = NopPublisher{}
	}
	if s.notifier == nil {
		s.notifier = NewNotificationHub()
	}
	if s.startGrace <= 0 {
		s.startGrace = defaultStartGrace
	}
	return s
}

// WithClock is test-only for deterministic timestamps.
func (s *QuizService) WithClock(now func() time.Time) *QuizService {
	clone := *s
	clone.now = now
	return &clone
}

// StartQuiz validates the quiz window and returns its questions without the answer key.
func (s *QuizService) StartQuiz(ctx context.Context, quizID, userID string) (domain.QuizStart, error) {
	if strings.TrimSpace(quizID) == "" {
		return domain.QuizStart{}, domain.ErrInvalidQuizID
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizStart{}, err
	}
	now := s.now()
	if err := quiz.CheckAvailable(now); err != nil {
		return domain.QuizStart{}, err
	}
	cfg, err := domain.ParseQuizConfig(quiz.Config)
	if err != nil {
		return domain.QuizStart{}, err
	}

	questions, err := s.selectQuestions(ctx, quiz, cfg)
	if err != nil {
		return domain.QuizStart{}, err
	}

	ttl := time.Duration(cfg.DurationMinutes)*time.Minute + s.startGrace
	if err := s.sessions.MarkStarted(ctx, quiz.ID, userID, now, ttl); err != nil {
		// the attempt falls back to the submit time as its start
		log.Printf("mark quiz %s started for %s: %v", quiz.ID, userID, err)
	}

	views := make([]domain.QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, q.View())
	}
	return domain.QuizStart{
		QuizID:          quiz.ID,
		Title:           quiz.Title,
		DurationMinutes: cfg.DurationMinutes,
		StartedAt:       now,
		Questions:       views,
	}, nil
}

func (s *QuizService) selectQuestions(ctx context.Context, quiz domain.Quiz, cfg domain.QuizConfig) ([]domain.Question, error) {
	curated, err := s.questions.CuratedForQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("load curated questions: %w", err)
	}
	if len(curated) > 0 {
		if len(curated) > cfg.QuestionCount {
			curated = curated[:cfg.QuestionCount]
		}
		return curated, nil
	}

	filter := domain.QuestionFilter{Type: cfg.TypeFilter}
	if filter.Type == "" {
		filter.CategoryID = quiz.CategoryID
	}
	questions, err := s.questions.FindByFilter(ctx, filter, cfg.QuestionCount)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}

// SubmitQuiz scores answers, records the attempt together with any earned
// points, and issues a certificate for passing scores.
//
// The attempt, its ledger entry and the running total commit in one
// transaction. The certificate step runs afterwards and only degrades the
// response when it fails.
func (s *QuizService) SubmitQuiz(ctx context.Context, quizID string, user domain.User, answers map[string]string) (domain.SubmitResult, error) {
	if len(answers) == 0 {
		return domain.SubmitResult{}, domain.ErrEmptyAnswers
	}
	if strings.TrimSpace(quizID) == "" {
		return domain.SubmitResult{}, domain.ErrInvalidQuizID
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	finishedAt := s.now()
	if err := quiz.CheckAvailable(finishedAt); err != nil {
		return domain.SubmitResult{}, err
	}

	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	questions, err := s.questions.FindByIDs(ctx, ids)
	if err != nil {
		return domain.SubmitResult{}, fmt.Errorf("resolve answer key: %w", err)
	}
	sortByIDs(questions, ids)

	scored := scoring.Score(answers, questions)

	startedAt, ok, err := s.sessions.StartedAt(ctx, quiz.ID, user.ID)
	if err != nil {
		log.Printf("read quiz %s start for %s: %v", quiz.ID, user.ID, err)
	}
	if !ok || err != nil || startedAt.After(finishedAt) {
		startedAt = finishedAt
	}

	attempt := domain.Attempt{
		ID:             s.newID(),
		UserID:         user.ID,
		QuizID:         quiz.ID,
		Score:          scored.Score,
		CorrectCount:   scored.CorrectCount,
		TotalQuestions: scored.Total,
		Answers:        answers,
		StartedAt:      startedAt,
		FinishedAt:     finishedAt,
	}

	var (
		earned  int
		balance domain.Balance
	)
	err = s.work.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		// Locking the balance first serialises this user's submissions, so
		// the prior scores read below cannot go stale before the award.
		if _, err := tx.Ledger.LockBalance(ctx, user.ID); err != nil {
			return fmt.Errorf("lock balance: %w", err)
		}
		prior, err := tx.Attempts.ScoresFor(ctx, user.ID, quiz.ID)
		if err != nil {
			return fmt.Errorf("load prior attempts: %w", err)
		}
		earned = scoring.Delta(prior, scored.Score, scored.Total)

		if err := tx.Attempts.Insert(ctx, attempt); err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}
		balance, err = s.ledger.Award(ctx, tx.Ledger, user.ID, ledger.ActionQuiz, earned, ledger.QuizReference(quiz.ID))
		return err
	})
	if err != nil {
		return domain.SubmitResult{}, fmt.Errorf("record attempt: %w", err)
	}

	if err := s.sessions.Clear(ctx, quiz.ID, user.ID); err != nil {
		log.Printf("clear quiz %s start for %s: %v", quiz.ID, user.ID, err)
	}

	outcome, err := s.certificates.IssueIfEligible(ctx, user.ID, quiz.ID, user.Name, quiz.Title, scored.Score)
	if err != nil {
		log.Printf("certificate for quiz %s user %s: %v", quiz.ID, user.ID, err)
	}

	s.announce(ctx, attempt, earned, balance, outcome.Status, outcome.Certificate)

	return domain.SubmitResult{
		AttemptID:         attempt.ID,
		Score:             scored.Score,
		CorrectCount:      scored.CorrectCount,
		TotalQuestions:    scored.Total,
		EarnedPoints:      earned,
		TotalPoints:       balance.TotalPoints,
		Level:             balance.Level,
		CertificateURL:    outcome.URL(),
		CertificateStatus: outcome.Status,
		Results:           reviewResults(questions, answers, scored),
	}, nil
}

// announce publishes committed effects. Failures are logged only.
func (s *QuizService) announce(ctx context.Context, attempt domain.Attempt, earned int, balance domain.Balance, status domain.CertificateStatus, cert *domain.Certificate) {
	if earned > 0 {
		event := domain.Event{
			Type:        domain.EventPointsAwarded,
			UserID:      attempt.UserID,
			QuizID:      attempt.QuizID,
			AttemptID:   attempt.ID,
			Points:      earned,
			TotalPoints: balance.TotalPoints,
			Level:       balance.Level,
			OccurredAt:  attempt.FinishedAt,
		}
		if err := s.events.Publish(ctx, event); err != nil {
			log.Printf("publish %s: %v", event.Type, err)
		}
		s.notifier.Publish(attempt.UserID, Notification{Type: NotificationPointsAwarded, Payload: event})
	}

	if status == domain.CertificateIssued && cert != nil {
		event := domain.Event{
			Type:            domain.EventCertificateIssued,
			UserID:          attempt.UserID,
			QuizID:          attempt.QuizID,
			AttemptID:       attempt.ID,
			CertificateCode: cert.Code,
			CertificateURL:  cert.URL,
			OccurredAt:      cert.IssuedAt,
		}
		if err := s.events.Publish(ctx, event); err != nil {
			log.Printf("publish %s: %v", event.Type, err)
		}
		s.notifier.Publish(attempt.UserID, Notification{Type: NotificationCertificateIssued, Payload: event})
	}
}

// reviewResults reveals the correct answer and explanation only for
// questions the user got right.
func reviewResults(questions []domain.Question, answers map[string]string, scored scoring.Result) []domain.QuestionResult {
	results := make([]domain.QuestionResult, 0, len(questions))
	for _, q := range questions {
		r := domain.QuestionResult{
			ID:              q.ID,
			Content:         q.Content,
			Options:         q.Options,
			SubmittedAnswer: answers[q.ID],
			IsCorrect:       scored.Correct[q.ID],
		}
		if r.IsCorrect {
			correct := q.CorrectAnswer
			r.CorrectAnswer = &correct
			if q.Explanation != "" {
				explanation := q.Explanation
				r.Explanation = &explanation
			}
		}
		results = append(results, r)
	}
	return results
}

func sortByIDs(questions []domain.Question, ids []string) {
	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	sort.SliceStable(questions, func(i, j int) bool {
		return pos[questions[i].ID] < pos[questions[j].ID]
	})
}
