package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"lpk-quiz-service/internal/app"
	"lpk-quiz-service/internal/certificate"
	"lpk-quiz-service/internal/domain"
	"lpk-quiz-service/internal/infra/memory"
	"lpk-quiz-service/internal/ledger"
)

var testNow = time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)

type fixture struct {
	service   *app.QuizService
	profiles  *app.ProfileService
	content   *memory.Content
	store     *memory.Store
	certs     *memory.CertificateStore
	sessions  *memory.SessionStore
	hub       *app.NotificationHub
	events    *recordingPublisher
	quizRepo  *memory.QuizRepository
	clock     *testClock
	user      domain.User
	questions int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRenderer(t, certificate.NewPDFRenderer(memory.NewArtifactStore(""), ""), time.Second)
}

// newFixtureWithRenderer swaps the certificate renderer and its timeout.
func newFixtureWithRenderer(t *testing.T, renderer certificate.Renderer, renderTimeout time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		content:   memory.NewContent(),
		store:     memory.NewStore(),
		certs:     memory.NewCertificateStore(),
		sessions:  memory.NewSessionStore(),
		hub:       app.NewNotificationHub(),
		events:    &recordingPublisher{},
		clock:     &testClock{now: testNow},
		user:      domain.User{ID: "user-1", Name: "Siti Rahayu"},
		questions: 10,
	}
	f.content.PutQuiz(domain.Quiz{
		ID:         "quiz-1",
		Title:      "Bahasa Jepang N5",
		CategoryID: "jp",
		IsActive:   true,
		Config:     json.RawMessage(`{"question_count": 10, "duration": 20}`),
	})
	ids := make([]string, 0, f.questions)
	for i := 1; i <= f.questions; i++ {
		q := domain.Question{
			ID:            fmt.Sprintf("q%02d", i),
			Content:       fmt.Sprintf("Pertanyaan %d", i),
			Options:       []string{"a", "b", "c"},
			CorrectAnswer: "a",
			Explanation:   fmt.Sprintf("Penjelasan %d", i),
			Type:          "vocabulary",
			CategoryID:    "jp",
		}
		f.content.PutQuestions(q)
		ids = append(ids, q.ID)
	}
	f.content.Curate("quiz-1", ids...)

	f.quizRepo = memory.NewQuizRepository(f.content, time.Minute)
	points := ledger.NewService(f.store.Ledger(), f.store, ledger.DefaultLevels).WithClock(f.clock.Now)
	issuer := certificate.NewIssuer(f.certs, renderer, renderTimeout).WithClock(f.clock.Now)
	f.service = app.NewQuizService(app.Deps{
		Quizzes:      f.quizRepo,
		Questions:    f.content,
		Sessions:     f.sessions,
		Work:         f.store,
		Ledger:       points,
		Certificates: issuer,
		Events:       f.events,
		Notifier:     f.hub,
	}).WithClock(f.clock.Now)
	f.profiles = app.NewProfileService(points, issuer)
	return f
}

// answers marks the first correct questions right and the rest wrong.
func (f *fixture) answers(correct int) map[string]string {
	out := make(map[string]string, f.questions)
	for i := 1; i <= f.questions; i++ {
		answer := "b"
		if i <= correct {
			answer = "a"
		}
		out[fmt.Sprintf("q%02d", i)] = answer
	}
	return out
}

func TestSubmitRetakesAwardOnlyImprovement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	steps := []struct {
		correct    int
		score      int
		earned     int
		total      int64
		certStatus domain.CertificateStatus
	}{
		{correct: 6, score: 60, earned: 60, total: 60, certStatus: domain.CertificateNotEligible},
		{correct: 10, score: 100, earned: 90, total: 150, certStatus: domain.CertificateIssued},
		{correct: 8, score: 80, earned: 0, total: 150, certStatus: domain.CertificateExisting},
	}
	var certURL string
	for i, step := range steps {
		f.clock.Advance(time.Minute)
		res, err := f.service.SubmitQuiz(ctx, "quiz-1", f.user, f.answers(step.correct))
		if err != nil {
			t.Fatalf("attempt %d: submit: %v", i+1, err)
		}
		if res.Score != step.score || res.EarnedPoints != step.earned || res.TotalPoints != step.total {
			t.Fatalf("attempt %d: expected score %d earned %d total %d, got %+v", i+1, step.score, step.earned, step.total, res)
		}
		if res.CertificateStatus != step.certStatus {
			t.Fatalf("attempt %d: expected certificate %s, got %s", i+1, step.certStatus, res.CertificateStatus)
		}
		switch step.certStatus {
		case domain.CertificateNotEligible:
			if res.CertificateURL != nil {
				t.Fatalf("attempt %d: expected no certificate url", i+1)
			}
		case domain.CertificateIssued:
			certURL = *res.CertificateURL
		case domain.CertificateExisting:
			if res.CertificateURL == nil || *res.CertificateURL != certURL {
				t.Fatalf("attempt %d: expected the original certificate url", i+1)
			}
		}
	}

	if got := len(f.store.Attempts(f.user.ID, "quiz-1")); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	if f.certs.Count() != 1 {
		t.Fatalf("expected a single certificate, got %d", f.certs.Count())
	}
	summary, err := f.profiles.Points(ctx, f.user.ID, 10)
	if err != nil {
		t.Fatalf("points: %v", err)
	}
	if len(summary.Entries) != 2 {
		t.Fatalf("zero awards must not write ledger entries, got %d", len(summary.Entries))
	}
	if summary.Balance.TotalPoints != 150 || summary.Balance.Level != 2 {
		t.Fatalf("unexpected balance %+v", summary.Balance)
	}
	for _, e := range summary.Entries {
		if e.Reference != "quiz_quiz-1" || e.Action != ledger.ActionQuiz {
			t.Fatalf("unexpected ledger entry %+v", e)
		}
	}
}

func TestSubmitSameScoreTwiceAwardsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.service.SubmitQuiz(ctx, "quiz-1", f.user, f.answers(7))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	second, err := f.service.SubmitQuiz(ctx, "quiz-1", f.user, f.answers(7))
	if err != nil {
		t.Fatalf("submit again: %v", err)
	}
	if first.EarnedPoints != 70 || second.EarnedPoints != 0 || second.TotalPoints != 70 {
		t.Fatalf("expected 70 then 0, got %d then %d (total %d)", first.EarnedPoints, second.EarnedPoints, second.TotalPoints)
	}
}

func TestConcurrentSubmissionsDoNotDoubleAward(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.service.SubmitQuiz(ctx, "quiz-1", f.user, f.answers(9)); err != nil {
				t.Errorf("submit: %v", err)
			}
		}()
	}
	wg.Wait()

	summary, _ := f.profiles.Points(ctx, f.user.ID, 20)
	if summary.Balance.TotalPoints != 90 || len(summary.Entries) != 1 {
		t.Fatalf("expected a single 90 point award, got %+v", summary)
	}
	if f.certs.Count() != 1 {
		t.Fatalf("expected a single certificate, got %d", f.certs.Count())
	}
}

func TestSubmitSurvivesCertificateRenderProblems(t *testing.T) {
	cases := []struct {
		name     string
		renderer *brokenRenderer
		timeout  time.Duration
		status   domain.CertificateStatus
	}{
		{name: "render error", renderer: &brokenRenderer{err: errors.New("font missing")}, timeout: time.Second, status: domain.CertificateFailed},
		{name: "render timeout", renderer: &brokenRenderer{delay: time.Second}, timeout: 20 * time.Millisecond, status: domain.CertificatePending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixtureWithRenderer(t, tc.renderer, tc.timeout)

			res, err := f.service.SubmitQuiz(ctx, "quiz-1", f.user, f.answers(8))
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			if res.Score != 80 || res.EarnedPoints != 80 || res.TotalPoints != 80 {
				t.Fatalf("expected score 80 with 80 points, got %+v", res)
			}
			if res.CertificateStatus != tc.status || res.CertificateURL != nil {
				t.Fatalf("expected %s without url, got %s %v", tc.status, res.CertificateStatus, res.CertificateURL)
			}
			if res.AttemptID == "" || len(res.Results) != f.questions {
				t.Fatalf("expected full result, got %+v", res)
			}

			attempts := f.store.Attempts(f.user.ID, "quiz-1")
			if len(attempts) != 1 || attempts[0].ID != res.AttemptID || attempts[0].Score != 80 {
				t.Fatalf("expected the committed attempt, got %+v", attempts)
			}
			summary, err := f.profiles.Points(ctx, f.user.ID, 10)
			if err != nil {
				t.Fatalf("points: %v", err)
			}
			if summary.Balance.TotalPoints != 80 || len(summary.Entries) != 1 || summary.Entries[0].Points != 80 {
				t.Fatalf("expected one 80 point ledger entry, got %+v", summary)
			}
			if f.certs.Count() != 0 {
				t.Fatalf("expected no certificate recorded, got %d", f.certs.Count())
			}
		})
	}
}

func TestSubmitEmptyAnswersWritesNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.SubmitQuiz(context.Background(), "quiz-1", f.user, map[string]string{})
	if !errors.Is(err, domain.ErrEmptyAnswers) {
		t.Fatalf("expected empty answers error, got %v", err)
	}
	if len(f.store.Attempts(f.user.ID, "quiz-1")) != 0 || f.events.Len() != 0 {
		t.Fatalf("expected no writes")
	}
}

func TestSubmitRejectsUnavailableQuizzes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ended := testNow.Add(-time.Hour)
	opens := testNow.Add(time.Hour)
	f.content.PutQuiz(domain.Quiz{ID: "quiz-off", Title: "Off", IsActive: false})
	f.content.PutQuiz(domain.Quiz{ID: "quiz-ended", Title: "Ended", IsActive: true, EndsAt: &ended})
	f.content.PutQuiz(domain.Quiz{ID: "quiz-later", Title: "Later", IsActive: true, StartsAt: &opens})

	cases := map[string]error{
		"quiz-missing": domain.ErrQuizNotFound,
		"quiz-off":     domain.ErrQuizInactive,
		"quiz-ended":   domain.ErrQuizEnded,
		"quiz-later":   domain.ErrQuizNotStarted,
		"  ":           domain.ErrInvalidQuizID,
	}
	for quizID, want := range cases {
		if _, err := f.service.SubmitQuiz(ctx, quizID, f.user, f.answers(10)); !errors.Is(err, want) {
			t.Fatalf("%q: expected %v, got %v", quizID, want, err)
		}
	}
	if len(f.store.Attempts(f.user.ID, "quiz-off")) != 0 {
		t.Fatalf("rejected submissions must not be recorded")
	}
}

func TestSubmitRevealsOnlyCorrectAnswers(t *testing.T) {
	f := newFixture(t)

	res, err := f.service.SubmitQuiz(context.Background(), "quiz-1", f.user, f.answers(5))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(res.Results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(res.Results))
	}
	for _, r := range res.Results {
		if r.IsCorrect {
			if r.CorrectAnswer == nil || *r.CorrectAnswer != "a" || r.Explanation == nil {
				t.Fatalf("expected answer and explanation for %s", r.ID)
			}
			continue
		}
		if r.CorrectAnswer != nil || r.Explanation != nil {
			t.Fatalf("answer key leaked for wrong answer %s", r.ID)
		}
		if r.SubmittedAnswer != "b" {
			t.Fatalf("expected submitted answer echoed, got %q", r.SubmittedAnswer)
		}
	}
	if res.Results[0].ID != "q01" {
		t.Fatalf("expected results ordered by question id, got %s first", res.Results[0].ID)
	}
}

func TestSubmitUnknownQuestionsScoresZero(t *testing.T) {
	f := newFixture(t)

	res, err := f.service.SubmitQuiz(context.Background(), "quiz-1", f.user, map[string]string{"nope": "a"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Score != 0 || res.TotalQuestions != 0 || res.EarnedPoints != 0 {
		t.Fatalf("expected an empty score, got %+v", res)
	}
	if res.CertificateStatus != domain.CertificateNotEligible {
		t.Fatalf("expected not eligible, got %s", res.CertificateStatus)
	}
	if len(f.store.Attempts(f.user.ID, "quiz-1")) != 1 {
		t.Fatalf("expected the attempt recorded")
	}
}

func TestStartQuizHidesAnswerKeyAndRecordsStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	start, err := f.service.StartQuiz(ctx, "quiz-1", f.user.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if start.DurationMinutes != 20 || len(start.Questions) != 10 || start.Questions[0].ID != "q01" {
		t.Fatalf("unexpected start %+v", start)
	}
	raw, _ := json.Marshal(start)
	var generic map[string]any
	_ = json.Unmarshal(raw, &generic)
	for _, q := range generic["questions"].([]any) {
		if _, ok := q.(map[string]any)["correctAnswer"]; ok {
			t.Fatalf("answer key leaked in start payload")
		}
	}

	startedAt, ok, _ := f.sessions.StartedAt(ctx, "quiz-1", f.user.ID)
	if !ok || !startedAt.Equal(testNow) {
		t.Fatalf("expected start marker at %v, got %v ok=%v", testNow, startedAt, ok)
	}

	f.clock.Advance(12 * time.Minute)
	if _, err := f.service.SubmitQuiz(ctx, "quiz-1", f.user, f.answers(10)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	attempts := f.store.Attempts(f.user.ID, "quiz-1")
	if len(attempts) != 1 || !attempts[0].StartedAt.Equal(testNow) || !attempts[0].FinishedAt.Equal(testNow.Add(12*time.Minute)) {
		t.Fatalf("unexpected attempt timing %+v", attempts)
	}
	if _, ok, _ := f.sessions.StartedAt(ctx, "quiz-1", f.user.ID); ok {
		t.Fatalf("expected start marker cleared after submit")
	}
}

func TestStartQuizTruncatesCuratedList(t *testing.T) {
	f := newFixture(t)
	f.content.PutQuiz(domain.Quiz{ID: "quiz-short", Title: "Short", IsActive: true, Config: json.RawMessage(`{"question_count": 3}`)})
	f.content.Curate("quiz-short", "q05", "q02", "q09", "q01")

	start, err := f.service.StartQuiz(context.Background(), "quiz-short", f.user.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(start.Questions) != 3 || start.Questions[0].ID != "q05" || start.DurationMinutes != domain.DefaultDurationMinutes {
		t.Fatalf("unexpected start %+v", start)
	}
}

func TestStartQuizFallsBackToFilter(t *testing.T) {
	f := newFixture(t)
	f.content.PutQuestions(domain.Question{ID: "k1", Content: "kanji", Options: []string{"x"}, CorrectAnswer: "x", Type: "kanji", CategoryID: "other"})
	f.content.PutQuiz(domain.Quiz{ID: "quiz-kanji", Title: "Kanji", CategoryID: "jp", IsActive: true, Config: json.RawMessage(`{"type_filter": "kanji"}`)})
	f.content.PutQuiz(domain.Quiz{ID: "quiz-cat", Title: "Category", CategoryID: "jp", IsActive: true, Config: json.RawMessage(`{"question_count": 4}`)})

	start, err := f.service.StartQuiz(context.Background(), "quiz-kanji", f.user.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(start.Questions) != 1 || start.Questions[0].ID != "k1" {
		t.Fatalf("expected type filter to select k1, got %+v", start.Questions)
	}

	start, err = f.service.StartQuiz(context.Background(), "quiz-cat", f.user.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(start.Questions) != 4 {
		t.Fatalf("expected 4 category questions, got %d", len(start.Questions))
	}
}

func TestStartQuizRejectsBadConfig(t *testing.T) {
	f := newFixture(t)
	f.content.PutQuiz(domain.Quiz{ID: "quiz-bad", IsActive: true, Config: json.RawMessage(`{"duration": -1}`)})

	if _, err := f.service.StartQuiz(context.Background(), "quiz-bad", f.user.ID); !errors.Is(err, domain.ErrInvalidQuizConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}

func TestSubmitAnnouncesCommittedEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	updates, cancel := f.hub.Subscribe(f.user.ID)
	defer cancel()

	if _, err := f.service.SubmitQuiz(ctx, "quiz-1", f.user, f.answers(10)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	got := []string{(<-updates).Type, (<-updates).Type}
	if got[0] != app.NotificationPointsAwarded || got[1] != app.NotificationCertificateIssued {
		t.Fatalf("unexpected notifications %v", got)
	}
	events := f.events.Events()
	if len(events) != 2 || events[0].Type != domain.EventPointsAwarded || events[0].Points != 150 || events[1].Type != domain.EventCertificateIssued {
		t.Fatalf("unexpected events %+v", events)
	}

	// a non-improving retake announces nothing
	if _, err := f.service.SubmitQuiz(ctx, "quiz-1", f.user, f.answers(10)); err != nil {
		t.Fatalf("submit again: %v", err)
	}
	if f.events.Len() != 2 {
		t.Fatalf("expected no new events, got %d", f.events.Len())
	}
	select {
	case n := <-updates:
		t.Fatalf("unexpected notification %+v", n)
	default:
	}
}

func TestSubmitSurvivesPublisherFailure(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")

	res, err := f.service.SubmitQuiz(context.Background(), "quiz-1", f.user, f.answers(8))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.EarnedPoints != 80 || res.CertificateStatus != domain.CertificateIssued {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestProfileCertificates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	certs, err := f.profiles.Certificates(ctx, f.user.ID)
	if err != nil || certs == nil || len(certs) != 0 {
		t.Fatalf("expected an empty list, got %v err=%v", certs, err)
	}
	if _, err := f.service.SubmitQuiz(ctx, "quiz-1", f.user, f.answers(9)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	certs, _ = f.profiles.Certificates(ctx, f.user.ID)
	if len(certs) != 1 || certs[0].QuizID != "quiz-1" {
		t.Fatalf("expected one certificate, got %+v", certs)
	}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Events() []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Event(nil), p.events...)
}

func (p *recordingPublisher) Len() int {
	return len(p.Events())
}

// brokenRenderer fails every render, either outright or by outlasting ctx.
type brokenRenderer struct {
	err   error
	delay time.Duration
}

func (r *brokenRenderer) Render(ctx context.Context, _ certificate.Document) (certificate.Artifact, error) {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return certificate.Artifact{}, ctx.Err()
		}
	}
	if r.err != nil {
		return certificate.Artifact{}, r.err
	}
	return certificate.Artifact{}, errors.New("render produced nothing")
}

func (r *brokenRenderer) Discard(context.Context, string) error { return nil }
