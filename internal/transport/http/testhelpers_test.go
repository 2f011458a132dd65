package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lpk-quiz-service/internal/app"
	"lpk-quiz-service/internal/certificate"
	"lpk-quiz-service/internal/domain"
	"lpk-quiz-service/internal/infra/memory"
	"lpk-quiz-service/internal/ledger"
)

const testSecret = "test-secret"

type testEnv struct {
	server *httptest.Server
	hub    *app.NotificationHub
	store  *memory.Store
}

func newTestEnv(t *testing.T, wsOpts ...func(*WSHandler)) *testEnv {
	t.Helper()
	content := memory.NewContent()
	content.PutQuiz(domain.Quiz{ID: "quiz-1", Title: "Bahasa Jepang N5", IsActive: true})
	content.PutQuiz(domain.Quiz{ID: "quiz-off", Title: "Closed", IsActive: false})
	ids := make([]string, 0, 5)
	for i := 1; i <= 5; i++ {
		q := domain.Question{
			ID:            fmt.Sprintf("q%d", i),
			Content:       fmt.Sprintf("Pertanyaan %d", i),
			Options:       []string{"a", "b"},
			CorrectAnswer: "a",
		}
		content.PutQuestions(q)
		ids = append(ids, q.ID)
	}
	content.Curate("quiz-1", ids...)

	store := memory.NewStore()
	certs := memory.NewCertificateStore()
	points := ledger.NewService(store.Ledger(), store, ledger.DefaultLevels)
	issuer := certificate.NewIssuer(certs, certificate.NewPDFRenderer(memory.NewArtifactStore(""), ""), time.Second)
	hub := app.NewNotificationHub()
	quizzes := app.NewQuizService(app.Deps{
		Quizzes:      memory.NewQuizRepository(content, time.Minute),
		Questions:    content,
		Sessions:     memory.NewSessionStore(),
		Work:         store,
		Ledger:       points,
		Certificates: issuer,
		Notifier:     hub,
	})
	auth := NewAuthenticator(testSecret)
	ws := NewWSHandler(hub, auth)
	for _, opt := range wsOpts {
		opt(ws)
	}
	router := NewRouter(NewQuizHandler(quizzes, app.NewProfileService(points, issuer)), ws, auth)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testEnv{server: server, hub: hub, store: store}
}

func signToken(t *testing.T, secret, userID, name string) string {
	t.Helper()
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}
