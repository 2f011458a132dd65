package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"lpk-quiz-service/internal/app"
	"lpk-quiz-service/internal/domain"
	"lpk-quiz-service/internal/metrics"
)

// maxSubmitBody caps a submission; a full quiz of answers is a few KB.
const maxSubmitBody = 1 << 20

var validate = validator.New()

type submitRequest struct {
	Answers map[string]string `json:"answers" validate:"required,min=1,dive,keys,required,endkeys"`
}

// QuizHandler serves the quiz start and submit endpoints.
type QuizHandler struct {
	quizzes  *app.QuizService
	profiles *app.ProfileService
}

func NewQuizHandler(quizzes *app.QuizService, profiles *app.ProfileService) *QuizHandler {
	return &QuizHandler{quizzes: quizzes, profiles: profiles}
}

func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	start, err := h.quizzes.StartQuiz(r.Context(), mux.Vars(r)["quizID"], user.ID)
	metrics.QuizStarts.WithLabelValues(statusLabel(err)).Inc()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, start)
}

func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	began := time.Now()
	user, _ := UserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBody)
	result, err := h.submit(r, user)
	metrics.QuizSubmissions.WithLabelValues(statusLabel(err)).Inc()
	metrics.SubmitDuration.Observe(time.Since(began).Seconds())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *QuizHandler) submit(r *http.Request, user domain.User) (domain.SubmitResult, error) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.SubmitResult{}, errBodyTooLarge
		}
		return domain.SubmitResult{}, errInvalidBody
	}
	if len(req.Answers) == 0 {
		return domain.SubmitResult{}, domain.ErrEmptyAnswers
	}
	if err := validate.Struct(req); err != nil {
		return domain.SubmitResult{}, errInvalidBody
	}
	return h.quizzes.SubmitQuiz(r.Context(), mux.Vars(r)["quizID"], user, req.Answers)
}

func (h *QuizHandler) Points(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	summary, err := h.profiles.Points(r.Context(), user.ID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *QuizHandler) Certificates(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	certs, err := h.profiles.Certificates(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"certificates": certs})
}
