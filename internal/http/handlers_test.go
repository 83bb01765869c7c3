package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/spendlens/spendlens/internal/dispatch"
	"github.com/spendlens/spendlens/internal/domain/model"
	apperrors "github.com/spendlens/spendlens/internal/errors"
	"github.com/spendlens/spendlens/internal/mocks"
	"github.com/spendlens/spendlens/internal/service"
	"github.com/spendlens/spendlens/internal/testutil"

	"github.com/redis/go-redis/v9"
)

// newRouterWithJobs wires the router against a mocked job repository. The task
// queues point at an unreachable Redis, which is fine for validation paths.
func newRouterWithJobs(t *testing.T, repo *mocks.MockJobRepository) http.Handler {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	tasks, err := service.NewTaskService(service.TaskServiceOptions{
		BaseQueue:  dispatch.NewQueue(client, dispatch.BaseQueueKey),
		EmailQueue: dispatch.NewQueue(client, dispatch.EmailQueueKey),
	})
	require.NoError(t, err)

	jobs, err := service.NewJobQueryService(repo)
	require.NoError(t, err)

	return NewRouter(RouterServices{
		Tasks: tasks,
		Jobs:  jobs,
		HealthChecks: map[string]HealthChecker{
			"database": HealthCheckerFunc(func(context.Context) error { return nil }),
		},
	})
}

func TestJobEndpoints(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockJobRepository(ctrl)
	router := newRouterWithJobs(t, repo)

	t.Run("list with filters", func(t *testing.T) {
		repo.EXPECT().List(gomock.Any(), &model.JobListOptions{
			Type:   model.JobTypeEmailFetch,
			Status: model.JobStatusFailed,
			Limit:  5,
			Offset: 10,
		}).Return([]*model.Job{testutil.NewJob().Build()}, nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/jobs?job_type=EMAIL_FETCH&status=FAILED&limit=5&offset=10", nil)
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"jobs"`)
	})

	t.Run("list returns empty array, not null", func(t *testing.T) {
		repo.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"jobs": []}`, rec.Body.String())
	})

	t.Run("list rejects a non-numeric limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs?limit=lots", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get by id", func(t *testing.T) {
		job := testutil.NewJob().WithID("2b1c0000-0000-0000-0000-000000000001").Build()
		repo.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/"+job.ID, nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), job.ID)
	})

	t.Run("get unknown id is 404", func(t *testing.T) {
		// Mirrors the error JobRepo.GetByID produces for a row miss.
		repo.EXPECT().GetByID(gomock.Any(), "nope").Return(nil, apperrors.NotFoundf("job %s not found", "nope"))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/nope", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "not_found")
	})
}

func TestTaskEndpointValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router := newRouterWithJobs(t, mocks.NewMockJobRepository(ctrl))

	t.Run("email fetch without user_id is rejected before queueing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tasks/email-fetch", strings.NewReader(`{"provider":"gmail"}`))
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "user_id")
	})

	t.Run("unknown body fields are rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tasks/email-fetch", strings.NewReader(`{"user_id":1,"mystery":true}`))
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_json")
	})

	t.Run("malformed JSON is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tasks/email-extraction", strings.NewReader(`{`))
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	t.Run("liveness", func(t *testing.T) {
		h := &HealthHandlers{}
		rec := httptest.NewRecorder()
		h.Live(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
	})

	t.Run("readiness with healthy dependencies", func(t *testing.T) {
		h := &HealthHandlers{Checks: map[string]HealthChecker{
			"database":   HealthCheckerFunc(func(context.Context) error { return nil }),
			"base_queue": HealthCheckerFunc(func(context.Context) error { return nil }),
		}}
		rec := httptest.NewRecorder()
		h.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"database":"ok"`)
	})

	t.Run("readiness degrades when one dependency fails", func(t *testing.T) {
		h := &HealthHandlers{Checks: map[string]HealthChecker{
			"database":    HealthCheckerFunc(func(context.Context) error { return nil }),
			"email_queue": HealthCheckerFunc(func(context.Context) error { return errors.New("connection refused") }),
		}}
		rec := httptest.NewRecorder()
		h.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
		assert.Contains(t, rec.Body.String(), "connection refused")
	})
}

func TestWriteAppError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "not found", err: apperrors.NotFoundf("missing"), status: http.StatusNotFound, code: "not_found"},
		{name: "database row miss", err: apperrors.MapDBError(pgx.ErrNoRows), status: http.StatusNotFound, code: "not_found"},
		{name: "validation", err: apperrors.Validationf("bad"), status: http.StatusBadRequest, code: "validation"},
		{name: "conflict", err: apperrors.Conflict("dup"), status: http.StatusConflict, code: "conflict"},
		{name: "timeout", err: &apperrors.AppError{Code: apperrors.ErrCodeTimeout, Message: "slow"}, status: http.StatusGatewayTimeout, code: "timeout"},
		{name: "unclassified", err: errors.New("boom"), status: http.StatusInternalServerError, code: "internal"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteAppError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.code)
		})
	}
}
