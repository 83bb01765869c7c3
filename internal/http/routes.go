package httpx

import (
	"net/http"

	"github.com/spendlens/spendlens/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Tasks *service.TaskService
	Jobs  *service.JobQueryService

	// Health checks keyed by dependency name (database, queues).
	HealthChecks map[string]HealthChecker
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	taskHandlers := &TaskHandlers{Svc: services.Tasks}
	jobHandlers := &JobHandlers{Svc: services.Jobs}
	healthHandlers := &HealthHandlers{Checks: services.HealthChecks}

	mux.HandleFunc("POST /api/tasks/email-fetch", taskHandlers.EmailFetch)
	mux.HandleFunc("POST /api/tasks/email-extraction", taskHandlers.EmailExtraction)
	mux.HandleFunc("POST /api/tasks/job-cleanup", taskHandlers.JobCleanup)

	mux.HandleFunc("GET /api/jobs", jobHandlers.List)
	mux.HandleFunc("GET /api/jobs/{id}", jobHandlers.Get)

	mux.HandleFunc("GET /healthz", healthHandlers.Live)
	mux.HandleFunc("HEAD /healthz", healthHandlers.Live)
	mux.HandleFunc("GET /readyz", healthHandlers.Ready)
	mux.HandleFunc("GET /health", healthHandlers.Ready)

	return mux
}
