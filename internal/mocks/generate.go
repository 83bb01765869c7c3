// Package mocks provides mock implementations for testing the spendlens job system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockJobRepository(ctrl)
//	mockRepo.EXPECT().CreateRunning(gomock.Any(), gomock.Any()).Return(job, nil)
package mocks

// Generate mock for JobRepository interface from internal/core package.
// This creates MockJobRepository with methods for all JobRepository interface methods:
// CreateRunning, MarkStarted, MarkSucceeded, MarkFailed, GetByID, List, DeleteFinishedBefore
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_repository_mock.go github.com/spendlens/spendlens/internal/core JobRepository

// Generate mock for AccountRepository interface from internal/core package.
// This creates MockAccountRepository with methods for all AccountRepository interface methods:
// GetByID, ListForUser, Deactivate
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=account_repository_mock.go github.com/spendlens/spendlens/internal/core AccountRepository

// Generate mock for EmailRepository interface from internal/core package.
// This creates MockEmailRepository with methods for all EmailRepository interface methods:
// Create, Exists, ListForExtraction, SetExtractionStatus
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=email_repository_mock.go github.com/spendlens/spendlens/internal/core EmailRepository

// Generate mock for ExtractionRepository interface from internal/core package.
// This creates MockExtractionRepository with methods for all ExtractionRepository interface methods:
// CreateExtraction, CreateLLMTransaction
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=extraction_repository_mock.go github.com/spendlens/spendlens/internal/core ExtractionRepository

// Generate mock for CategoryRepository interface from internal/core package.
// This creates MockCategoryRepository with methods for all CategoryRepository interface methods:
// GetByName, Create
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=category_repository_mock.go github.com/spendlens/spendlens/internal/core CategoryRepository

// Generate mock for TransactionRepository interface from internal/core package.
// This creates MockTransactionRepository with methods for all TransactionRepository interface methods:
// Create
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=transaction_repository_mock.go github.com/spendlens/spendlens/internal/core TransactionRepository
