package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spendlens/spendlens/internal/core"
	"github.com/spendlens/spendlens/internal/domain/model"
	apperrors "github.com/spendlens/spendlens/internal/errors"
	"github.com/spendlens/spendlens/internal/extract"
)

const (
	defaultExtractionBatch = 10
	extractionVersion      = "v1"
)

// ExtractionServiceOptions configures the extraction stage.
type ExtractionServiceOptions struct {
	Emails       core.EmailRepository
	Extractions  core.ExtractionRepository
	Categories   core.CategoryRepository
	Transactions core.TransactionRepository
	Extractor    extract.Extractor
	Logger       *slog.Logger
}

// ExtractionService runs the extraction stage: a batch of pending emails goes
// through the extraction model and, when a transaction is found, materializes
// a financial transaction. Each email is isolated; one failure never aborts
// the batch or the job.
type ExtractionService struct {
	emails       core.EmailRepository
	extractions  core.ExtractionRepository
	categories   core.CategoryRepository
	transactions core.TransactionRepository
	extractor    extract.Extractor
	logger       *slog.Logger
}

// ExtractionResult is the output payload of one extraction job. ProcessedCount
// counts every email attempted, including ones that failed.
type ExtractionResult struct {
	ProcessedCount   int `json:"processed_count"`
	TransactionCount int `json:"transaction_count"`
	FailedCount      int `json:"failed_count"`
}

// NewExtractionService creates the extraction stage service.
func NewExtractionService(opts ExtractionServiceOptions) (*ExtractionService, error) {
	if opts.Emails == nil {
		return nil, errors.New("email repository must be provided")
	}
	if opts.Extractions == nil {
		return nil, errors.New("extraction repository must be provided")
	}
	if opts.Categories == nil {
		return nil, errors.New("category repository must be provided")
	}
	if opts.Transactions == nil {
		return nil, errors.New("transaction repository must be provided")
	}
	if opts.Extractor == nil {
		return nil, errors.New("extractor must be provided")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{
		emails:       opts.Emails,
		extractions:  opts.Extractions,
		categories:   opts.Categories,
		transactions: opts.Transactions,
		extractor:    opts.Extractor,
		logger:       logger,
	}, nil
}

// Run executes one extraction pass. Kwargs: batch_size (default 10), reprocess
// (default false, drops the pending-only filter).
func (s *ExtractionService) Run(ctx context.Context, job *model.Job, kwargs map[string]any) (*ExtractionResult, error) {
	batchSize, err := intKwarg(kwargs, "batch_size", defaultExtractionBatch)
	if err != nil {
		return nil, err
	}
	reprocess, err := boolKwarg(kwargs, "reprocess", false)
	if err != nil {
		return nil, err
	}

	emails, err := s.emails.ListForExtraction(ctx, batchSize, reprocess)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "processing extraction batch", "count", len(emails))

	result := &ExtractionResult{}
	for _, email := range emails {
		made, err := s.processEmail(ctx, job, email)
		result.ProcessedCount++
		if err != nil {
			result.FailedCount++
			s.logger.ErrorContext(ctx, "failed to process email",
				"email_id", email.ID, "error", err)
			if statusErr := s.emails.SetExtractionStatus(ctx, email.ID, model.ExtractionFailed); statusErr != nil {
				s.logger.ErrorContext(ctx, "mark email failed",
					"email_id", email.ID, "error", statusErr)
			}
			continue
		}
		if made {
			result.TransactionCount++
		}
	}

	return result, nil
}

// processEmail runs one email through extraction, records the attempt and the
// model telemetry, and materializes a transaction when one was found. Returns
// whether a transaction was created.
func (s *ExtractionService) processEmail(ctx context.Context, job *model.Job, email *model.Email) (bool, error) {
	res, err := s.extractor.ExtractFinancialData(ctx, emailText(email))
	if err != nil {
		return false, fmt.Errorf("extract financial data: %w", err)
	}

	if err := s.recordTelemetry(ctx, job, res); err != nil {
		return false, err
	}
	if err := s.recordExtraction(ctx, email, res); err != nil {
		return false, err
	}

	created := false
	if res.Content.IsTransaction {
		if err := s.materializeTransaction(ctx, email, res); err != nil {
			return false, err
		}
		created = true
	}

	if err := s.emails.SetExtractionStatus(ctx, email.ID, model.ExtractionCompleted); err != nil {
		return created, fmt.Errorf("mark email completed: %w", err)
	}
	return created, nil
}

func (s *ExtractionService) recordTelemetry(ctx context.Context, job *model.Job, res *extract.Result) error {
	var jobID *string
	if job != nil {
		jobID = &job.ID
	}
	_, err := s.extractions.CreateLLMTransaction(ctx, &model.CreateLLMTransactionRequest{
		JobID:         jobID,
		ModelName:     res.ModelName,
		Provider:      "openai",
		PromptHash:    stringPtr(res.PromptHash),
		InputTokens:   res.InputTokens,
		OutputTokens:  res.OutputTokens,
		TotalTokens:   res.TotalTokens,
		EstimatedCost: res.EstimatedCost,
		LatencyMS:     res.LatencyMS,
	})
	if err != nil {
		return fmt.Errorf("record model telemetry: %w", err)
	}
	return nil
}

func (s *ExtractionService) recordExtraction(ctx context.Context, email *model.Email, res *extract.Result) error {
	status := model.EmailExtractionSkipped
	if res.Content.IsTransaction {
		status = model.EmailExtractionSuccess
	}

	extracted, err := json.Marshal(res.Content)
	if err != nil {
		return fmt.Errorf("marshal extracted content: %w", err)
	}

	version := extractionVersion
	_, err = s.extractions.CreateExtraction(ctx, &model.CreateEmailExtractionRequest{
		EmailID:           email.ID,
		Status:            status,
		ExtractedJSON:     extracted,
		ModelUsed:         stringPtr(res.ModelName),
		PromptHash:        stringPtr(res.PromptHash),
		ExtractionVersion: &version,
	})
	if err != nil {
		return fmt.Errorf("record extraction attempt: %w", err)
	}
	return nil
}

// materializeTransaction creates the financial transaction, resolving the
// category by name first and creating it on demand.
func (s *ExtractionService) materializeTransaction(ctx context.Context, email *model.Email, res *extract.Result) error {
	categoryName := res.Content.Category
	if categoryName == "" {
		categoryName = "General"
	}

	category, err := s.categories.GetByName(ctx, email.UserID, categoryName)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return fmt.Errorf("resolve category %q: %w", categoryName, err)
		}
		category, err = s.categories.Create(ctx, email.UserID, categoryName, model.TransactionExpense)
		if err != nil {
			// Lost a create race to a concurrent batch; re-read the winner.
			if apperrors.IsConflict(err) {
				category, err = s.categories.GetByName(ctx, email.UserID, categoryName)
			}
			if err != nil {
				return fmt.Errorf("create category %q: %w", categoryName, err)
			}
		}
	}

	notes := "Auto-extracted from email"
	if email.Subject != nil {
		notes = "Auto-extracted from email: " + *email.Subject
	}
	externalID := fmt.Sprintf("email:%d", email.ID)

	_, err = s.transactions.Create(ctx, &model.CreateTransactionRequest{
		UserID:     email.UserID,
		CategoryID: &category.ID,
		Amount:     res.Content.Amount,
		Currency:   res.Content.Currency,
		Type:       model.TransactionExpense,
		OccurredAt: email.ReceivedAt,
		Source:     model.SourceEmail,
		ExternalID: &externalID,
		Notes:      &notes,
	})
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// emailText builds the prompt input for one email, preferring the stored body
// and falling back to the subject line.
func emailText(email *model.Email) string {
	subject := ""
	if email.Subject != nil {
		subject = *email.Subject
	}
	text := "Subject: " + subject
	if email.BodyText != nil && *email.BodyText != "" {
		text += "\n\n" + *email.BodyText
	}
	return text
}
