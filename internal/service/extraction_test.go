package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/spendlens/spendlens/internal/domain/model"
	apperrors "github.com/spendlens/spendlens/internal/errors"
	"github.com/spendlens/spendlens/internal/extract"
	"github.com/spendlens/spendlens/internal/mocks"
	"github.com/spendlens/spendlens/internal/testutil"
)

// scriptedExtractor returns a per-call scripted result keyed on the email text.
type scriptedExtractor struct {
	results map[string]*extract.Result
	err     error
	inputs  []string
}

func (s *scriptedExtractor) ExtractFinancialData(_ context.Context, emailText string) (*extract.Result, error) {
	s.inputs = append(s.inputs, emailText)
	if s.err != nil {
		return nil, s.err
	}
	if res, ok := s.results[emailText]; ok {
		return res, nil
	}
	return &extract.Result{ModelName: "gpt-4o", PromptHash: "abcd1234abcd1234"}, nil
}

type extractionFixture struct {
	emails       *mocks.MockEmailRepository
	extractions  *mocks.MockExtractionRepository
	categories   *mocks.MockCategoryRepository
	transactions *mocks.MockTransactionRepository
	svc          *ExtractionService
}

func newExtractionFixture(t *testing.T, ctrl *gomock.Controller, extractor extract.Extractor) *extractionFixture {
	t.Helper()
	f := &extractionFixture{
		emails:       mocks.NewMockEmailRepository(ctrl),
		extractions:  mocks.NewMockExtractionRepository(ctrl),
		categories:   mocks.NewMockCategoryRepository(ctrl),
		transactions: mocks.NewMockTransactionRepository(ctrl),
	}
	svc, err := NewExtractionService(ExtractionServiceOptions{
		Emails:       f.emails,
		Extractions:  f.extractions,
		Categories:   f.categories,
		Transactions: f.transactions,
		Extractor:    extractor,
		Logger:       testLogger(),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func transactionResult(amount float64, category string) *extract.Result {
	return &extract.Result{
		Content: extract.Content{
			IsTransaction: true,
			Amount:        amount,
			Currency:      "USD",
			Merchant:      "Uber",
			Category:      category,
		},
		ModelName:  "gpt-4o",
		PromptHash: "abcd1234abcd1234",
	}
}

func TestExtractionRunTransactionEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	email := testutil.NewEmail().WithID(11).WithUserID(7).
		WithSubject("Your Uber receipt").WithBodyText("Trip total $18.40 with Uber").Build()

	text := "Subject: Your Uber receipt\n\nTrip total $18.40 with Uber"
	extractor := &scriptedExtractor{results: map[string]*extract.Result{
		text: transactionResult(18.40, "Transport"),
	}}
	f := newExtractionFixture(t, ctrl, extractor)

	f.emails.EXPECT().ListForExtraction(gomock.Any(), 10, false).Return([]*model.Email{email}, nil)

	var telemetry *model.CreateLLMTransactionRequest
	f.extractions.EXPECT().CreateLLMTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *model.CreateLLMTransactionRequest) (*model.LLMTransaction, error) {
			telemetry = req
			return &model.LLMTransaction{ID: 1}, nil
		})

	var attempt *model.CreateEmailExtractionRequest
	f.extractions.EXPECT().CreateExtraction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *model.CreateEmailExtractionRequest) (*model.EmailExtraction, error) {
			attempt = req
			return &model.EmailExtraction{ID: 1}, nil
		})

	category := &model.Category{ID: 3, UserID: 7, Name: "Transport"}
	f.categories.EXPECT().GetByName(gomock.Any(), int64(7), "Transport").Return(category, nil)

	var txReq *model.CreateTransactionRequest
	f.transactions.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *model.CreateTransactionRequest) (*model.Transaction, error) {
			txReq = req
			return &model.Transaction{ID: 9}, nil
		})

	f.emails.EXPECT().SetExtractionStatus(gomock.Any(), int64(11), model.ExtractionCompleted).Return(nil)

	job := testutil.NewJob().WithID("job-x").Build()
	res, err := f.svc.Run(context.Background(), job, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, &ExtractionResult{ProcessedCount: 1, TransactionCount: 1, FailedCount: 0}, res)

	require.Equal(t, []string{text}, extractor.inputs)

	require.NotNil(t, telemetry)
	require.NotNil(t, telemetry.JobID)
	assert.Equal(t, "job-x", *telemetry.JobID)
	assert.Equal(t, "openai", telemetry.Provider)

	require.NotNil(t, attempt)
	assert.Equal(t, model.EmailExtractionSuccess, attempt.Status)
	var content extract.Content
	require.NoError(t, json.Unmarshal(attempt.ExtractedJSON, &content))
	assert.True(t, content.IsTransaction)
	require.NotNil(t, attempt.ExtractionVersion)
	assert.Equal(t, "v1", *attempt.ExtractionVersion)

	require.NotNil(t, txReq)
	assert.Equal(t, int64(7), txReq.UserID)
	require.NotNil(t, txReq.CategoryID)
	assert.Equal(t, int64(3), *txReq.CategoryID)
	assert.Equal(t, 18.40, txReq.Amount)
	assert.Equal(t, model.TransactionExpense, txReq.Type)
	assert.Equal(t, model.SourceEmail, txReq.Source)
	assert.Equal(t, email.ReceivedAt, txReq.OccurredAt)
	require.NotNil(t, txReq.ExternalID)
	assert.Equal(t, "email:11", *txReq.ExternalID)
	require.NotNil(t, txReq.Notes)
	assert.Equal(t, "Auto-extracted from email: Your Uber receipt", *txReq.Notes)
}

func TestExtractionRunNonTransactionEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	email := testutil.NewEmail().WithID(12).WithSubject("Weekly newsletter").WithoutBody().Build()
	extractor := &scriptedExtractor{results: map[string]*extract.Result{
		"Subject: Weekly newsletter": {
			Content:    extract.Content{IsTransaction: false},
			ModelName:  "gpt-4o",
			PromptHash: "abcd1234abcd1234",
		},
	}}
	f := newExtractionFixture(t, ctrl, extractor)

	f.emails.EXPECT().ListForExtraction(gomock.Any(), 10, false).Return([]*model.Email{email}, nil)
	f.extractions.EXPECT().CreateLLMTransaction(gomock.Any(), gomock.Any()).Return(&model.LLMTransaction{}, nil)

	f.extractions.EXPECT().CreateExtraction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *model.CreateEmailExtractionRequest) (*model.EmailExtraction, error) {
			assert.Equal(t, model.EmailExtractionSkipped, req.Status)
			return &model.EmailExtraction{}, nil
		})
	f.emails.EXPECT().SetExtractionStatus(gomock.Any(), int64(12), model.ExtractionCompleted).Return(nil)

	res, err := f.svc.Run(context.Background(), nil, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, &ExtractionResult{ProcessedCount: 1, TransactionCount: 0, FailedCount: 0}, res)
}

func TestExtractionRunFailureIsolation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	bad := testutil.NewEmail().WithID(21).WithSubject("bad").WithBodyText("explodes").Build()
	good := testutil.NewEmail().WithID(22).WithSubject("good").WithBodyText("fine").Build()

	extractor := &scriptedExtractor{results: map[string]*extract.Result{
		"Subject: good\n\nfine": {Content: extract.Content{IsTransaction: false}, ModelName: "gpt-4o"},
	}}
	f := newExtractionFixture(t, ctrl, extractor)

	f.emails.EXPECT().ListForExtraction(gomock.Any(), 5, false).Return([]*model.Email{bad, good}, nil)

	// First email fails at telemetry recording, second succeeds end to end.
	first := f.extractions.EXPECT().CreateLLMTransaction(gomock.Any(), gomock.Any()).Return(nil, errors.New("insert failed"))
	f.extractions.EXPECT().CreateLLMTransaction(gomock.Any(), gomock.Any()).After(first).Return(&model.LLMTransaction{}, nil)
	f.extractions.EXPECT().CreateExtraction(gomock.Any(), gomock.Any()).Return(&model.EmailExtraction{}, nil)

	f.emails.EXPECT().SetExtractionStatus(gomock.Any(), int64(21), model.ExtractionFailed).Return(nil)
	f.emails.EXPECT().SetExtractionStatus(gomock.Any(), int64(22), model.ExtractionCompleted).Return(nil)

	res, err := f.svc.Run(context.Background(), nil, map[string]any{"batch_size": float64(5)})
	require.NoError(t, err)
	assert.Equal(t, &ExtractionResult{ProcessedCount: 2, TransactionCount: 0, FailedCount: 1}, res)
}

func TestExtractionRunCreatesCategoryOnDemand(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	email := testutil.NewEmail().WithID(31).WithUserID(7).WithSubject("receipt").WithBodyText("uber ride").Build()
	extractor := &scriptedExtractor{results: map[string]*extract.Result{
		"Subject: receipt\n\nuber ride": transactionResult(25, "Transport"),
	}}
	f := newExtractionFixture(t, ctrl, extractor)

	f.emails.EXPECT().ListForExtraction(gomock.Any(), 10, false).Return([]*model.Email{email}, nil)
	f.extractions.EXPECT().CreateLLMTransaction(gomock.Any(), gomock.Any()).Return(&model.LLMTransaction{}, nil)
	f.extractions.EXPECT().CreateExtraction(gomock.Any(), gomock.Any()).Return(&model.EmailExtraction{}, nil)

	f.categories.EXPECT().GetByName(gomock.Any(), int64(7), "Transport").Return(nil, apperrors.NotFoundf("no such category"))
	f.categories.EXPECT().Create(gomock.Any(), int64(7), "Transport", model.TransactionExpense).
		Return(&model.Category{ID: 8, UserID: 7, Name: "Transport"}, nil)

	f.transactions.EXPECT().Create(gomock.Any(), gomock.Any()).Return(&model.Transaction{}, nil)
	f.emails.EXPECT().SetExtractionStatus(gomock.Any(), int64(31), model.ExtractionCompleted).Return(nil)

	res, err := f.svc.Run(context.Background(), nil, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TransactionCount)
}

func TestExtractionRunCategoryCreateRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	email := testutil.NewEmail().WithID(32).WithUserID(7).WithSubject("receipt").WithBodyText("uber ride").Build()
	extractor := &scriptedExtractor{results: map[string]*extract.Result{
		"Subject: receipt\n\nuber ride": transactionResult(25, "Transport"),
	}}
	f := newExtractionFixture(t, ctrl, extractor)

	f.emails.EXPECT().ListForExtraction(gomock.Any(), 10, false).Return([]*model.Email{email}, nil)
	f.extractions.EXPECT().CreateLLMTransaction(gomock.Any(), gomock.Any()).Return(&model.LLMTransaction{}, nil)
	f.extractions.EXPECT().CreateExtraction(gomock.Any(), gomock.Any()).Return(&model.EmailExtraction{}, nil)

	winner := &model.Category{ID: 8, UserID: 7, Name: "Transport"}
	miss := f.categories.EXPECT().GetByName(gomock.Any(), int64(7), "Transport").Return(nil, apperrors.NotFoundf("no such category"))
	f.categories.EXPECT().Create(gomock.Any(), int64(7), "Transport", model.TransactionExpense).
		Return(nil, apperrors.Conflict("value already exists"))
	f.categories.EXPECT().GetByName(gomock.Any(), int64(7), "Transport").After(miss).Return(winner, nil)

	f.transactions.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *model.CreateTransactionRequest) (*model.Transaction, error) {
			require.NotNil(t, req.CategoryID)
			assert.Equal(t, int64(8), *req.CategoryID)
			return &model.Transaction{}, nil
		})
	f.emails.EXPECT().SetExtractionStatus(gomock.Any(), int64(32), model.ExtractionCompleted).Return(nil)

	_, err := f.svc.Run(context.Background(), nil, map[string]any{})
	require.NoError(t, err)
}

func TestExtractionRunReprocessFlag(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	extractor := &scriptedExtractor{}
	f := newExtractionFixture(t, ctrl, extractor)

	f.emails.EXPECT().ListForExtraction(gomock.Any(), 25, true).Return(nil, nil)

	res, err := f.svc.Run(context.Background(), nil, map[string]any{
		"batch_size": float64(25),
		"reprocess":  true,
	})
	require.NoError(t, err)
	assert.Equal(t, &ExtractionResult{}, res)
}

func TestExtractionRunListFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newExtractionFixture(t, ctrl, &scriptedExtractor{})
	f.emails.EXPECT().ListForExtraction(gomock.Any(), 10, false).Return(nil, errors.New("db down"))

	_, err := f.svc.Run(context.Background(), nil, map[string]any{})
	assert.Error(t, err)
}
