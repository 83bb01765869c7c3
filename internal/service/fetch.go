package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"

	"github.com/spendlens/spendlens/internal/core"
	"github.com/spendlens/spendlens/internal/domain/model"
	apperrors "github.com/spendlens/spendlens/internal/errors"
	"github.com/spendlens/spendlens/internal/provider"
)

const (
	defaultFetchProvider = "gmail"
	defaultFetchLimit    = 20
)

// GoogleClientConfig is the static OAuth2 application credential pair used to
// refresh Gmail tokens.
type GoogleClientConfig struct {
	ClientID     string
	ClientSecret string
}

// FetchServiceOptions configures the fetch stage.
type FetchServiceOptions struct {
	Accounts core.AccountRepository
	Emails   core.EmailRepository
	Logger   *slog.Logger
	Google   GoogleClientConfig

	// NewProvider resolves a provider by name; defaults to the package
	// registry. Tests inject fakes here.
	NewProvider func(name string) (provider.Provider, error)
}

// FetchService ingests messages from an external mail provider into the emails
// table. Re-running a fetch over the same window is idempotent: already-stored
// messages are counted as fetched but never saved twice.
type FetchService struct {
	accounts    core.AccountRepository
	emails      core.EmailRepository
	logger      *slog.Logger
	google      GoogleClientConfig
	newProvider func(name string) (provider.Provider, error)
}

// FetchResult is the output payload of one fetch job.
type FetchResult struct {
	FetchedCount int   `json:"fetched_count"`
	SavedCount   int   `json:"saved_count"`
	UserID       int64 `json:"user_id"`
}

// NewFetchService creates the fetch stage service.
func NewFetchService(opts FetchServiceOptions) (*FetchService, error) {
	if opts.Accounts == nil {
		return nil, errors.New("account repository must be provided")
	}
	if opts.Emails == nil {
		return nil, errors.New("email repository must be provided")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	newProvider := opts.NewProvider
	if newProvider == nil {
		newProvider = provider.New
	}
	return &FetchService{
		accounts:    opts.Accounts,
		emails:      opts.Emails,
		logger:      logger,
		google:      opts.Google,
		newProvider: newProvider,
	}, nil
}

// Run executes one fetch pass. Kwargs: user_id (required), provider (default
// gmail), limit (default 20), cursor, account_id.
func (s *FetchService) Run(ctx context.Context, kwargs map[string]any) (*FetchResult, error) {
	userID, err := requireInt64Kwarg(kwargs, "user_id")
	if err != nil {
		return nil, err
	}
	providerName, err := stringKwarg(kwargs, "provider", defaultFetchProvider)
	if err != nil {
		return nil, err
	}
	limit, err := intKwarg(kwargs, "limit", defaultFetchLimit)
	if err != nil {
		return nil, err
	}
	cursor, err := stringKwarg(kwargs, "cursor", "")
	if err != nil {
		return nil, err
	}

	account, providerName, err := s.resolveAccount(ctx, kwargs, userID, providerName)
	if err != nil {
		return nil, err
	}

	p, err := s.newProvider(providerName)
	if err != nil {
		return nil, err
	}
	defer p.Disconnect()

	if err := s.connect(ctx, p, providerName, account); err != nil {
		return nil, err
	}

	page, err := p.FetchMessages(ctx, cursor, limit)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "fetched messages",
		"user_id", userID, "provider", providerName, "count", len(page.Messages))

	saved := 0
	for _, msg := range page.Messages {
		stored, err := s.storeMessage(ctx, p, account, msg)
		if err != nil {
			return nil, err
		}
		if stored {
			saved++
		}
	}

	return &FetchResult{
		FetchedCount: len(page.Messages),
		SavedCount:   saved,
		UserID:       userID,
	}, nil
}

// resolveAccount picks the connected account to fetch from. An explicit
// account_id must exist and belong to the user and overrides the provider
// kwarg; otherwise the first active account for the provider wins.
func (s *FetchService) resolveAccount(ctx context.Context, kwargs map[string]any, userID int64, providerName string) (*model.ConnectedAccount, string, error) {
	accountID, hasAccountID, err := int64Kwarg(kwargs, "account_id")
	if err != nil {
		return nil, "", err
	}

	if hasAccountID {
		account, err := s.accounts.GetByID(ctx, accountID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil, "", apperrors.Validationf("account %d not found or does not belong to user %d", accountID, userID)
			}
			return nil, "", err
		}
		if account.UserID != userID {
			return nil, "", apperrors.Validationf("account %d not found or does not belong to user %d", accountID, userID)
		}
		return account, account.Provider, nil
	}

	accounts, err := s.accounts.ListForUser(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	for _, account := range accounts {
		if account.Provider == providerName && account.IsActive {
			return account, providerName, nil
		}
	}
	return nil, "", apperrors.Validationf("no active %s account found for user %d", providerName, userID)
}

// connect establishes the provider session. Revoked credentials deactivate the
// account so later runs stop retrying it.
func (s *FetchService) connect(ctx context.Context, p provider.Provider, providerName string, account *model.ConnectedAccount) error {
	creds := provider.Credentials{
		AccessToken:  account.AccessToken,
		RefreshToken: account.RefreshToken,
		TokenExpiry:  account.TokenExpiry,
	}
	if providerName == defaultFetchProvider {
		creds.ClientID = s.google.ClientID
		creds.ClientSecret = s.google.ClientSecret
	}

	if err := p.Connect(ctx, creds); err != nil {
		if provider.IsAuth(err) {
			if deactivateErr := s.accounts.Deactivate(ctx, account.ID); deactivateErr != nil {
				s.logger.ErrorContext(ctx, "deactivate account after auth failure",
					"account_id", account.ID, "error", deactivateErr)
			} else {
				s.logger.WarnContext(ctx, "deactivated account with revoked credentials",
					"account_id", account.ID, "provider", providerName)
			}
		}
		return err
	}
	return nil
}

// storeMessage persists one message unless its dedup key already exists. The
// full body is fetched only for new messages.
func (s *FetchService) storeMessage(ctx context.Context, p provider.Provider, account *model.ConnectedAccount, msg provider.Message) (bool, error) {
	exists, err := s.emails.Exists(ctx, core.DedupKey{
		UserID:            account.UserID,
		Provider:          msg.Provider,
		ProviderMessageID: msg.ProviderMessageID,
	})
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	full, err := p.FetchMessageBody(ctx, msg.ProviderMessageID)
	if err != nil {
		return false, err
	}

	req := &model.CreateEmailRequest{
		UserID:             account.UserID,
		ConnectedAccountID: account.ID,
		Provider:           msg.Provider,
		ProviderMessageID:  msg.ProviderMessageID,
		ThreadID:           stringPtr(msg.ThreadID),
		Subject:            stringPtr(msg.Subject),
		BodyText:           stringPtr(full.BodyText),
		BodyHTML:           stringPtr(full.BodyHTML),
		ReceivedAt:         msg.ReceivedAt,
		Checksum:           stringPtr(bodyChecksum(full.BodyText, full.BodyHTML)),
	}

	if _, err := s.emails.Create(ctx, req); err != nil {
		// A concurrent fetch can win the insert race; the unique constraint
		// downgrades that to a skip.
		if apperrors.IsConflict(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func bodyChecksum(bodyText, bodyHTML string) string {
	if bodyText == "" && bodyHTML == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(bodyText + "\x00" + bodyHTML))
	return hex.EncodeToString(sum[:])
}
