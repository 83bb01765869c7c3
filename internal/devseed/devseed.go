// Package devseed populates a development database with a demo user, a
// connected mail account, and a handful of pending emails so the fetch and
// extraction pipeline can be exercised without real provider credentials.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spendlens/spendlens/internal/core"
	"github.com/spendlens/spendlens/internal/data"
	"github.com/spendlens/spendlens/internal/data/pgxutil"
	"github.com/spendlens/spendlens/internal/domain/model"
	apperrors "github.com/spendlens/spendlens/internal/errors"
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	DB     *sql.DB
	emails *data.EmailRepo
}

// NewServices constructs all required repositories for seeding using the provided DB.
func NewServices(db *sql.DB) Services {
	return Services{
		DB:     db,
		emails: data.NewEmailRepo(db, data.RepoConfig{}),
	}
}

const (
	demoUserEmail    = "demo@spendlens.local"
	demoAccountEmail = "demo.inbox@gmail.com"
)

type seedEmail struct {
	messageID string
	subject   string
	bodyText  string
	ageHours  int
}

// seedEmails mirrors the shape of receipts the extraction stage understands,
// plus one non-transactional message it should skip.
var seedEmails = []seedEmail{
	{
		messageID: "seed-uber-0001",
		subject:   "Your Tuesday evening trip with Uber",
		bodyText:  "Thanks for riding with Uber. Your trip total was $18.40 charged to your card.",
		ageHours:  30,
	},
	{
		messageID: "seed-amazon-0001",
		subject:   "Your Amazon.com order has shipped",
		bodyText:  "Your Amazon order #112-4455 totaling $64.99 has shipped and will arrive Thursday.",
		ageHours:  20,
	},
	{
		messageID: "seed-receipt-0001",
		subject:   "Payment receipt for invoice 2201",
		bodyText:  "This is your payment receipt. Amount charged: $129.00. Thank you for your purchase.",
		ageHours:  8,
	},
	{
		messageID: "seed-newsletter-0001",
		subject:   "Weekly product newsletter",
		bodyText:  "Here is what our team shipped this week. No action needed.",
		ageHours:  4,
	},
}

// Run executes the full development seeding workflow against the provided DB.
// Every step is idempotent so the seed can run on each startup.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	userID, accountID, err := seedIdentity(ctx, svcs.DB)
	if err != nil {
		return fmt.Errorf("seed demo identity: %w", err)
	}

	created := 0
	for _, src := range seedEmails {
		ok, seedErr := seedOneEmail(ctx, svcs.emails, userID, accountID, src)
		if seedErr != nil {
			return fmt.Errorf("seed email %s: %w", src.messageID, seedErr)
		}
		if ok {
			created++
		}
	}

	if logger != nil {
		logger.InfoContext(ctx, "development seed complete",
			"user_id", userID,
			"account_id", accountID,
			"emails_created", created,
		)
	}
	return nil
}

// seedIdentity upserts the demo user and its connected account in one
// transaction, so a partial seed never leaves an account without its owner.
func seedIdentity(ctx context.Context, db *sql.DB) (int64, int64, error) {
	var userID, accountID int64
	err := pgxutil.WithPgxTx(ctx, db, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			if scanErr := tx.QueryRow(ctx, `
				INSERT INTO users (email, created_at)
				VALUES ($1, NOW())
				ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
				RETURNING id
			`, demoUserEmail).Scan(&userID); scanErr != nil {
				return fmt.Errorf("upsert demo user: %w", scanErr)
			}

			if scanErr := tx.QueryRow(ctx, `
				INSERT INTO connected_accounts (
					user_id, provider, email, access_token, refresh_token,
					token_expiry, is_active, created_at
				)
				VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW())
				ON CONFLICT (provider, email) DO UPDATE SET is_active = TRUE
				RETURNING id
			`, userID, "gmail", demoAccountEmail,
				"dev-access-token", "dev-refresh-token",
				time.Now().UTC().Add(24*time.Hour),
			).Scan(&accountID); scanErr != nil {
				return fmt.Errorf("upsert connected account: %w", scanErr)
			}
			return nil
		},
	})
	if err != nil {
		return 0, 0, apperrors.MapDBError(err)
	}
	return userID, accountID, nil
}

func seedOneEmail(
	ctx context.Context,
	emails *data.EmailRepo,
	userID, accountID int64,
	src seedEmail,
) (bool, error) {
	exists, err := emails.Exists(ctx, core.DedupKey{
		UserID:            userID,
		Provider:          "gmail",
		ProviderMessageID: src.messageID,
	})
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	subject := src.subject
	bodyText := src.bodyText
	receivedAt := time.Now().UTC().Add(-time.Duration(src.ageHours) * time.Hour)
	_, err = emails.Create(ctx, &model.CreateEmailRequest{
		UserID:             userID,
		ConnectedAccountID: accountID,
		Provider:           "gmail",
		ProviderMessageID:  src.messageID,
		Subject:            &subject,
		BodyText:           &bodyText,
		ReceivedAt:         receivedAt,
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
