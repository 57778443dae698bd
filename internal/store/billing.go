package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SubscriptionPayment struct {
	Email                 string
	KofiTransactionID     string
	Type                  string
	TierName              string
	IsFirstSubscription   bool
	IsSubscriptionPayment bool
	Amount                string
	Currency              string
	FromName              string
	Message               string
	IsPublic              bool
}

// InsertSubscription records a Ko-fi payment, idempotent on transaction id.
// Returns false when the payment was already recorded.
func (s *Store) InsertSubscription(ctx context.Context, in SubscriptionPayment) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
INSERT INTO subscriptions (email, kofi_transaction_id, type, tier_name,
  is_first_subscription, is_subscription_payment, amount, currency,
  from_name, message, is_public)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, NULLIF($10, ''), $11)
ON CONFLICT (kofi_transaction_id) DO NOTHING
`, in.Email, in.KofiTransactionID, in.Type, in.TierName,
		in.IsFirstSubscription, in.IsSubscriptionPayment, in.Amount, in.Currency,
		in.FromName, in.Message, in.IsPublic)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateUserSubscription refreshes subscription state for the user whose
// account or Ko-fi email matches. Returns false when no user matched (Ko-fi
// payments from unknown emails are kept in subscriptions but go nowhere).
func (s *Store) UpdateUserSubscription(ctx context.Context, email, status, tier string, expiresAt time.Time) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
UPDATE users
SET subscription_status = $2, subscription_tier = NULLIF($3, ''),
    subscription_expires_at = $4, updated_at = now()
WHERE email = $1 OR kofi_email = $1
`, email, status, tier, expiresAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateManagedProjectLimits pushes the tier's monthly release quota onto
// every managed-key project owned by the matched user.
func (s *Store) UpdateManagedProjectLimits(ctx context.Context, email string, versionsPerMonth int, monthlyPrice float64) (int, error) {
	tag, err := s.Pool.Exec(ctx, `
UPDATE projects
SET versions_per_month = $2, monthly_price = $3, updated_at = now()
WHERE api_key_mode = 'managed'
  AND owner_user_id IN (SELECT id FROM users WHERE email = $1 OR kofi_email = $1)
`, email, versionsPerMonth, monthlyPrice)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// ReleaseUsageThisMonth counts pipeline-generated releases for the project
// in the current calendar month (UTC).
func (s *Store) ReleaseUsageThisMonth(ctx context.Context, projectID uuid.UUID) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM release_usage
WHERE project_id = $1
  AND created_at >= date_trunc('month', now() AT TIME ZONE 'utc')
`, projectID).Scan(&n)
	return n, err
}

func (s *Store) RecordReleaseUsage(ctx context.Context, projectID uuid.UUID, version string) error {
	_, err := s.Pool.Exec(ctx, `
INSERT INTO release_usage (project_id, version) VALUES ($1, $2)
`, projectID, version)
	return err
}
