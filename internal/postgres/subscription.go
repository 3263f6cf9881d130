package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/droidtel/bss/internal/domain"
	"github.com/droidtel/bss/internal/service"
)

// SubscriptionRepository is the PostgreSQL implementation of
// service.SubscriptionRepository.
type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

var _ service.SubscriptionRepository = (*SubscriptionRepository)(nil)

// NewSubscriptionRepository creates a new PostgreSQL-backed subscription
// repository.
func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

const subscriptionColumns = `id, subscription_number, customer_id, product_id, order_id, status,
	start_date, end_date, billing_start, next_billing_date, billing_period,
	price, currency, discount_amount, configuration, auto_renew, renewal_notice_sent,
	created_at, updated_at, revision`

// Create inserts the subscription.
func (r *SubscriptionRepository) Create(ctx context.Context, sub domain.Subscription) error {
	const op = "subscription.create"

	config, err := encodeConfiguration(sub.Configuration)
	if err != nil {
		return domain.Internal(err, op, "failed to encode configuration")
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		sub.ID, sub.SubscriptionNumber, sub.CustomerID, sub.ProductID, sub.OrderID, sub.Status,
		sub.StartDate, sub.EndDate, sub.BillingStart, sub.NextBillingDate, sub.BillingPeriod,
		sub.Price, sub.Currency, sub.DiscountAmount, config, sub.AutoRenew, sub.RenewalNoticeSent,
		sub.CreatedAt, sub.UpdatedAt, sub.Revision)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflict(op, "Subscription number already exists: "+sub.SubscriptionNumber)
		}
		return domain.Internal(err, op, "failed to insert subscription")
	}
	return nil
}

// Get loads one subscription by ID.
func (r *SubscriptionRepository) Get(ctx context.Context, id uuid.UUID) (domain.Subscription, error) {
	const op = "subscription.get"

	row := r.pool.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Subscription{}, domain.NotFound(op, "subscription", id.String())
		}
		return domain.Subscription{}, domain.Internal(err, op, "failed to load subscription")
	}
	return sub, nil
}

// GetByNumber loads one subscription by its unique number.
func (r *SubscriptionRepository) GetByNumber(ctx context.Context, subscriptionNumber string) (domain.Subscription, error) {
	const op = "subscription.getByNumber"

	row := r.pool.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE subscription_number = $1`, subscriptionNumber)
	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Subscription{}, domain.NotFound(op, "subscription", subscriptionNumber)
		}
		return domain.Subscription{}, domain.Internal(err, op, "failed to load subscription")
	}
	return sub, nil
}

// Update replaces the subscription row, guarded by the revision check.
func (r *SubscriptionRepository) Update(ctx context.Context, sub domain.Subscription) error {
	const op = "subscription.update"

	config, err := encodeConfiguration(sub.Configuration)
	if err != nil {
		return domain.Internal(err, op, "failed to encode configuration")
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE subscriptions SET
			subscription_number = $2, customer_id = $3, product_id = $4, order_id = $5,
			status = $6, start_date = $7, end_date = $8, billing_start = $9,
			next_billing_date = $10, billing_period = $11, price = $12, currency = $13,
			discount_amount = $14, configuration = $15, auto_renew = $16,
			renewal_notice_sent = $17, updated_at = $18, revision = $19
		WHERE id = $1 AND revision = $19 - 1`,
		sub.ID, sub.SubscriptionNumber, sub.CustomerID, sub.ProductID, sub.OrderID,
		sub.Status, sub.StartDate, sub.EndDate, sub.BillingStart,
		sub.NextBillingDate, sub.BillingPeriod, sub.Price, sub.Currency,
		sub.DiscountAmount, config, sub.AutoRenew,
		sub.RenewalNoticeSent, sub.UpdatedAt, sub.Revision)
	if err != nil {
		return domain.Internal(err, op, "failed to update subscription")
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE id = $1)`, sub.ID).Scan(&exists)
		if err != nil {
			return domain.Internal(err, op, "failed to check subscription existence")
		}
		if !exists {
			return domain.NotFound(op, "subscription", sub.ID.String())
		}
		return domain.Conflict(op, "Subscription was modified concurrently")
	}
	return nil
}

// ListByCustomer returns all subscriptions for a customer, newest first.
func (r *SubscriptionRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Subscription, error) {
	const op = "subscription.listByCustomer"

	rows, err := r.pool.Query(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE customer_id = $1
		ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list subscriptions")
	}
	defer rows.Close()

	return collectSubscriptions(rows, op)
}

// ListDueForRenewal returns ACTIVE auto-renew subscriptions whose next
// billing date is the given day, or any earlier day when includePastDue is
// set. The query rides the partial index on next_billing_date.
func (r *SubscriptionRepository) ListDueForRenewal(ctx context.Context, asOf time.Time, includePastDue bool) ([]domain.Subscription, error) {
	const op = "subscription.listDueForRenewal"

	comparison := `next_billing_date = $1`
	if includePastDue {
		comparison = `next_billing_date <= $1`
	}

	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	rows, err := r.pool.Query(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE status = 'ACTIVE' AND auto_renew AND `+comparison+`
		ORDER BY next_billing_date`, day)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list due subscriptions")
	}
	defer rows.Close()

	return collectSubscriptions(rows, op)
}

func collectSubscriptions(rows pgx.Rows, op string) ([]domain.Subscription, error) {
	var subs []domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan subscription")
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to list subscriptions")
	}
	return subs, nil
}

func scanSubscription(row pgx.Row) (domain.Subscription, error) {
	var sub domain.Subscription
	var config []byte
	err := row.Scan(
		&sub.ID, &sub.SubscriptionNumber, &sub.CustomerID, &sub.ProductID, &sub.OrderID, &sub.Status,
		&sub.StartDate, &sub.EndDate, &sub.BillingStart, &sub.NextBillingDate, &sub.BillingPeriod,
		&sub.Price, &sub.Currency, &sub.DiscountAmount, &config, &sub.AutoRenew, &sub.RenewalNoticeSent,
		&sub.CreatedAt, &sub.UpdatedAt, &sub.Revision)
	if err != nil {
		return domain.Subscription{}, err
	}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &sub.Configuration); err != nil {
			return domain.Subscription{}, err
		}
	}
	return sub, nil
}

func encodeConfiguration(config map[string]any) ([]byte, error) {
	if config == nil {
		return nil, nil
	}
	return json.Marshal(config)
}
