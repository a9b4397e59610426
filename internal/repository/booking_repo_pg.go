package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mouryay/slotbooking/internal/domain"
)

// ErrDuplicateHoldToken surfaces a unique-constraint violation on the hold
// token when two requests with the same token race past the idempotency
// pre-check. The caller resolves it by fetching the existing booking.
var ErrDuplicateHoldToken = errors.New("hold token already used")

type BookingRepository interface {
	CreateHeld(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByHoldToken(ctx context.Context, token string) (*domain.Booking, error)
	MarkAwaitingPayment(ctx context.Context, id, paymentIntentID string, holdDeadline time.Time) (*domain.Booking, error)
	Confirm(ctx context.Context, id string, paymentIntentID, sessionID *string) (*domain.Booking, error)
	Cancel(ctx context.Context, id, canceledBy string, reason *string, at time.Time) (*domain.Booking, error)
	Fail(ctx context.Context, id string, reason *string) (*domain.Booking, error)
	ExpireDue(ctx context.Context, now time.Time) ([]domain.Booking, error)
	ListForUser(ctx context.Context, userID string, status *domain.BookingStatus) ([]domain.Booking, error)
	ListUpcoming(ctx context.Context, userID string, now time.Time) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db    *pgxpool.Pool
	slots *PGSlotRepository
}

func NewBookingRepository(db *pgxpool.Pool, slots *PGSlotRepository) *PGBookingRepository {
	return &PGBookingRepository{db: db, slots: slots}
}

const bookingColumns = `id, requester_id, responder_id, slot_id, session_id, scheduled_start, scheduled_end,
	duration_minutes, timezone, price_cents, currency, platform_fee_cents, payout_cents, status,
	payment_intent_id, canceled_at, canceled_by, cancel_reason, hold_deadline, hold_token, notes,
	created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.RequesterID, &b.ResponderID, &b.SlotID, &b.SessionID, &b.ScheduledStart,
		&b.ScheduledEnd, &b.DurationMinutes, &b.Timezone, &b.PriceCents, &b.Currency, &b.PlatformFeeCents,
		&b.PayoutCents, &b.Status, &b.PaymentIntentID, &b.CanceledAt, &b.CanceledBy, &b.CancelReason,
		&b.HoldDeadline, &b.HoldToken, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// lockForUpdate reads the booking row under an exclusive row lock so the
// persisted status is re-checked inside the transaction, not from a cached
// value. Late or duplicate callers block here and then fail validation.
func (r *PGBookingRepository) lockForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Booking, error) {
	return scanBooking(tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
}

// CreateHeld locks the slot and inserts the booking in held status inside one
// transaction. Either both happen or neither does.
func (r *PGBookingRepository) CreateHeld(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if booking.SlotID != nil {
		if err := r.slots.lock(ctx, tx, *booking.SlotID, *booking.HoldDeadline); err != nil {
			return err
		}
	}

	booking.Status = domain.BookingStatusHeld
	err = tx.QueryRow(ctx, `INSERT INTO bookings (id, requester_id, responder_id, slot_id, scheduled_start,
			scheduled_end, duration_minutes, timezone, price_cents, currency, platform_fee_cents, payout_cents,
			status, hold_deadline, hold_token, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at`,
		booking.ID, booking.RequesterID, booking.ResponderID, booking.SlotID, booking.ScheduledStart,
		booking.ScheduledEnd, booking.DurationMinutes, booking.Timezone, booking.PriceCents, booking.Currency,
		booking.PlatformFeeCents, booking.PayoutCents, booking.Status, booking.HoldDeadline, booking.HoldToken,
		booking.Notes).
		Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateHoldToken
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

func (r *PGBookingRepository) GetByHoldToken(ctx context.Context, token string) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE hold_token = $1`, token))
}

func (r *PGBookingRepository) MarkAwaitingPayment(ctx context.Context, id, paymentIntentID string, holdDeadline time.Time) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	current, err := r.lockForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.EnsureTransition(current.Status, domain.BookingStatusAwaitingPayment); err != nil {
		return nil, err
	}

	updated, err := scanBooking(tx.QueryRow(ctx, `UPDATE bookings
		SET status = 'awaiting_payment', payment_intent_id = $2, hold_deadline = $3, updated_at = now()
		WHERE id = $1 RETURNING `+bookingColumns, id, paymentIntentID, holdDeadline))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *PGBookingRepository) Confirm(ctx context.Context, id string, paymentIntentID, sessionID *string) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	current, err := r.lockForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.EnsureTransition(current.Status, domain.BookingStatusConfirmed); err != nil {
		return nil, err
	}

	updated, err := scanBooking(tx.QueryRow(ctx, `UPDATE bookings
		SET status = 'confirmed', hold_deadline = NULL, updated_at = now(),
			payment_intent_id = COALESCE($2, payment_intent_id),
			session_id = COALESCE($3, session_id)
		WHERE id = $1 RETURNING `+bookingColumns, id, paymentIntentID, sessionID))
	if err != nil {
		return nil, err
	}

	if current.SlotID != nil {
		if err := r.slots.confirm(ctx, tx, *current.SlotID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// cancelable is the explicit allow-list for cancellation. It is narrower than
// pure state adjacency: cancellation is a business action, not just an edge.
func cancelable(status domain.BookingStatus) bool {
	switch status {
	case domain.BookingStatusHeld, domain.BookingStatusAwaitingPayment, domain.BookingStatusConfirmed:
		return true
	}
	return false
}

func (r *PGBookingRepository) Cancel(ctx context.Context, id, canceledBy string, reason *string, at time.Time) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	current, err := r.lockForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !cancelable(current.Status) {
		return nil, domain.ErrInvalidTransition
	}
	if err := domain.EnsureTransition(current.Status, domain.BookingStatusCanceled); err != nil {
		return nil, err
	}

	updated, err := scanBooking(tx.QueryRow(ctx, `UPDATE bookings
		SET status = 'canceled', canceled_at = $2, canceled_by = $3, cancel_reason = $4,
			hold_deadline = NULL, updated_at = now()
		WHERE id = $1 RETURNING `+bookingColumns, id, at, canceledBy, reason))
	if err != nil {
		return nil, err
	}

	// A confirmed booking's slot stays consumed; only unconfirmed holds give
	// the slot back.
	if current.SlotID != nil && current.Status != domain.BookingStatusConfirmed {
		if err := r.slots.release(ctx, tx, *current.SlotID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *PGBookingRepository) Fail(ctx context.Context, id string, reason *string) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	current, err := r.lockForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.EnsureTransition(current.Status, domain.BookingStatusFailed); err != nil {
		return nil, err
	}

	updated, err := scanBooking(tx.QueryRow(ctx, `UPDATE bookings
		SET status = 'failed', cancel_reason = $2, hold_deadline = NULL, updated_at = now()
		WHERE id = $1 RETURNING `+bookingColumns, id, reason))
	if err != nil {
		return nil, err
	}

	if current.SlotID != nil {
		if err := r.slots.release(ctx, tx, *current.SlotID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// ExpireDue transitions every overdue hold to expired and releases its slot,
// all in one transaction. FOR UPDATE keeps concurrent sweepers from touching
// the same rows: the loser blocks, then re-reads rows that no longer match.
func (r *PGBookingRepository) ExpireDue(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE status IN ('held', 'awaiting_payment') AND hold_deadline IS NOT NULL AND hold_deadline < $1
		FOR UPDATE`, now)
	if err != nil {
		return nil, err
	}

	var due []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		due = append(due, *b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	expired := make([]domain.Booking, 0, len(due))
	for _, b := range due {
		updated, err := scanBooking(tx.QueryRow(ctx, `UPDATE bookings
			SET status = 'expired', hold_deadline = NULL, updated_at = now()
			WHERE id = $1 RETURNING `+bookingColumns, b.ID))
		if err != nil {
			return nil, err
		}
		if b.SlotID != nil {
			if err := r.slots.release(ctx, tx, *b.SlotID); err != nil {
				return nil, err
			}
		}
		expired = append(expired, *updated)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return expired, nil
}

func (r *PGBookingRepository) ListForUser(ctx context.Context, userID string, status *domain.BookingStatus) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE (requester_id = $1 OR responder_id = $1)`
	args := []any{userID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY scheduled_start DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *PGBookingRepository) ListUpcoming(ctx context.Context, userID string, now time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE (requester_id = $1 OR responder_id = $1) AND status = 'confirmed' AND scheduled_start >= $2
		ORDER BY scheduled_start`, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
