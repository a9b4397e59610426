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

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so slot transitions
// can run standalone or inside a booking transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type SlotRepository interface {
	ListAvailable(ctx context.Context, responderID string, from, to time.Time) ([]domain.Slot, error)
	GetByID(ctx context.Context, id string) (*domain.Slot, error)
}

type PGSlotRepository struct {
	db *pgxpool.Pool
}

func NewSlotRepository(db *pgxpool.Pool) *PGSlotRepository {
	return &PGSlotRepository{db: db}
}

const slotColumns = `id, responder_id, start_time, end_time, timezone, duration_minutes, price_cents, is_free, status, hold_deadline, created_at, updated_at`

func scanSlot(row pgx.Row) (*domain.Slot, error) {
	var s domain.Slot
	err := row.Scan(&s.ID, &s.ResponderID, &s.StartTime, &s.EndTime, &s.Timezone, &s.DurationMinutes,
		&s.PriceCents, &s.IsFree, &s.Status, &s.HoldDeadline, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGSlotRepository) ListAvailable(ctx context.Context, responderID string, from, to time.Time) ([]domain.Slot, error) {
	rows, err := r.db.Query(ctx, `SELECT `+slotColumns+` FROM slots
		WHERE responder_id = $1 AND status = 'available' AND start_time >= $2 AND start_time < $3
		ORDER BY start_time`, responderID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]domain.Slot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *s)
	}
	return slots, rows.Err()
}

func (r *PGSlotRepository) GetByID(ctx context.Context, id string) (*domain.Slot, error) {
	return scanSlot(r.db.QueryRow(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = $1`, id))
}

// lock moves an available slot to held with the given hold deadline. The
// conditional update is the mutual exclusion point: of two concurrent lockers
// exactly one updates the row, the loser sees zero rows affected.
func (r *PGSlotRepository) lock(ctx context.Context, q querier, slotID string, holdDeadline time.Time) error {
	tag, err := q.Exec(ctx, `UPDATE slots SET status = 'held', hold_deadline = $2, updated_at = now()
		WHERE id = $1 AND status = 'available'`, slotID, holdDeadline)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM slots WHERE id = $1)`, slotID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrSlotConflict
	}
	return nil
}

// release returns a slot to available and clears its hold deadline. Releasing
// an already-available slot is a no-op.
func (r *PGSlotRepository) release(ctx context.Context, q querier, slotID string) error {
	_, err := q.Exec(ctx, `UPDATE slots SET status = 'available', hold_deadline = NULL, updated_at = now()
		WHERE id = $1`, slotID)
	return err
}

// confirm moves a held slot to confirmed. Zero rows affected means the slot
// was not held, which only happens when slot and booking state diverged.
func (r *PGSlotRepository) confirm(ctx context.Context, q querier, slotID string) error {
	tag, err := q.Exec(ctx, `UPDATE slots SET status = 'confirmed', hold_deadline = NULL, updated_at = now()
		WHERE id = $1 AND status = 'held'`, slotID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSlotConflict
	}
	return nil
}

var _ SlotRepository = (*PGSlotRepository)(nil)
