package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OutboxMessage 描述需要写入 outbox_events 的事件数据。
type OutboxMessage struct {
	EventID       uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	Headers       []byte
	OccurredAt    time.Time
	AvailableAt   time.Time
}

// OutboxEvent 表示从数据库读取的待发布事件。
type OutboxEvent struct {
	EventID          uuid.UUID
	AggregateType    string
	AggregateID      string
	EventType        string
	Payload          []byte
	Headers          []byte
	OccurredAt       time.Time
	AvailableAt      time.Time
	PublishedAt      *time.Time
	DeliveryAttempts int32
	LastError        *string
}

// OutboxRepository 提供写入与调度 outbox 表的能力，确保与 TxManager Session 协作。
type OutboxRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewOutboxRepository 构造 Repository。
func NewOutboxRepository(db *pgxpool.Pool, logger log.Logger) *OutboxRepository {
	return &OutboxRepository{
		db:  db,
		log: log.NewHelper(logger),
	}
}

// Enqueue 在指定事务内插入 Outbox 事件，使事件与行变更同生共死。
func (r *OutboxRepository) Enqueue(ctx context.Context, sess txmanager.Session, msg OutboxMessage) error {
	q := sessionQuerier(r.db, sess)

	occurredAt := msg.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	availableAt := msg.AvailableAt.UTC()
	if availableAt.IsZero() {
		availableAt = occurredAt
	}

	_, err := q.Exec(ctx, `
		INSERT INTO outbox_events (event_id, aggregate_type, aggregate_id, event_type, payload, headers, occurred_at, available_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		msg.EventID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.Payload, msg.Headers, occurredAt, availableAt,
	)
	if err != nil {
		r.log.WithContext(ctx).Errorf("insert outbox event failed: event_id=%s err=%v", msg.EventID, err)
		return fmt.Errorf("insert outbox event: %w", err)
	}

	r.log.WithContext(ctx).Debugf("outbox event enqueued: aggregate=%s id=%s", msg.AggregateType, msg.AggregateID)
	return nil
}

// ClaimPending 返回一批到期未发布的 Outbox 事件，按可用时间升序。
func (r *OutboxRepository) ClaimPending(ctx context.Context, availableBefore time.Time, limit int) ([]OutboxEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT event_id, aggregate_type, aggregate_id, event_type, payload, headers,
		       occurred_at, available_at, published_at, delivery_attempts, last_error
		FROM outbox_events
		WHERE published_at IS NULL AND available_at <= $1
		ORDER BY available_at ASC
		LIMIT $2`,
		availableBefore.UTC(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("claim outbox events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var evt OutboxEvent
		if err := rows.Scan(
			&evt.EventID, &evt.AggregateType, &evt.AggregateID, &evt.EventType, &evt.Payload, &evt.Headers,
			&evt.OccurredAt, &evt.AvailableAt, &evt.PublishedAt, &evt.DeliveryAttempts, &evt.LastError,
		); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim outbox events: %w", err)
	}
	return events, nil
}

// MarkPublished 更新事件状态为已发布。
func (r *OutboxRepository) MarkPublished(ctx context.Context, sess txmanager.Session, eventID uuid.UUID, publishedAt time.Time) error {
	q := sessionQuerier(r.db, sess)
	_, err := q.Exec(ctx, `
		UPDATE outbox_events
		SET published_at = $2, delivery_attempts = delivery_attempts + 1, last_error = NULL
		WHERE event_id = $1`,
		eventID, publishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// Reschedule 将事件重新安排在未来时间发布，并记录错误信息。
func (r *OutboxRepository) Reschedule(ctx context.Context, sess txmanager.Session, eventID uuid.UUID, nextAvailable time.Time, lastErr string) error {
	q := sessionQuerier(r.db, sess)
	_, err := q.Exec(ctx, `
		UPDATE outbox_events
		SET available_at = $2, delivery_attempts = delivery_attempts + 1, last_error = $3
		WHERE event_id = $1`,
		eventID, nextAvailable.UTC(), lastErr,
	)
	if err != nil {
		return fmt.Errorf("reschedule outbox event: %w", err)
	}
	return nil
}
