package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ain9900/custom-chatbot-saas/internal/db"
	"github.com/ain9900/custom-chatbot-saas/internal/db/sqlc"
)

const pgForeignKeyViolation = "23503"

// TxBeginner is satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore keeps windows in conversation_memories. Every Update runs in
// its own transaction: the row is upserted, then locked with SELECT ... FOR
// UPDATE, so same-pair writers queue on the row lock while other pairs
// proceed.
type PostgresStore struct {
	pool    TxBeginner
	queries *sqlc.Queries
}

func NewPostgresStore(pool TxBeginner, queries *sqlc.Queries) *PostgresStore {
	return &PostgresStore{pool: pool, queries: queries}
}

func (s *PostgresStore) Update(ctx context.Context, chatbotID, endUserID string, fn Mutation) (Memory, error) {
	if s.pool == nil || s.queries == nil {
		return Memory{}, fmt.Errorf("memory queries not configured")
	}
	botUUID, err := db.ParseUUID(chatbotID)
	if err != nil {
		return Memory{}, err
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Memory{}, fmt.Errorf("begin memory tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	qtx := s.queries.WithTx(tx)

	if err := qtx.EnsureConversationMemory(ctx, sqlc.EnsureConversationMemoryParams{
		ChatbotID: botUUID,
		EndUserID: endUserID,
	}); err != nil {
		return Memory{}, mapWriteError(err)
	}
	row, err := qtx.LockConversationMemory(ctx, sqlc.LockConversationMemoryParams{
		ChatbotID: botUUID,
		EndUserID: endUserID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// the chatbot was deleted between upsert and lock
			return Memory{}, ErrChatbotMissing
		}
		return Memory{}, fmt.Errorf("lock conversation memory: %w", err)
	}
	mem, err := memoryFromRow(row)
	if err != nil {
		return Memory{}, err
	}
	changed, err := fn(&mem)
	if err != nil {
		return Memory{}, err
	}
	if changed {
		payload, err := json.Marshal(mem.Messages)
		if err != nil {
			return Memory{}, fmt.Errorf("encode conversation memory: %w", err)
		}
		if err := qtx.SaveConversationMemory(ctx, sqlc.SaveConversationMemoryParams{
			ChatbotID: botUUID,
			EndUserID: endUserID,
			Messages:  payload,
			UpdatedAt: pgtype.Timestamptz{Time: mem.UpdatedAt, Valid: true},
		}); err != nil {
			return Memory{}, fmt.Errorf("save conversation memory: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Memory{}, fmt.Errorf("commit memory tx: %w", err)
	}
	return mem, nil
}

func (s *PostgresStore) Get(ctx context.Context, chatbotID, endUserID string) (Memory, error) {
	if s.queries == nil {
		return Memory{}, fmt.Errorf("memory queries not configured")
	}
	botUUID, err := db.ParseUUID(chatbotID)
	if err != nil {
		return Memory{}, err
	}
	row, err := s.queries.GetConversationMemory(ctx, sqlc.GetConversationMemoryParams{
		ChatbotID: botUUID,
		EndUserID: endUserID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Memory{}, ErrNotFound
		}
		return Memory{}, err
	}
	return memoryFromRow(row)
}

func (s *PostgresStore) ClearIdleSince(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.queries == nil {
		return 0, fmt.Errorf("memory queries not configured")
	}
	return s.queries.ClearExpiredConversationMemories(ctx, pgtype.Timestamptz{Time: cutoff, Valid: true})
}

func memoryFromRow(row sqlc.ConversationMemory) (Memory, error) {
	mem := Memory{
		ChatbotID: db.UUIDString(row.ChatbotID),
		EndUserID: row.EndUserID,
		Messages:  []Entry{},
	}
	if row.UpdatedAt.Valid {
		mem.UpdatedAt = row.UpdatedAt.Time.UTC()
	}
	if len(row.Messages) > 0 {
		if err := json.Unmarshal(row.Messages, &mem.Messages); err != nil {
			return Memory{}, fmt.Errorf("decode conversation memory: %w", err)
		}
		if mem.Messages == nil {
			mem.Messages = []Entry{}
		}
	}
	return mem, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return ErrChatbotMissing
	}
	return fmt.Errorf("ensure conversation memory: %w", err)
}
