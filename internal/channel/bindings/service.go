// Package bindings stores the messenger page to tenant bindings and their
// encrypted page credentials.
package bindings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ain9900/custom-chatbot-saas/internal/channel"
	"github.com/ain9900/custom-chatbot-saas/internal/db"
	"github.com/ain9900/custom-chatbot-saas/internal/db/sqlc"
)

var (
	ErrBindingNotFound = errors.New("channel binding not found")
	ErrBindingExists   = errors.New("page is already bound")
)

const uniqueViolation = "23505"

// Sealer encrypts and decrypts page credentials.
type Sealer interface {
	SealString(plaintext string) ([]byte, error)
	OpenString(sealed []byte) (string, error)
}

// Service manages channel bindings.
type Service struct {
	queries *sqlc.Queries
	sealer  Sealer
	logger  *slog.Logger
}

// NewService creates a binding service.
func NewService(log *slog.Logger, queries *sqlc.Queries, sealer Sealer) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		queries: queries,
		sealer:  sealer,
		logger:  log.With(slog.String("service", "channel_bindings")),
	}
}

// Create binds a messenger page to the tenant, sealing its access token.
func (s *Service) Create(ctx context.Context, tenantID string, req CreateRequest) (Binding, error) {
	if s.queries == nil || s.sealer == nil {
		return Binding{}, fmt.Errorf("channel binding service not configured")
	}
	tenantUUID, err := db.ParseUUID(tenantID)
	if err != nil {
		return Binding{}, err
	}
	pageID := strings.TrimSpace(req.PageID)
	token := strings.TrimSpace(req.AccessToken)
	if pageID == "" || token == "" {
		return Binding{}, fmt.Errorf("page_id and access_token are required")
	}
	sealed, err := s.sealer.SealString(token)
	if err != nil {
		return Binding{}, fmt.Errorf("seal credential: %w", err)
	}
	if err := s.queries.EnsureTenant(ctx, tenantUUID); err != nil {
		return Binding{}, fmt.Errorf("ensure tenant: %w", err)
	}
	pageName := strings.TrimSpace(req.PageName)
	row, err := s.queries.CreateChannelBinding(ctx, sqlc.CreateChannelBindingParams{
		TenantID:            tenantUUID,
		ChannelType:         channel.ChannelTypeMessenger.String(),
		ExternalPageID:      pageID,
		PageName:            pgtype.Text{String: pageName, Valid: pageName != ""},
		EncryptedCredential: sealed,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Binding{}, ErrBindingExists
		}
		return Binding{}, fmt.Errorf("create channel binding: %w", err)
	}
	s.logger.Info("page bound", slog.String("tenant_id", tenantID), slog.String("page_id", pageID))
	return toBinding(row), nil
}

// List returns the tenant's bindings without credentials.
func (s *Service) List(ctx context.Context, tenantID string) ([]Binding, error) {
	if s.queries == nil {
		return nil, fmt.Errorf("channel binding queries not configured")
	}
	tenantUUID, err := db.ParseUUID(tenantID)
	if err != nil {
		return nil, err
	}
	rows, err := s.queries.ListChannelBindingsByTenant(ctx, tenantUUID)
	if err != nil {
		return nil, err
	}
	items := make([]Binding, 0, len(rows))
	for _, row := range rows {
		items = append(items, toBinding(row))
	}
	return items, nil
}

// Delete removes one of the tenant's bindings.
func (s *Service) Delete(ctx context.Context, tenantID, bindingID string) error {
	if s.queries == nil {
		return fmt.Errorf("channel binding queries not configured")
	}
	tenantUUID, err := db.ParseUUID(tenantID)
	if err != nil {
		return err
	}
	bindingUUID, err := db.ParseUUID(bindingID)
	if err != nil {
		return ErrBindingNotFound
	}
	n, err := s.queries.DeleteChannelBinding(ctx, sqlc.DeleteChannelBindingParams{ID: bindingUUID, TenantID: tenantUUID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBindingNotFound
	}
	return nil
}

// GetByPageID returns the binding for a page with its decrypted access token.
func (s *Service) GetByPageID(ctx context.Context, channelType channel.ChannelType, pageID string) (Binding, error) {
	if s.queries == nil || s.sealer == nil {
		return Binding{}, fmt.Errorf("channel binding service not configured")
	}
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return Binding{}, ErrBindingNotFound
	}
	row, err := s.queries.GetChannelBindingByPageID(ctx, sqlc.GetChannelBindingByPageIDParams{
		ChannelType:    channelType.String(),
		ExternalPageID: pageID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Binding{}, ErrBindingNotFound
		}
		return Binding{}, err
	}
	binding := toBinding(row)
	token, err := s.sealer.OpenString(row.EncryptedCredential)
	if err != nil {
		return Binding{}, fmt.Errorf("open credential for page %s: %w", pageID, err)
	}
	binding.AccessToken = token
	return binding, nil
}

func toBinding(row sqlc.ChannelBinding) Binding {
	createdAt := time.Time{}
	if row.CreatedAt.Valid {
		createdAt = row.CreatedAt.Time
	}
	return Binding{
		ID:          db.UUIDString(row.ID),
		TenantID:    db.UUIDString(row.TenantID),
		ChannelType: row.ChannelType,
		PageID:      row.ExternalPageID,
		PageName:    row.PageName.String,
		CreatedAt:   createdAt,
	}
}
