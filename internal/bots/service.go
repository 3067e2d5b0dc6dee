package bots

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ain9900/custom-chatbot-saas/internal/db"
	"github.com/ain9900/custom-chatbot-saas/internal/db/sqlc"
	"github.com/ain9900/custom-chatbot-saas/internal/retrieval"
)

const (
	DefaultSystemPrompt = "You are a helpful assistant."
	namespacePrefix     = "chatbot_"
	ingestTimeout       = 2 * time.Minute
)

var ErrChatbotNotFound = errors.New("chatbot not found")

// Service provides chatbot CRUD, webhook lookups and document ingestion.
type Service struct {
	queries  *sqlc.Queries
	ingester retrieval.Ingester
	logger   *slog.Logger
}

// NewService creates a new chatbot service.
func NewService(log *slog.Logger, queries *sqlc.Queries, ingester retrieval.Ingester) *Service {
	if log == nil {
		log = slog.Default()
	}
	if ingester == nil {
		ingester = retrieval.Noop{}
	}
	return &Service{
		queries:  queries,
		ingester: ingester,
		logger:   log.With(slog.String("service", "bots")),
	}
}

// Create creates a chatbot for the tenant and ingests any documents sent with it.
func (s *Service) Create(ctx context.Context, tenantID string, req CreateChatbotRequest) (CreateResult, error) {
	if s.queries == nil {
		return CreateResult{}, fmt.Errorf("chatbot queries not configured")
	}
	tenantUUID, err := db.ParseUUID(tenantID)
	if err != nil {
		return CreateResult{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return CreateResult{}, fmt.Errorf("name is required")
	}
	prompt := strings.TrimSpace(req.SystemPrompt)
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	secret, err := newWebhookSecret()
	if err != nil {
		return CreateResult{}, err
	}
	if err := s.queries.EnsureTenant(ctx, tenantUUID); err != nil {
		return CreateResult{}, fmt.Errorf("ensure tenant: %w", err)
	}
	row, err := s.queries.CreateChatbot(ctx, sqlc.CreateChatbotParams{
		TenantID:        tenantUUID,
		Name:            name,
		WebhookKey:      newWebhookKey(),
		WebhookSecret:   secret,
		SystemPrompt:    prompt,
		VectorNamespace: newVectorNamespace(),
		IsActive:        isActive,
	})
	if err != nil {
		return CreateResult{}, fmt.Errorf("create chatbot: %w", err)
	}
	bot := toChatbot(row)
	s.logger.Info("chatbot created", slog.String("chatbot_id", bot.ID), slog.String("tenant_id", bot.TenantID))

	result := CreateResult{Chatbot: bot}
	if len(nonEmpty(req.DocumentTexts)) > 0 {
		result.Ingestion = s.ingest(ctx, bot, req.DocumentTexts)
	} else {
		result.Ingestion = IngestionResult{Success: true, Message: "no documents submitted"}
	}
	return result, nil
}

// Ingest indexes additional documents for an existing chatbot.
func (s *Service) Ingest(ctx context.Context, tenantID, chatbotID string, documents []string) (IngestionResult, error) {
	bot, err := s.Get(ctx, tenantID, chatbotID)
	if err != nil {
		return IngestionResult{}, err
	}
	if len(nonEmpty(documents)) == 0 {
		return IngestionResult{}, fmt.Errorf("document_texts must contain text")
	}
	return s.ingest(ctx, bot, documents), nil
}

func (s *Service) ingest(ctx context.Context, bot Chatbot, documents []string) IngestionResult {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ingestTimeout)
	defer cancel()
	chunks, err := s.ingester.Ingest(ctx, bot.VectorNamespace, nonEmpty(documents))
	if err != nil {
		s.logger.Warn("document ingestion failed",
			slog.String("chatbot_id", bot.ID),
			slog.Any("error", err),
		)
		return IngestionResult{Attempted: true, Success: false, Message: err.Error()}
	}
	return IngestionResult{
		Attempted:      true,
		Success:        true,
		Message:        fmt.Sprintf("ingested %d chunks", chunks),
		ChunksIngested: chunks,
	}
}

// Get returns a chatbot owned by tenantID.
func (s *Service) Get(ctx context.Context, tenantID, chatbotID string) (Chatbot, error) {
	if s.queries == nil {
		return Chatbot{}, fmt.Errorf("chatbot queries not configured")
	}
	tenantUUID, err := db.ParseUUID(tenantID)
	if err != nil {
		return Chatbot{}, err
	}
	botUUID, err := db.ParseUUID(chatbotID)
	if err != nil {
		return Chatbot{}, ErrChatbotNotFound
	}
	row, err := s.queries.GetChatbotForTenant(ctx, sqlc.GetChatbotForTenantParams{ID: botUUID, TenantID: tenantUUID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Chatbot{}, ErrChatbotNotFound
		}
		return Chatbot{}, err
	}
	return toChatbot(row), nil
}

// List returns the tenant's chatbots, newest first.
func (s *Service) List(ctx context.Context, tenantID string) ([]Chatbot, error) {
	if s.queries == nil {
		return nil, fmt.Errorf("chatbot queries not configured")
	}
	tenantUUID, err := db.ParseUUID(tenantID)
	if err != nil {
		return nil, err
	}
	rows, err := s.queries.ListChatbotsByTenant(ctx, tenantUUID)
	if err != nil {
		return nil, err
	}
	items := make([]Chatbot, 0, len(rows))
	for _, row := range rows {
		items = append(items, toChatbot(row))
	}
	return items, nil
}

// Update changes name, prompt or active flag.
func (s *Service) Update(ctx context.Context, tenantID, chatbotID string, req UpdateChatbotRequest) (Chatbot, error) {
	existing, err := s.Get(ctx, tenantID, chatbotID)
	if err != nil {
		return Chatbot{}, err
	}
	name := existing.Name
	prompt := existing.SystemPrompt
	isActive := existing.IsActive
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
	}
	if req.SystemPrompt != nil {
		prompt = strings.TrimSpace(*req.SystemPrompt)
	}
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	if name == "" {
		return Chatbot{}, fmt.Errorf("name is required")
	}
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	tenantUUID, _ := db.ParseUUID(tenantID)
	botUUID, _ := db.ParseUUID(chatbotID)
	row, err := s.queries.UpdateChatbot(ctx, sqlc.UpdateChatbotParams{
		ID:           botUUID,
		TenantID:     tenantUUID,
		Name:         name,
		SystemPrompt: prompt,
		IsActive:     isActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Chatbot{}, ErrChatbotNotFound
		}
		return Chatbot{}, err
	}
	return toChatbot(row), nil
}

// Delete removes a chatbot; its conversation windows cascade with it.
func (s *Service) Delete(ctx context.Context, tenantID, chatbotID string) error {
	if s.queries == nil {
		return fmt.Errorf("chatbot queries not configured")
	}
	tenantUUID, err := db.ParseUUID(tenantID)
	if err != nil {
		return err
	}
	botUUID, err := db.ParseUUID(chatbotID)
	if err != nil {
		return ErrChatbotNotFound
	}
	n, err := s.queries.DeleteChatbot(ctx, sqlc.DeleteChatbotParams{ID: botUUID, TenantID: tenantUUID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrChatbotNotFound
	}
	return nil
}

// GetActiveByWebhookKey returns the active chatbot owning key.
func (s *Service) GetActiveByWebhookKey(ctx context.Context, key string) (Chatbot, error) {
	if s.queries == nil {
		return Chatbot{}, fmt.Errorf("chatbot queries not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Chatbot{}, ErrChatbotNotFound
	}
	row, err := s.queries.GetActiveChatbotByWebhookKey(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Chatbot{}, ErrChatbotNotFound
		}
		return Chatbot{}, err
	}
	return toChatbot(row), nil
}

// LatestActiveForTenant returns the tenant's most recently created active chatbot.
func (s *Service) LatestActiveForTenant(ctx context.Context, tenantID string) (Chatbot, error) {
	if s.queries == nil {
		return Chatbot{}, fmt.Errorf("chatbot queries not configured")
	}
	tenantUUID, err := db.ParseUUID(tenantID)
	if err != nil {
		return Chatbot{}, err
	}
	row, err := s.queries.GetLatestActiveChatbotByTenant(ctx, tenantUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Chatbot{}, ErrChatbotNotFound
		}
		return Chatbot{}, err
	}
	return toChatbot(row), nil
}

func toChatbot(row sqlc.Chatbot) Chatbot {
	createdAt := time.Time{}
	if row.CreatedAt.Valid {
		createdAt = row.CreatedAt.Time
	}
	updatedAt := time.Time{}
	if row.UpdatedAt.Valid {
		updatedAt = row.UpdatedAt.Time
	}
	return Chatbot{
		ID:              db.UUIDString(row.ID),
		TenantID:        db.UUIDString(row.TenantID),
		Name:            row.Name,
		WebhookKey:      row.WebhookKey,
		WebhookSecret:   row.WebhookSecret,
		SystemPrompt:    row.SystemPrompt,
		VectorNamespace: row.VectorNamespace,
		IsActive:        row.IsActive,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}
}

// newWebhookKey returns 32 lowercase hex characters.
func newWebhookKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func newVectorNamespace() string {
	return namespacePrefix + newWebhookKey()[:12]
}

func newWebhookSecret() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate webhook secret: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			out = append(out, item)
		}
	}
	return out
}
