package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"

	"github.com/ain9900/custom-chatbot-saas/internal/config"
	"github.com/ain9900/custom-chatbot-saas/internal/embeddings"
)

const (
	payloadText       = "text"
	payloadChunkIndex = "chunk_index"
	maxGrpcMsgBytes   = 32 << 20
)

// vectorIndex is the subset of *qdrant.Client used here.
type vectorIndex interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
}

// NewQdrantClient dials qdrant over gRPC.
func NewQdrantClient(cfg config.QdrantConfig) (*qdrant.Client, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxGrpcMsgBytes)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}
	return client, nil
}

// QdrantIndex keeps one collection per chatbot namespace. It serves both
// retrieval and ingestion.
type QdrantIndex struct {
	client   vectorIndex
	embedder embeddings.Embedder
	logger   *slog.Logger
	chunk    int
	overlap  int

	mu    sync.Mutex
	known map[string]struct{}
}

func NewQdrantIndex(log *slog.Logger, client vectorIndex, embedder embeddings.Embedder, chunkWords, chunkOverlap int) *QdrantIndex {
	if log == nil {
		log = slog.Default()
	}
	if chunkWords <= 0 {
		chunkWords = DefaultChunkWords
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	return &QdrantIndex{
		client:   client,
		embedder: embedder,
		logger:   log.With(slog.String("service", "retrieval")),
		chunk:    chunkWords,
		overlap:  chunkOverlap,
		known:    map[string]struct{}{},
	}
}

func (q *QdrantIndex) Retrieve(ctx context.Context, namespace, query string, k int) ([]string, error) {
	if q.client == nil || q.embedder == nil {
		return nil, fmt.Errorf("qdrant retriever not configured")
	}
	namespace = strings.TrimSpace(namespace)
	query = strings.TrimSpace(query)
	if namespace == "" || query == "" || k <= 0 {
		return nil, nil
	}
	exists, err := q.client.CollectionExists(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("check collection %s: %w", namespace, err)
	}
	if !exists {
		return nil, nil
	}
	vectors, err := q.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: expected 1 vector, got %d", len(vectors))
	}
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: namespace,
		Query:          qdrant.NewQuery(vectors[0]...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", namespace, err)
	}
	snippets := make([]string, 0, len(points))
	for _, p := range points {
		if p == nil {
			continue
		}
		text := strings.TrimSpace(p.GetPayload()[payloadText].GetStringValue())
		if text != "" {
			snippets = append(snippets, text)
		}
	}
	return snippets, nil
}

func (q *QdrantIndex) Ingest(ctx context.Context, namespace string, documents []string) (int, error) {
	if q.client == nil || q.embedder == nil {
		return 0, fmt.Errorf("qdrant ingester not configured")
	}
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return 0, fmt.Errorf("namespace is required")
	}
	chunks := make([]string, 0)
	for _, doc := range documents {
		chunks = append(chunks, ChunkWords(doc, q.chunk, q.overlap)...)
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	if err := q.ensureCollection(ctx, namespace); err != nil {
		return 0, err
	}
	vectors, err := q.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embed chunks: expected %d vectors, got %d", len(chunks), len(vectors))
	}
	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, chunk := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(uuid.NewString()),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadText:       chunk,
				payloadChunkIndex: int64(i),
			}),
		})
	}
	if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: namespace,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	}); err != nil {
		return 0, fmt.Errorf("upsert %s: %w", namespace, err)
	}
	q.logger.Info("ingested documents",
		slog.String("namespace", namespace),
		slog.Int("documents", len(documents)),
		slog.Int("chunks", len(points)),
	)
	return len(points), nil
}

func (q *QdrantIndex) ensureCollection(ctx context.Context, namespace string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.known[namespace]; ok {
		return nil
	}
	exists, err := q.client.CollectionExists(ctx, namespace)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", namespace, err)
	}
	if !exists {
		if err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: namespace,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(q.embedder.Dimensions()),
				Distance: qdrant.Distance_Cosine,
			}),
		}); err != nil {
			return fmt.Errorf("create collection %s: %w", namespace, err)
		}
	}
	q.known[namespace] = struct{}{}
	return nil
}
