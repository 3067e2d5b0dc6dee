package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	dims  int
	err   error
	calls [][]string
}

func (f *fakeEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.calls = append(f.calls, inputs)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = make([]float32, f.dims)
		out[i][0] = float32(i + 1)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return f.dims }

type fakeIndex struct {
	collections map[string]bool
	created     []*qdrant.CreateCollection
	upserts     []*qdrant.UpsertPoints
	queries     []*qdrant.QueryPoints
	results     []*qdrant.ScoredPoint
	queryErr    error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{collections: map[string]bool{}}
}

func (f *fakeIndex) CollectionExists(_ context.Context, name string) (bool, error) {
	return f.collections[name], nil
}

func (f *fakeIndex) CreateCollection(_ context.Context, req *qdrant.CreateCollection) error {
	f.created = append(f.created, req)
	f.collections[req.GetCollectionName()] = true
	return nil
}

func (f *fakeIndex) Upsert(_ context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.upserts = append(f.upserts, req)
	return &qdrant.UpdateResult{}, nil
}

func (f *fakeIndex) Query(_ context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.queries = append(f.queries, req)
	return f.results, f.queryErr
}

func TestQdrantIndexIngestCreatesCollectionOnce(t *testing.T) {
	t.Parallel()

	index := newFakeIndex()
	emb := &fakeEmbedder{dims: 3}
	q := NewQdrantIndex(nil, index, emb, 4, 0)

	n, err := q.Ingest(context.Background(), "chatbot_abc", []string{"one two three four five", "six"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, index.created, 1)
	assert.Equal(t, uint64(3), index.created[0].GetVectorsConfig().GetParams().GetSize())
	require.Len(t, index.upserts, 1)
	points := index.upserts[0].GetPoints()
	require.Len(t, points, 3)
	assert.Equal(t, "one two three four", points[0].GetPayload()[payloadText].GetStringValue())

	_, err = q.Ingest(context.Background(), "chatbot_abc", []string{"again"})
	require.NoError(t, err)
	assert.Len(t, index.created, 1)
}

func TestQdrantIndexIngestNothingToDo(t *testing.T) {
	t.Parallel()

	index := newFakeIndex()
	q := NewQdrantIndex(nil, index, &fakeEmbedder{dims: 3}, 0, 0)
	n, err := q.Ingest(context.Background(), "chatbot_abc", []string{"   "})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, index.created)
}

func TestQdrantIndexRetrieve(t *testing.T) {
	t.Parallel()

	index := newFakeIndex()
	index.collections["chatbot_abc"] = true
	index.results = []*qdrant.ScoredPoint{
		{Payload: qdrant.NewValueMap(map[string]any{payloadText: "refund window is 30 days"})},
		{Payload: qdrant.NewValueMap(map[string]any{payloadText: "  "})},
		nil,
	}
	q := NewQdrantIndex(nil, index, &fakeEmbedder{dims: 2}, 0, 0)

	snippets, err := q.Retrieve(context.Background(), "chatbot_abc", "refunds?", 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"refund window is 30 days"}, snippets)
	require.Len(t, index.queries, 1)
	assert.Equal(t, uint64(4), index.queries[0].GetLimit())
}

func TestQdrantIndexRetrieveMissingCollection(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{dims: 2}
	q := NewQdrantIndex(nil, newFakeIndex(), emb, 0, 0)
	snippets, err := q.Retrieve(context.Background(), "chatbot_none", "hello", 4)
	require.NoError(t, err)
	assert.Empty(t, snippets)
	assert.Empty(t, emb.calls)
}

func TestQdrantIndexRetrievePropagatesErrors(t *testing.T) {
	t.Parallel()

	index := newFakeIndex()
	index.collections["chatbot_abc"] = true
	index.queryErr = errors.New("unavailable")
	q := NewQdrantIndex(nil, index, &fakeEmbedder{dims: 2}, 0, 0)
	_, err := q.Retrieve(context.Background(), "chatbot_abc", "hello", 4)
	assert.Error(t, err)

	q = NewQdrantIndex(nil, index, &fakeEmbedder{dims: 2, err: errors.New("quota")}, 0, 0)
	_, err = q.Retrieve(context.Background(), "chatbot_abc", "hello", 4)
	assert.ErrorContains(t, err, "embed query")
}

func TestNoop(t *testing.T) {
	t.Parallel()

	snippets, err := Noop{}.Retrieve(context.Background(), "ns", "q", 4)
	assert.NoError(t, err)
	assert.Empty(t, snippets)
	_, err = Noop{}.Ingest(context.Background(), "ns", []string{"doc"})
	assert.ErrorIs(t, err, ErrDisabled)
}
