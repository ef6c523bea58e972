package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// payloadIDField stores the caller-supplied chunk ID alongside the
// deterministic UUID Qdrant requires as its point ID.
const payloadIDField = "_original_id"

// qdrantStore persists vectors through Qdrant's gRPC API (default port
// 6334). An API key may be passed as a DSN query parameter, e.g.
// "http://host:6334?api_key=...".
type qdrantStore struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

func newQdrantStore(dsn, collection string, dimension int) (Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("qdrant store requires a known embedding dimension")
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant dsn: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	portStr := u.Port()
	if portStr == "" {
		portStr = "6334"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant port: %w", err)
	}
	cfg := &qdrant.Config{Host: host, Port: port}
	if u.Scheme == "https" {
		cfg.UseTLS = true
	}
	if key := u.Query().Get("api_key"); key != "" {
		cfg.APIKey = key
	}
	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant: %w", err)
	}
	qs := &qdrantStore{client: client, collection: collection, dimension: dimension}
	if err := qs.ensureCollection(context.Background()); err != nil {
		client.Close()
		return nil, err
	}
	return qs, nil
}

func (q *qdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check qdrant collection: %w", err)
	}
	if exists {
		return nil
	}
	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create qdrant collection: %w", err)
	}
	return nil
}

func (q *qdrantStore) pointID(id string) *qdrant.PointId {
	if _, err := uuid.Parse(id); err == nil {
		return qdrant.NewIDUUID(id)
	}
	return qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String())
}

func (q *qdrantStore) Upsert(ctx context.Context, batch []Record) error {
	points := make([]*qdrant.PointStruct, 0, len(batch))
	for _, r := range batch {
		payload := map[string]any{"text": r.Text}
		for k, v := range r.Metadata {
			payload[k] = v
		}
		uuidStr := r.ID
		if _, err := uuid.Parse(r.ID); err != nil {
			uuidStr = uuid.NewSHA1(uuid.NameSpaceOID, []byte(r.ID)).String()
			payload[payloadIDField] = r.ID
		}
		vec := make([]float32, len(r.Vector))
		copy(vec, r.Vector)
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(uuidStr),
			Vectors: qdrant.NewVectorsDense(vec),
			Payload: qdrant.NewValueMap(payload),
		})
	}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{CollectionName: q.collection, Points: points})
	return err
}

func (q *qdrantStore) Delete(ctx context.Context, id string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Points:         qdrant.NewPointsSelector(q.pointID(id)),
	})
	return err
}

// toQdrantFilter supports the flat subset of the filter language (§4.5's
// equality clauses) that maps onto Qdrant's native Match condition; range
// and $contains clauses are applied client-side after the vector search,
// since they have no single-condition Qdrant equivalent worth the extra
// round-trip for a personal-scale collection.
func toQdrantFilter(f Filter) *qdrant.Filter {
	flat := map[string]string{}
	for k, v := range f {
		if s, ok := v.(string); ok {
			flat[k] = s
		}
	}
	if len(flat) == 0 {
		return nil
	}
	must := make([]*qdrant.Condition, 0, len(flat))
	for k, v := range flat {
		must = append(must, qdrant.NewMatch(k, v))
	}
	return &qdrant.Filter{Must: must}
}

func (q *qdrantStore) Search(ctx context.Context, query []float32, k int, filter Filter) ([]Match, error) {
	if k <= 0 {
		k = 10
	}
	vec := make([]float32, len(query))
	copy(vec, query)
	limit := uint64(k)
	res, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQueryDense(vec),
		Limit:          &limit,
		Filter:         toQdrantFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}
	out := make([]Match, 0, len(res))
	for _, hit := range res {
		md := map[string]any{}
		var text, originalID string
		for k, v := range hit.GetPayload() {
			switch k {
			case payloadIDField:
				originalID = v.GetStringValue()
			case "text":
				text = v.GetStringValue()
			default:
				md[k] = v.GetStringValue()
			}
		}
		id := originalID
		if id == "" {
			id = hit.GetId().GetUuid()
		}
		r := Record{ID: id, Text: text, Metadata: md}
		if !filter.Match(md) {
			continue
		}
		out = append(out, Match{Record: r, Distance: 1 - float64(hit.GetScore())})
	}
	return out, nil
}

func (q *qdrantStore) SearchWithThreshold(ctx context.Context, query []float32, k int, maxDistance float64, filter Filter) ([]Match, error) {
	matches, err := q.Search(ctx, query, k, filter)
	if err != nil {
		return nil, err
	}
	out := matches[:0:0]
	for _, m := range matches {
		if m.Distance <= maxDistance {
			out = append(out, m)
		}
	}
	return out, nil
}

func (q *qdrantStore) Count(ctx context.Context) (int, error) {
	info, err := q.client.GetCollectionInfo(ctx, q.collection)
	if err != nil {
		return 0, err
	}
	return int(info.GetPointsCount()), nil
}

func (q *qdrantStore) Stats(ctx context.Context) (Stats, error) {
	count, err := q.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Total: count, Dimension: q.dimension, ByFileType: map[string]int{}, ByProcessingMethod: map[string]int{}}, nil
}

// Optimize and Reindex against Qdrant delegate index maintenance to the
// server, which manages its own HNSW segments. A large collection's Reindex
// still walks runIncrementalReindex's batches, reporting progress and writing
// checkpoints so an interrupted run resumes, but a batch sends no request to
// Qdrant.
func (q *qdrantStore) Optimize(ctx context.Context) (OptimizeReport, error) {
	count, err := q.Count(ctx)
	if err != nil {
		return OptimizeReport{}, err
	}
	return OptimizeReport{Collection: q.collection, Incremental: count >= LargeCollectionThreshold}, nil
}

func (q *qdrantStore) Reindex(ctx context.Context, profile Profile, opts ...ReindexOption) (ReindexReport, error) {
	count, err := q.Count(ctx)
	if err != nil {
		return ReindexReport{}, err
	}
	resolved := ResolveProfile(profile, count)
	if count < LargeCollectionThreshold {
		return ReindexReport{Collection: q.collection, Profile: resolved, Processed: count}, nil
	}
	return runIncrementalReindex(ctx, q.collection, count, resolved, func(ctx context.Context, offset, batchSize int) (int, error) {
		// Qdrant rebuilds its own index server-side; a batch only advances
		// the offset.
		return batchSize, nil
	}, opts...)
}

func (q *qdrantStore) Close() error {
	return q.client.Close()
}
