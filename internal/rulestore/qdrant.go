package rulestore

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// upsertBatch bounds a single Upsert request so large rule sets stay under
// the gRPC message size limit.
const upsertBatch = 256

// Payload keys follow the langchain Qdrant layout so collections built by
// other tooling stay searchable.
const (
	payloadContent  = "page_content"
	payloadMetadata = "metadata"
	metadataSource  = "source"
)

// QdrantConfig describes how to reach a Qdrant collection.
type QdrantConfig struct {
	URL        string // REST URL (http://host:6333); only scheme and host are used
	GRPCPort   int
	APIKey     string
	Collection string
	Dimensions int
}

// QdrantStore implements Store against a Qdrant server over gRPC.
//
// Rebuild deletes and recreates the collection, so searches issued while a
// rebuild is in flight can observe a missing or partially filled collection.
// A missing collection is reported as an empty result.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	dims       uint64
	logger     *zap.Logger
}

// NewQdrantStore dials Qdrant. The connection is lazy; use Ping to verify it.
func NewQdrantStore(cfg QdrantConfig, logger *zap.Logger) (*QdrantStore, error) {
	host, useTLS, err := parseQdrantURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("NewQdrantStore: %w", err)
	}
	port := cfg.GRPCPort
	if port == 0 {
		port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("NewQdrantStore: %w", err)
	}

	return &QdrantStore{
		client:     client,
		collection: cfg.Collection,
		dims:       uint64(cfg.Dimensions),
		logger:     logger,
	}, nil
}

func parseQdrantURL(raw string) (host string, useTLS bool, err error) {
	if raw == "" {
		return "localhost", false, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false, err
	}
	host = u.Hostname()
	if host == "" {
		// Bare "host:port" without a scheme.
		h, _, splitErr := net.SplitHostPort(raw)
		if splitErr != nil {
			return raw, false, nil
		}
		host = h
	}
	return host, u.Scheme == "https", nil
}

func (s *QdrantStore) Rebuild(ctx context.Context, records []Record) error {
	if err := checkDimensions(records, int(s.dims)); err != nil {
		return fmt.Errorf("QdrantStore.Rebuild: %w", err)
	}

	// 1. Drop the previous generation
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("QdrantStore.Rebuild: exists: %w", err)
	}
	if exists {
		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			return fmt.Errorf("QdrantStore.Rebuild: delete: %w", err)
		}
		s.logger.Info("qdrant collection deleted", zap.String("collection", s.collection))
	}

	// 2. Recreate with fixed size and cosine distance
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.dims,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("QdrantStore.Rebuild: create: %w", err)
	}

	// 3. Bulk write
	for start := 0; start < len(records); start += upsertBatch {
		end := min(start+upsertBatch, len(records))
		points := make([]*qdrant.PointStruct, 0, end-start)
		for _, r := range records[start:end] {
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewID(r.ID),
				Vectors: qdrant.NewVectors(r.Vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					payloadContent: r.Text,
					payloadMetadata: map[string]any{
						metadataSource: r.Source,
					},
				}),
			})
		}
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		if err != nil {
			return fmt.Errorf("QdrantStore.Rebuild: upsert [%d:%d]: %w", start, end, err)
		}
	}

	s.logger.Info("qdrant collection rebuilt",
		zap.String("collection", s.collection),
		zap.Int("records", len(records)),
	)
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if uint64(len(vector)) != s.dims {
		return nil, fmt.Errorf("QdrantStore.Search: %w", ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("QdrantStore.Search: %w", err)
	}

	matches := make([]Match, 0, len(points))
	for _, p := range points {
		m := Match{
			ID:    p.GetId().GetUuid(),
			Score: p.GetScore(),
		}
		if v, ok := p.GetPayload()[payloadContent]; ok {
			m.Text = v.GetStringValue()
		}
		if v, ok := p.GetPayload()[payloadMetadata]; ok {
			m.Source = v.GetStructValue().GetFields()[metadataSource].GetStringValue()
		}
		if m.ID == "" {
			m.ID = strconv.FormatUint(p.GetId().GetNum(), 10)
		}
		matches = append(matches, m)
	}
	sortMatches(matches)
	return matches, nil
}

func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("QdrantStore.Count: %w", err)
	}
	return int(n), nil
}

func (s *QdrantStore) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("QdrantStore.Ping: %w", err)
	}
	return nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}
