package repository

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/aprilhs/copyforge/internal/domain"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

const defaultVectorDimension = 1024

// QdrantConnectionConfig holds configuration for Qdrant connection
type QdrantConnectionConfig struct {
	Host            string
	Port            int
	Collection      string
	APIKey          string // Qdrant Cloud API Key (enables TLS automatically)
	UseTLS          bool   // Explicitly enable TLS without API Key
	VectorDimension int
}

// apiKeyInterceptor creates a unary interceptor that adds API key to metadata
func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// QdrantRepository handles vector operations against the reference-example
// collection in Qdrant.
type QdrantRepository struct {
	conn            *grpc.ClientConn
	pointsClient    pb.PointsClient
	collectClient   pb.CollectionsClient
	collectionName  string
	vectorDimension int
}

// NewQdrantRepository creates a new QdrantRepository.
// Supports both local Qdrant (insecure) and Qdrant Cloud (TLS + API Key).
func NewQdrantRepository(cfg *QdrantConnectionConfig) (*QdrantRepository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	vectorDimension := cfg.VectorDimension
	if vectorDimension <= 0 {
		vectorDimension = defaultVectorDimension
	}

	var opts []grpc.DialOption

	useTLS := cfg.UseTLS || cfg.APIKey != ""
	if useTLS {
		tlsConfig := &tls.Config{
			MinVersion: tls.VersionTLS13,
		}
		creds := credentials.NewTLS(tlsConfig)
		opts = append(opts, grpc.WithTransportCredentials(creds))

		if cfg.APIKey != "" {
			opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
		}
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &QdrantRepository{
		conn:            conn,
		pointsClient:    pb.NewPointsClient(conn),
		collectClient:   pb.NewCollectionsClient(conn),
		collectionName:  cfg.Collection,
		vectorDimension: vectorDimension,
	}, nil
}

// Close closes the gRPC connection
func (r *QdrantRepository) Close() error {
	return r.conn.Close()
}

// EnsureCollection verifies the collection exists with the expected vector
// dimension, creating it when absent. Every stored embedding must match the
// configured dimensionality.
func (r *QdrantRepository) EnsureCollection(ctx context.Context) error {
	info, err := r.collectClient.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collectionName,
	})
	if err == nil {
		if size, ok := collectionVectorSize(info.GetResult()); ok {
			if size != uint64(r.vectorDimension) {
				return fmt.Errorf("collection %s has vector size %d, expected %d", r.collectionName, size, r.vectorDimension)
			}
		}
		return nil
	}

	_, err = r.collectClient.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collectionName,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(r.vectorDimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
		HnswConfig: &pb.HnswConfigDiff{
			M:                 optionalUint64(16),
			EfConstruct:       optionalUint64(128),
			FullScanThreshold: optionalUint64(10000),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

func optionalUint64(v uint64) *uint64 {
	return &v
}

func optionalFloat32(v float32) *float32 {
	return &v
}

func collectionVectorSize(info *pb.CollectionInfo) (uint64, bool) {
	if info == nil {
		return 0, false
	}

	config := info.GetConfig()
	if config == nil {
		return 0, false
	}

	params := config.GetParams()
	if params == nil {
		return 0, false
	}

	vectors := params.GetVectorsConfig()
	if vectors == nil {
		return 0, false
	}

	if single := vectors.GetParams(); single != nil {
		if size := single.GetSize(); size > 0 {
			return size, true
		}
	}

	return 0, false
}

// ExamplePayload represents the payload stored with each vector. It carries
// enough of the reference example to render a prompt even when relational
// enrichment fails.
type ExamplePayload struct {
	ExampleID      string   `json:"example_id"`
	Company        string   `json:"company"`
	Tagline        string   `json:"tagline"`
	AnchorType     string   `json:"anchor_type"`
	PrimaryAnchor  string   `json:"primary_anchor"`
	Problem        string   `json:"problem"`
	Differentiator string   `json:"differentiator"`
	Industry       string   `json:"industry"`
	Effectiveness  string   `json:"effectiveness"`
	Structure      string   `json:"structure"`
	ICPSegments    []string `json:"icp_segments"`
}

// ExampleHit is a scored search result from Qdrant.
type ExampleHit struct {
	ID      string
	Score   float32
	Payload *ExamplePayload
}

// Search performs a cosine similarity search, keeping only hits whose score
// exceeds threshold, ordered by descending similarity.
func (r *QdrantRepository) Search(ctx context.Context, vector []float32, topK int, threshold float32) ([]ExampleHit, error) {
	req := &pb.SearchPoints{
		CollectionName: r.collectionName,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	}
	if threshold > 0 {
		req.ScoreThreshold = optionalFloat32(threshold)
	}

	resp, err := r.pointsClient.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]ExampleHit, len(resp.Result))
	for i, scored := range resp.Result {
		results[i] = ExampleHit{
			ID:      scored.Id.GetUuid(),
			Score:   scored.Score,
			Payload: parsePayload(scored.Payload),
		}
	}

	return results, nil
}

func parsePayload(payload map[string]*pb.Value) *ExamplePayload {
	if payload == nil {
		return nil
	}

	p := &ExamplePayload{}
	if v, ok := payload["example_id"]; ok {
		p.ExampleID = v.GetStringValue()
	}
	if v, ok := payload["company"]; ok {
		p.Company = v.GetStringValue()
	}
	if v, ok := payload["tagline"]; ok {
		p.Tagline = v.GetStringValue()
	}
	if v, ok := payload["anchor_type"]; ok {
		p.AnchorType = v.GetStringValue()
	}
	if v, ok := payload["primary_anchor"]; ok {
		p.PrimaryAnchor = v.GetStringValue()
	}
	if v, ok := payload["problem"]; ok {
		p.Problem = v.GetStringValue()
	}
	if v, ok := payload["differentiator"]; ok {
		p.Differentiator = v.GetStringValue()
	}
	if v, ok := payload["industry"]; ok {
		p.Industry = v.GetStringValue()
	}
	if v, ok := payload["effectiveness"]; ok {
		p.Effectiveness = v.GetStringValue()
	}
	if v, ok := payload["structure"]; ok {
		p.Structure = v.GetStringValue()
	}
	if v, ok := payload["icp_segments"]; ok {
		if list := v.GetListValue(); list != nil {
			for _, item := range list.Values {
				p.ICPSegments = append(p.ICPSegments, item.GetStringValue())
			}
		}
	}

	return p
}

// ToScoredExample converts a hit into the domain representation, used when
// relational enrichment is unavailable.
func (h *ExampleHit) ToScoredExample() domain.ScoredExample {
	ex := domain.ReferenceExample{ID: h.ID}
	if p := h.Payload; p != nil {
		if p.ExampleID != "" {
			ex.ID = p.ExampleID
		}
		ex.Company = p.Company
		ex.Tagline = p.Tagline
		ex.AnchorType = domain.AnchorType(p.AnchorType)
		ex.PrimaryAnchor = p.PrimaryAnchor
		ex.Problem = p.Problem
		ex.Differentiator = p.Differentiator
		ex.Industry = p.Industry
		ex.Effectiveness = domain.EffectivenessTier(p.Effectiveness)
		ex.Structure = p.Structure
		ex.ICPSegments = domain.StringArray(p.ICPSegments)
	}
	return domain.ScoredExample{ReferenceExample: ex, Similarity: h.Score}
}
