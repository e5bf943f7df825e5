package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/akolanti/alexandria/internal/config"
	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/metrics"
	"github.com/akolanti/alexandria/internal/rag/vectorDB"
	"github.com/akolanti/alexandria/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var logger *logger_i.Logger
var quadrantInstance *qdrant.Client
var once sync.Once

const (
	fieldDocumentId = "document_id"
	fieldOwner      = "owner"
	fieldIsPublic   = "is_public"
	fieldGeneration = "generation"
	fieldOrdinal    = "ordinal"
	fieldContent    = "content"
)

type ClientHolder struct {
	QObj           *qdrant.Client
	collectionName string
	dimension      uint64
}

type Options struct {
	Host      string
	Port      int
	APIKey    string
	Dimension int
}

// GetQuadrantClient connects once and makes sure the chunk collection exists. nil when Qdrant is unreachable.
func GetQuadrantClient(ctx context.Context, opts Options) *ClientHolder {

	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient(opts)
		if res != nil {
			quadrantInstance = res
			go closeQdrant(ctx, quadrantInstance)
		}
	})

	if quadrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj:           quadrantInstance,
		collectionName: config.EmbeddingDBName,
		dimension:      uint64(opts.Dimension),
	}
}

func newClient(opts Options) *qdrant.Client {
	host, port := opts.Host, opts.Port
	if host == "" || port == 0 {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		APIKey:   opts.APIKey,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.VectorCallTimeout)
	defer cancel()
	err = createCollection(ctx, client, config.EmbeddingDBName, uint64(opts.Dimension))
	if err != nil {
		logger.Error("could not create collection: ", "collectionName", config.EmbeddingDBName, "error:", err)
		_ = client.Close()
		return nil
	}

	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	err := qi.Close()
	if err != nil {
		logger.Error("could not close Qdrant: ", "error:", err)
	}
	logger.Info("Closed Qdrant")
}

func (db *ClientHolder) EnsureCollection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, config.VectorCallTimeout)
	defer cancel()
	return classify("qdrant.EnsureCollection", createCollection(ctx, db.QObj, db.collectionName, db.dimension))
}

func (db *ClientHolder) Dimension(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, config.VectorCallTimeout)
	defer cancel()

	info, err := db.QObj.GetCollectionInfo(ctx, db.collectionName)
	if err != nil {
		if s, ok := status.FromError(err); ok && s.Code() == codes.NotFound {
			return 0, nil
		}
		return 0, classify("qdrant.Dimension", err)
	}
	return int(info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()), nil
}

func (db *ClientHolder) Upsert(ctx context.Context, points []vectorDB.Point) error {
	if len(points) == 0 {
		return nil
	}
	defer metrics.MeasureDependency(metrics.DepVectorUpsert)()

	ctx, cancel := context.WithTimeout(ctx, config.VectorCallTimeout)
	defer cancel()

	qdrantPoints := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		qdrantPoints[i] = toPointStruct(p)
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: db.collectionName,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return classify("qdrant.Upsert", fmt.Errorf("qdrant upsert failed: %w", err))
	}
	return nil
}

func (db *ClientHolder) DeleteByOwner(ctx context.Context, documentId string) error {
	return db.deleteWhere(ctx, "qdrant.DeleteByOwner", &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch(fieldDocumentId, documentId)},
	})
}

func (db *ClientHolder) DeleteStale(ctx context.Context, documentId, keepGeneration string) error {
	return db.deleteWhere(ctx, "qdrant.DeleteStale", staleFilter(documentId, keepGeneration))
}

func (db *ClientHolder) deleteWhere(ctx context.Context, op string, filter *qdrant.Filter) error {
	ctx, cancel := context.WithTimeout(ctx, config.VectorCallTimeout)
	defer cancel()

	_, err := db.QObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: db.collectionName,
		Points:         qdrant.NewPointsSelectorFilter(filter),
		Wait:           qdrant.PtrOf(true),
	})
	return classify(op, err)
}

func (db *ClientHolder) Query(ctx context.Context, vector []float32, k int, scope docModel.Scope) ([]docModel.RetrievalMatch, error) {
	loggr := logger_i.FromContext(ctx, "Qdrant")
	if k <= 0 {
		return nil, nil
	}
	defer metrics.MeasureDependency(metrics.DepVectorSearch)()

	ctx, cancel := context.WithTimeout(ctx, config.VectorCallTimeout)
	defer cancel()

	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: db.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Filter:         scopeFilter(scope),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		loggr.Error("Error querying Qdrant: ", "error:", err)
		return nil, classify("qdrant.Query", err)
	}

	loggr.Debug("Found matches", "count", len(result))
	return toMatches(result), nil
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string, dimension uint64) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {

		return nil
	}

	err = client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return err
	}
	createPayloadIndexes(ctx, client, collectionName)
	return nil
}

// keyword indexes keep filtered queries fast. Failures only cost speed.
func createPayloadIndexes(ctx context.Context, client *qdrant.Client, collectionName string) {
	fields := map[string]qdrant.FieldType{
		fieldDocumentId: qdrant.FieldType_FieldTypeKeyword,
		fieldOwner:      qdrant.FieldType_FieldTypeKeyword,
		fieldGeneration: qdrant.FieldType_FieldTypeKeyword,
		fieldIsPublic:   qdrant.FieldType_FieldTypeBool,
	}
	for name, fieldType := range fields {
		_, err := client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: collectionName,
			FieldName:      name,
			FieldType:      fieldType.Enum(),
		})
		if err != nil {
			logger.Warn("could not create payload index", "field", name, "error", err)
		}
	}
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ragError.Wrap(ragError.TransientFailure, op, err)
	}
	s, ok := status.FromError(err)
	if !ok {
		return ragError.Wrap(ragError.PermanentFailure, op, err)
	}
	switch s.Code() {
	case codes.ResourceExhausted:
		return ragError.Wrap(ragError.RateLimited, op, err)
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted:
		return ragError.Wrap(ragError.TransientFailure, op, err)
	case codes.NotFound:
		return ragError.Wrap(ragError.NotFound, op, err)
	default:
		return ragError.Wrap(ragError.PermanentFailure, op, err)
	}
}
