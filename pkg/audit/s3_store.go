package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/platinummonkey/tally/pkg/audit")

// S3API is the subset of the S3 client used by S3Store
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3StoreConfig configures the S3 store
type S3StoreConfig struct {
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string // Custom endpoint (MinIO, localstack)
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// S3Store stores each monthly shard as a JSONL object
type S3Store struct {
	client S3API
	bucket string
	prefix string
	mu     sync.Mutex
}

// NewS3Store creates an S3-backed shard store from configuration
func NewS3Store(ctx context.Context, cfg S3StoreConfig) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	var awsConfig aws.Config
	var err error

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		// Static credentials for MinIO or explicit keys
		awsConfig, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)),
		)
	} else {
		awsConfig, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	return NewS3StoreWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewS3StoreWithClient creates an S3 store around an existing client
func NewS3StoreWithClient(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// Backend returns "s3"
func (s *S3Store) Backend() string { return "s3" }

// Key returns the object key of the shard of period
func (s *S3Store) Key(period Period) string {
	return path.Join(s.prefix, fmt.Sprintf("audit-%s.jsonl", period))
}

// ReadShard downloads and decodes the shard object of period
func (s *S3Store) ReadShard(ctx context.Context, period Period) ([]Event, error) {
	key := s.Key(period)
	ctx, span := tracer.Start(ctx, "S3Store.ReadShard",
		trace.WithAttributes(
			attribute.String("s3.bucket", s.bucket),
			attribute.String("s3.key", key),
			attribute.String("audit.period", period.String()),
		),
	)
	defer span.End()

	data, err := s.get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrShardNotFound) {
			span.SetStatus(codes.Ok, "shard not found")
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get shard from s3")
		return nil, err
	}

	events, err := decodeJSONL(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode shard")
		return nil, fmt.Errorf("failed to decode audit shard %s: %w", period, err)
	}

	span.SetAttributes(attribute.Int("audit.events", len(events)))
	span.SetStatus(codes.Ok, "shard read")
	return events, nil
}

// Append rewrites the shard objects of the events' periods with the events appended.
// Concurrent writers from other processes are not coordinated.
func (s *S3Store) Append(ctx context.Context, events ...Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byPeriod := make(map[Period][]Event)
	var order []Period
	for _, e := range events {
		p := PeriodOf(e.Timestamp)
		if _, ok := byPeriod[p]; !ok {
			order = append(order, p)
		}
		byPeriod[p] = append(byPeriod[p], e)
	}

	for _, p := range order {
		key := s.Key(p)
		existing, err := s.get(ctx, key)
		if err != nil && !errors.Is(err, ErrShardNotFound) {
			return err
		}

		buf := bytes.NewBuffer(existing)
		encoder := json.NewEncoder(buf)
		for i := range byPeriod[p] {
			if err := encoder.Encode(&byPeriod[p][i]); err != nil {
				return fmt.Errorf("failed to encode audit event: %w", err)
			}
		}

		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(buf.Bytes()),
			ContentType: aws.String("application/x-ndjson"),
		})
		if err != nil {
			return fmt.Errorf("failed to upload audit shard %s: %w", p, err)
		}
	}
	return nil
}

func (s *S3Store) get(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrShardNotFound
		}
		return nil, fmt.Errorf("failed to get object from s3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}

func isNoSuchKey(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}

func decodeJSONL(data []byte) ([]Event, error) {
	var events []Event
	decoder := json.NewDecoder(bytes.NewReader(data))
	for {
		var e Event
		err := decoder.Decode(&e)
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
}
