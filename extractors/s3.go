package extractors

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/batchline/batchline"
)

// S3 extracts a newline-delimited object from a bucket as one text batch,
// then reports the source as drained.
type S3 struct {
	client *s3.Client
	bucket string
	key    string
	log    *slog.Logger
	done   bool
}

// NewS3 creates an S3 source for one object, using the ambient AWS
// credential chain.
func NewS3(ctx context.Context, bucket, key string, log *slog.Logger) (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("extractors: aws config: %w", err)
	}
	return &S3{client: s3.NewFromConfig(cfg), bucket: bucket, key: key, log: log}, nil
}

func (s *S3) Extract(ctx context.Context) (*batchline.Batch, error) {
	if s.done {
		return nil, batchline.ErrSourceDrained
	}

	obj, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("extractors: get s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer obj.Body.Close()

	var rows []batchline.Row
	scanner := bufio.NewScanner(obj.Body)
	for scanner.Scan() {
		rows = append(rows, batchline.Row{scanner.Text()})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("extractors: read s3://%s/%s: %w", s.bucket, s.key, err)
	}

	s.done = true
	s.log.Debug("fetched object", "bucket", s.bucket, "key", s.key, "lines", len(rows))
	schema := batchline.Schema{Fields: []batchline.Field{{Name: "line", Type: batchline.TypeText}}}
	return batchline.NewBatch(schema, rows)
}

func (s *S3) Close(ctx context.Context) error { return nil }
