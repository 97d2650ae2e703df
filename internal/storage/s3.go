package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"btmad/internal/config"
)

// S3Documents implements Documents on an S3-compatible bucket. A document's
// id is its object key: the configured prefix followed by the name.
type S3Documents struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

var _ Documents = (*S3Documents)(nil)

// NewS3Documents creates an S3 client from the default credential chain.
// A custom endpoint (for example MinIO) switches to path-style addressing.
func NewS3Documents(ctx context.Context, cfg config.StoreConfig) (*S3Documents, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 store requires s3_bucket to be set")
	}
	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3DocumentsFromClient(client, cfg.S3Bucket, cfg.S3Prefix), nil
}

// NewS3DocumentsFromClient wraps an existing client.
func NewS3DocumentsFromClient(client *s3.Client, bucket, prefix string) *S3Documents {
	return &S3Documents{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
	}
}

// FindByName reports the object prefix+name if it exists. S3 keys are
// unique, so at most one document is returned.
func (d *S3Documents) FindByName(ctx context.Context, name string) ([]Document, error) {
	key := d.prefix + name
	_, err := d.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &d.bucket, Key: &key})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("checking %s: %w", key, err)
	}
	return []Document{{ID: key, Name: name}}, nil
}

func (d *S3Documents) Create(ctx context.Context, name string, body []byte) (Document, error) {
	key := d.prefix + name
	if err := d.put(ctx, key, body); err != nil {
		return Document{}, err
	}
	return Document{ID: key, Name: name}, nil
}

func (d *S3Documents) Read(ctx context.Context, id string) ([]byte, error) {
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &d.bucket, Key: &id})
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", id, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", id, err)
	}
	return data, nil
}

// Update overwrites the object id. Object keys carry the name, so name is
// not sent separately.
func (d *S3Documents) Update(ctx context.Context, id, _ string, body []byte) error {
	return d.put(ctx, id, body)
}

func (d *S3Documents) put(ctx context.Context, key string, body []byte) error {
	_, err := d.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &d.bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String(jsonMimeType),
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == 404
}
