package attachments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// maxDeleteBatch is the S3 limit on keys per DeleteObjects call.
const maxDeleteBatch = 1000

// S3Config locates the bucket.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// S3Storage implements ObjectStorage on an S3 compatible bucket.
type S3Storage struct {
	bucket    string
	client    *s3.Client
	presigner *s3.PresignClient
	uploader  *manager.Uploader
}

// NewS3Storage builds the client. A custom endpoint switches to path-style
// addressing for MinIO and similar servers.
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("attachments: bucket required")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("attachments: load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return &S3Storage{
		bucket:    cfg.Bucket,
		client:    client,
		presigner: s3.NewPresignClient(client),
		uploader:  manager.NewUploader(client),
	}, nil
}

// Upload stores input.Body under input.Key.
func (s *S3Storage) Upload(ctx context.Context, input UploadInput) error {
	if !input.Upsert {
		exists, err := s.exists(ctx, input.Key)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrObjectExists, input.Key)
		}
	}
	put := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(input.Key),
		Body:        input.Body,
		ContentType: aws.String(input.ContentType),
	}
	if input.CacheControl != "" {
		put.CacheControl = aws.String(input.CacheControl)
	}
	if _, err := s.uploader.Upload(ctx, put); err != nil {
		return fmt.Errorf("attachments: s3 upload %s: %w", input.Key, err)
	}
	return nil
}

func (s *S3Storage) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("attachments: s3 head %s: %w", key, err)
}

// Remove deletes keys in batches of up to 1000.
func (s *S3Storage) Remove(ctx context.Context, keys []string) (BatchResult, error) {
	var result BatchResult
	for start := 0; start < len(keys); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(keys))
		chunk := keys[start:end]
		objects := make([]types.ObjectIdentifier, 0, len(chunk))
		for _, key := range chunk {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
		}
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			if len(result.Items) == 0 {
				return BatchResult{}, fmt.Errorf("attachments: s3 delete: %w", err)
			}
			for _, key := range chunk {
				result.Add(key, err)
			}
			continue
		}
		failed := make(map[string]error, len(out.Errors))
		for _, e := range out.Errors {
			failed[aws.ToString(e.Key)] = fmt.Errorf("attachments: s3 delete: %s: %s", aws.ToString(e.Code), aws.ToString(e.Message))
		}
		for _, key := range chunk {
			result.Add(key, failed[key])
		}
	}
	return result, nil
}

// SignedURL presigns a GET for key.
func (s *S3Storage) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("attachments: s3 presign %s: %w", key, err)
	}
	return req.URL, nil
}

var _ ObjectStorage = (*S3Storage)(nil)
