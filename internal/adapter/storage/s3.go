package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	appconfig "github.com/semmidev/mongobak/internal/config"
	"github.com/semmidev/mongobak/internal/domain"
	"github.com/semmidev/mongobak/internal/infrastructure/logger"
)

const probeTimeout = 10 * time.Second

type objectAPI interface {
	s3.ListObjectsV2APIClient
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type uploadAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

type S3Storage struct {
	client   objectAPI
	uploader uploadAPI
	bucket   string
	region   string
	prefix   string
	logger   *logger.Logger
}

// NewS3 creates a new S3Storage instance using AWS SDK v2
func NewS3(cfg *appconfig.StorageConfig, log *logger.Logger) (*S3Storage, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return newS3(client, s3manager.NewUploader(client), cfg.Bucket, cfg.Region, cfg.Prefix, log), nil
}

func newS3(client objectAPI, uploader uploadAPI, bucket, region, prefix string, log *logger.Logger) *S3Storage {
	return &S3Storage{
		client:   client,
		uploader: uploader,
		bucket:   bucket,
		region:   region,
		prefix:   prefix,
		logger:   log,
	}
}

// ObjectKey mints an unguessable key that still ends with the file name.
func (s *S3Storage) ObjectKey(localPath string) string {
	return fmt.Sprintf("%s%s-%s", s.prefix, uuid.NewString()[:8], filepath.Base(localPath))
}

// PublicURL is the virtual-hosted style URL of key.
func (s *S3Storage) PublicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// Upload streams a local file to the bucket with public-read visibility and
// returns its public URL. An empty key gets a freshly generated one.
func (s *S3Storage) Upload(ctx context.Context, localPath string, key string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", domain.NewError(domain.KindArtifactIO, "upload", "failed to open file", err)
	}
	defer file.Close()

	if key == "" {
		key = s.ObjectKey(localPath)
	}

	s.logger.Infow("Uploading to S3", "file", localPath, "bucket", s.bucket, "key", key)
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file,
		ACL:    types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", s.storageError("upload", "failed to upload to S3", err)
	}

	url := s.PublicURL(key)
	s.logger.Infow("S3 upload complete", "url", url)
	return url, nil
}

// TestConnection lists at most one object to check credentials and bucket
// access. It reports failure instead of returning an error.
func (s *S3Storage) TestConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	_, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		s.logger.Errorw("S3 connection test failed", "bucket", s.bucket, "error", err, "error_code", errorCode(err))
		return false
	}

	s.logger.Infow("S3 connection test successful", "bucket", s.bucket)
	return true
}

// List returns every object whose key starts with prefix.
func (s *S3Storage) List(ctx context.Context, prefix string) ([]domain.ObjectInfo, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	objects := make([]domain.ObjectInfo, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.storageError("list", "failed to list S3 objects", err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, domain.ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	s.logger.Debugw("Listed S3 objects", "prefix", prefix, "count", len(objects))
	return objects, nil
}

// Delete removes an object. A missing key is not special-cased; the
// provider error stays in the returned chain.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return s.storageError("delete", "failed to delete from S3", err)
	}

	s.logger.Infow("Deleted S3 object", "key", key)
	return nil
}

func (s *S3Storage) storageError(op, msg string, err error) error {
	code := errorCode(err)
	s.logger.Errorw(msg, "bucket", s.bucket, "error", err, "error_code", code)
	return &domain.Error{
		Kind:    domain.KindStorage,
		Op:      op,
		Message: fmt.Sprintf("%s: %v", msg, err),
		Code:    code,
		Err:     err,
	}
}

func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
