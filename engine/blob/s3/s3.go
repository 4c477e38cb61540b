// Package s3 implements a blob store on top of an S3 compatible object storage.
package s3

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/slickfs/gateway/engine/blob"
	"github.com/slickfs/gateway/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	UseSSL          bool

	// Prefix is prepended to the key of every blob
	Prefix string

	Logger log.Logger
}

type store struct {
	bucket string
	prefix string

	client *minio.Client
	logger log.Logger
}

// New returns a blob store that keeps every blob as an object in the bucket.
// The bucket will be created if it doesn't exist.
func New(config Config) (blob.Store, error) {
	s := &store{
		bucket: config.Bucket,
		prefix: config.Prefix,
		logger: config.Logger,
	}

	if s.logger == nil {
		s.logger = log.New("")
	}

	if len(s.bucket) == 0 {
		return nil, fmt.Errorf("no bucket provided")
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Region: config.Region,
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("can't connect to s3 endpoint %s: %w", config.Endpoint, err)
	}

	s.logger = s.logger.WithFields(log.Fields{
		"type":     "s3",
		"bucket":   config.Bucket,
		"region":   config.Region,
		"endpoint": config.Endpoint,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, s.bucket)
	if err != nil {
		s.logger.Error().WithError(err).Log("Can't access bucket")
		return nil, fmt.Errorf("can't access bucket %s: %w", s.bucket, err)
	}

	if !exists {
		err = client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: config.Region})
		if err != nil {
			s.logger.Error().WithError(err).Log("Can't create bucket")
			return nil, fmt.Errorf("can't create bucket %s: %w", s.bucket, err)
		}

		s.logger.Debug().Log("Bucket created")
	}

	s.client = client

	return s, nil
}

func (s *store) Type() string {
	return "s3"
}

func (s *store) key(key string) string {
	return s.prefix + key
}

func (s *store) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if has, err := s.Has(ctx, key); err == nil && has {
		_, err = io.Copy(io.Discard, r)
		return err
	}

	var partSize uint64 = 0
	disableMultipart := false

	if size < 0 {
		partSize = 16 * 1024 * 1024
	} else if size < 32*1024*1024 {
		disableMultipart = true
	}

	info, err := s.client.PutObject(ctx, s.bucket, s.key(key), r, size, minio.PutObjectOptions{
		ContentType:      "application/octet-stream",
		PartSize:         partSize,
		DisableMultipart: disableMultipart,
	})
	if err != nil {
		s.logger.Error().WithError(err).WithField("key", key).Log("Failed to store blob")
		return err
	}

	if size >= 0 && info.Size != size {
		s.client.RemoveObject(ctx, s.bucket, s.key(key), minio.RemoveObjectOptions{})
		return fmt.Errorf("expected %d bytes, got %d: %w", size, info.Size, io.ErrUnexpectedEOF)
	}

	s.logger.Debug().WithField("key", key).Log("Stored")

	return nil
}

func (s *store) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, s.key(key), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	if isNotFound(err) {
		return false, nil
	}

	return false, err
}

func (s *store) Open(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	options := minio.GetObjectOptions{}

	if offset > 0 || length >= 0 {
		if length == 0 {
			return io.NopCloser(eofReader{}), nil
		}

		end := int64(0)
		if length > 0 {
			end = offset + length - 1
		}

		if err := options.SetRange(offset, end); err != nil {
			return nil, err
		}
	}

	object, err := s.client.GetObject(ctx, s.bucket, s.key(key), options)
	if err != nil {
		if isNotFound(err) {
			return nil, blob.ErrNotFound
		}

		return nil, err
	}

	if _, err := object.Stat(); err != nil {
		object.Close()

		if isNotFound(err) {
			return nil, blob.ErrNotFound
		}

		return nil, err
	}

	return object, nil
}

func (s *store) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(key), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}

	return nil
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code

	return code == "NoSuchKey" || code == "NotFound"
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) {
	return 0, io.EOF
}
