package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/invoice-workbench/backend/internal/models"
)

// S3Config holds the connection settings for an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// S3Store implements Store against an S3-compatible object store via the
// MinIO client. Objects are keyed by sanitized filename, mirroring LocalStore.
type S3Store struct {
	client *minio.Client
	bucket string
}

// NewS3Store connects to the configured endpoint and ensures the bucket
// exists.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating s3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("creating bucket: %w", err)
		}
	}

	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

func (s *S3Store) Save(name string, r io.Reader) (*models.FileInfo, error) {
	safe, err := SafeName(name)
	if err != nil {
		return nil, err
	}

	// Buffer so the object size is known up front; invoice documents are
	// small enough for this.
	var buf bytes.Buffer
	size, err := io.Copy(&buf, r)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	ct := contentTypeFor(safe)
	info, err := s.client.PutObject(context.Background(), s.bucket, safe, &buf, size,
		minio.PutObjectOptions{ContentType: ct})
	if err != nil {
		return nil, fmt.Errorf("uploading to s3: %w", err)
	}

	return &models.FileInfo{
		Name:        safe,
		Size:        info.Size,
		ContentType: ct,
		UploadedAt:  info.LastModified,
	}, nil
}

func (s *S3Store) Open(name string) (io.ReadCloser, *models.FileInfo, error) {
	safe, err := SafeName(name)
	if err != nil {
		return nil, nil, err
	}

	obj, err := s.client.GetObject(context.Background(), s.bucket, safe, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("fetching from s3: %w", err)
	}

	// GetObject is lazy; Stat surfaces missing objects before we hand the
	// reader out.
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, nil, fmt.Errorf("file not found: %s", safe)
	}

	ct := stat.ContentType
	if ct == "" {
		ct = contentTypeFor(safe)
	}
	return obj, &models.FileInfo{
		Name:        safe,
		Size:        stat.Size,
		ContentType: ct,
		UploadedAt:  stat.LastModified,
	}, nil
}

func (s *S3Store) List(limit int) ([]*models.FileInfo, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var list []*models.FileInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("listing objects: %w", obj.Err)
		}
		list = append(list, &models.FileInfo{
			Name:        obj.Key,
			Size:        obj.Size,
			ContentType: contentTypeFor(obj.Key),
			UploadedAt:  obj.LastModified,
		})
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *S3Store) Delete(name string) error {
	safe, err := SafeName(name)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(context.Background(), s.bucket, safe, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("deleting from s3: %w", err)
	}
	return nil
}
