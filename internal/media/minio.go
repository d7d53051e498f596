package media

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"catalog_back_end/internal/logger"
)

const minioKeyPrefix = "uploads/"

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinIO keeps uploads as objects under "uploads/" in one bucket.
type MinIO struct {
	client *minio.Client
	bucket string
	now    func() time.Time
}

// ConnectMinIO opens the client and creates the bucket when it is missing.
func ConnectMinIO(ctx context.Context, cfg MinIOConfig) (*MinIO, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "minio client")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "check bucket %s", cfg.Bucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "create bucket %s", cfg.Bucket)
		}
		logger.Log.Info("🪣 Bucket created", zap.String("bucket", cfg.Bucket))
	}

	logger.Log.Info("✅ Connected to MinIO", zap.String("endpoint", cfg.Endpoint))
	return &MinIO{client: client, bucket: cfg.Bucket, now: time.Now}, nil
}

func (m *MinIO) Store(ctx context.Context, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer src.Close()

	ts := m.now()
	name := objectName(ts, file.Filename)
	for i := 0; i < 1000; i++ {
		_, err := m.client.StatObject(ctx, m.bucket, minioKeyPrefix+name, minio.StatObjectOptions{})
		if isNoSuchKey(err) {
			break
		}
		if err != nil {
			return "", errors.Wrapf(err, "stat %s", name)
		}
		ts = ts.Add(time.Millisecond)
		name = objectName(ts, file.Filename)
	}

	_, err = m.client.PutObject(ctx, m.bucket, minioKeyPrefix+name, src, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", errors.Wrapf(err, "upload %s", name)
	}

	logger.Info(ctx, "📁 Media stored in MinIO", zap.String("name", name), zap.Int64("size", file.Size))
	return URLPrefix + name, nil
}

func (m *MinIO) Remove(ctx context.Context, path string) error {
	name := nameFromPath(path)
	if name == "" {
		logger.Warn(ctx, "⚠️ Ignoring media path outside uploads", zap.String("path", path))
		return nil
	}
	err := m.client.RemoveObject(ctx, m.bucket, minioKeyPrefix+name, minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		return errors.Wrapf(err, "remove %s", name)
	}
	logger.Info(ctx, "🗑️ Media removed from MinIO", zap.String("name", name))
	return nil
}

func (m *MinIO) Open(ctx context.Context, name string) (*Object, error) {
	if !validName(name) {
		return nil, ErrNotExist
	}
	obj, err := m.client.GetObject(ctx, m.bucket, minioKeyPrefix+name, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", name)
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if isNoSuchKey(err) {
			return nil, ErrNotExist
		}
		return nil, errors.Wrapf(err, "stat %s", name)
	}
	return &Object{Body: obj, Size: info.Size, ContentType: contentType(name, info.ContentType)}, nil
}

func isNoSuchKey(err error) bool {
	return err != nil && minio.ToErrorResponse(err).Code == "NoSuchKey"
}
