package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/DavideMichelon10/chess-data/internal/platform/logger"
)

type BucketCategory string

const (
	// BucketCategoryStaging holds the per-(player, day) CSV batches awaiting
	// a warehouse load.
	BucketCategoryStaging BucketCategory = "staging"
	// BucketCategoryAvatar holds downloaded profile avatars.
	BucketCategoryAvatar BucketCategory = "avatar"
)

// BucketService is the object-storage surface shared by the staging writer
// and the avatar side-fetch.
type BucketService interface {
	Upload(ctx context.Context, category BucketCategory, key string, data []byte, contentType string) error
	Exists(ctx context.Context, category BucketCategory, key string) (bool, error)
	ListKeys(ctx context.Context, category BucketCategory, prefix string) ([]string, error)
	DeletePrefix(ctx context.Context, category BucketCategory, prefix string) error
	ObjectURI(category BucketCategory, key string) string
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	buckets       map[BucketCategory]string
}

func NewBucketService(ctx context.Context, log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")

	stagingBucket := os.Getenv("STAGING_GCS_BUCKET_NAME")
	avatarBucket := os.Getenv("AVATAR_GCS_BUCKET_NAME")
	if stagingBucket == "" {
		return nil, fmt.Errorf("missing env var STAGING_GCS_BUCKET_NAME")
	}
	if avatarBucket == "" {
		return nil, fmt.Errorf("missing env var AVATAR_GCS_BUCKET_NAME")
	}

	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	stClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		buckets: map[BucketCategory]string{
			BucketCategoryStaging: stagingBucket,
			BucketCategoryAvatar:  avatarBucket,
		},
	}, nil
}

func (bs *bucketService) bucketName(category BucketCategory) (string, error) {
	name, ok := bs.buckets[category]
	if !ok {
		return "", fmt.Errorf("unknown bucket category: %s", category)
	}
	return name, nil
}

func (bs *bucketService) Upload(ctx context.Context, category BucketCategory, key string, data []byte, contentType string) error {
	name, err := bs.bucketName(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(name).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object %q to GCS: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for %q: %w", key, err)
	}
	return nil
}

func (bs *bucketService) Exists(ctx context.Context, category BucketCategory, key string) (bool, error) {
	name, err := bs.bucketName(category)
	if err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err = bs.storageClient.Bucket(name).Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat GCS object %q: %w", key, err)
	}
	return true, nil
}

func (bs *bucketService) ListKeys(ctx context.Context, category BucketCategory, prefix string) ([]string, error) {
	name, err := bs.bucketName(category)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	it := bs.storageClient.Bucket(name).Objects(ctx, &storage.Query{Prefix: prefix})
	out := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (bs *bucketService) DeletePrefix(ctx context.Context, category BucketCategory, prefix string) error {
	name, err := bs.bucketName(category)
	if err != nil {
		return err
	}
	keys, err := bs.ListKeys(ctx, category, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		delCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := bs.storageClient.Bucket(name).Object(k).Delete(delCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to delete GCS object %q: %w", k, err)
		}
	}
	return nil
}

func (bs *bucketService) ObjectURI(category BucketCategory, key string) string {
	name, err := bs.bucketName(category)
	if err != nil {
		return key
	}
	return fmt.Sprintf("gs://%s/%s", name, key)
}
