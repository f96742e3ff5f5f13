package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/itspaulthegreat/ai-customer-service-bot/internal/logger"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/memory"
)

const transcriptPrefix = "transcripts/"

// Client writes expired transcripts to a MinIO bucket
type Client struct {
	mc     *minio.Client
	bucket string
}

// Config holds MinIO connection settings
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
}

func NewClient(cfg Config) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "transcripts"
	}

	return &Client{mc: mc, bucket: bucket}, nil
}

// Init creates the bucket if it doesn't exist
func (c *Client) Init(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", c.bucket, err)
	}

	if !exists {
		if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", c.bucket, err)
		}
		logger.Info("bucket created", "bucket", c.bucket)
	}

	return nil
}

// Archive uploads one JSON object per transcript. Object names are
// derived from the session and its last activity, so a retried batch
// overwrites rather than duplicates.
func (c *Client) Archive(ctx context.Context, transcripts []memory.Transcript) error {
	for _, t := range transcripts {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode %s: %w", t.Key, err)
		}

		if err := c.upload(ctx, objectName(t), data); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) upload(ctx context.Context, name string, data []byte) error {
	_, err := c.mc.PutObject(ctx, c.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("upload %s/%s: %w", c.bucket, name, err)
	}

	logger.Debug("transcript uploaded", "bucket", c.bucket, "name", name, "size", len(data))
	return nil
}

func (c *Client) Bucket() string {
	return c.bucket
}

// Healthy checks if MinIO is reachable
func (c *Client) Healthy(ctx context.Context) bool {
	_, err := c.mc.BucketExists(ctx, c.bucket)
	return err == nil
}

func objectPrefix(key string) string {
	return transcriptPrefix + strings.ReplaceAll(key, "/", "_") + "/"
}

// objectName maps a transcript to transcripts/<session key>/<unix nanos>.json.
func objectName(t memory.Transcript) string {
	return fmt.Sprintf("%s%d.json", objectPrefix(t.Key), t.LastActivity.UnixNano())
}
