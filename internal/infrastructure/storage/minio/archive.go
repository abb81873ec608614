// Package minio archives raw provider payloads to object storage so any
// assessment can be replayed against the exact inputs it was built from.
package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/propshield/climarisk/internal/domain/risk"
	"github.com/propshield/climarisk/internal/infrastructure/monitoring/logging"
	"github.com/propshield/climarisk/pkg/errors"
)

var ErrUploadFailed = errors.New(errors.ErrCodeArchiveFailed, "payload upload failed")

// Config holds the object storage connection settings.
type Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
}

// PayloadArchive stores one JSON bundle per aggregation call.  Keys follow
// payloads/<propertyID>/<date>/<requestID>.json so archives for a property
// list chronologically.
type PayloadArchive struct {
	client *minio.Client
	bucket string
	logger logging.Logger
}

// archiveDocument is the stored representation of one payload bundle.
type archiveDocument struct {
	PropertyID string                           `json:"property_id"`
	RequestID  string                           `json:"request_id"`
	ArchivedAt time.Time                        `json:"archived_at"`
	Payloads   map[string]risk.RawSourcePayload `json:"payloads"`
}

// NewPayloadArchive connects to object storage and ensures the bucket
// exists.
func NewPayloadArchive(ctx context.Context, cfg Config, log logging.Logger) (*PayloadArchive, error) {
	if cfg.Bucket == "" {
		cfg.Bucket = "climarisk-payloads"
	}
	if log == nil {
		log = logging.NewNop()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create minio client")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to connect to minio")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create bucket")
		}
	}

	log.Info("payload archive ready",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
	)
	return &PayloadArchive{client: client, bucket: cfg.Bucket, logger: log.Named("archive")}, nil
}

// ArchivePayloads uploads the raw payload bundle for one aggregation call.
func (a *PayloadArchive) ArchivePayloads(ctx context.Context, propertyID, requestID string, payloads map[string]risk.RawSourcePayload) error {
	doc := archiveDocument{
		PropertyID: propertyID,
		RequestID:  requestID,
		ArchivedAt: time.Now().UTC(),
		Payloads:   payloads,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode payload bundle")
	}

	key := objectKey(propertyID, requestID, doc.ArchivedAt)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
		UserMetadata: map[string]string{
			"property-id": propertyID,
			"request-id":  requestID,
		},
	})
	if err != nil {
		a.logger.Error("payload upload failed",
			logging.String("key", key),
			logging.Err(err),
		)
		return ErrUploadFailed.WithCause(err)
	}
	return nil
}

// FetchArchive loads a previously archived bundle by its object key.
func (a *PayloadArchive) FetchArchive(ctx context.Context, key string) (map[string]risk.RawSourcePayload, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeArchiveFailed, "failed to fetch archive")
	}
	defer obj.Close()

	var doc archiveDocument
	if err := json.NewDecoder(obj).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode archive")
	}
	return doc.Payloads, nil
}

func objectKey(propertyID, requestID string, at time.Time) string {
	return fmt.Sprintf("payloads/%s/%s/%s.json", propertyID, at.Format("2006-01-02"), requestID)
}
