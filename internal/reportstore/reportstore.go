// Package reportstore archives generated investor reports to Cloud Storage.
// Reports are only ever written; nothing is read back into a session.
package reportstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// ObjectWriter writes one object to a bucket. It enables testing the archive
// without Cloud Storage.
type ObjectWriter interface {
	WriteObject(ctx context.Context, bucket, object, contentType string, data []byte) error
}

// GCSWriter is the ObjectWriter backed by Google Cloud Storage.
type GCSWriter struct {
	client  *storage.Client
	timeout time.Duration
}

// NewGCSWriter creates a storage client. With an empty credentialsFile,
// Application Default Credentials are used.
func NewGCSWriter(ctx context.Context, credentialsFile string) (*GCSWriter, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewGCSWriter: create storage client: %w", err)
	}
	return &GCSWriter{client: client, timeout: 2 * time.Minute}, nil
}

// WriteObject implements ObjectWriter.
func (g *GCSWriter) WriteObject(ctx context.Context, bucket, object, contentType string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	w := g.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return fmt.Errorf("WriteObject: copy to GCS writer: %w", err)
	}

	// Close to finalize the upload
	if err := w.Close(); err != nil {
		return fmt.Errorf("WriteObject: finalize upload: %w", err)
	}
	return nil
}

// Close releases the storage client.
func (g *GCSWriter) Close() error {
	return g.client.Close()
}

// Archive stores reports under reports/<date>/<id>.txt in one bucket.
type Archive struct {
	writer ObjectWriter
	bucket string
	newID  func() string
}

// New creates an archive writing to bucket through w.
func New(w ObjectWriter, bucket string) *Archive {
	return &Archive{
		writer: w,
		bucket: bucket,
		newID:  uuid.NewString,
	}
}

// ObjectName is the object path of a report archived at the given time.
func ObjectName(at time.Time, id string) string {
	return fmt.Sprintf("reports/%s/%s.txt", civil.DateOf(at.UTC()), id)
}

// URI formats a gs:// URI.
func URI(bucket, object string) string {
	return "gs://" + bucket + "/" + object
}

// SplitURI splits a gs:// URI into bucket and object path.
func SplitURI(uri string) (bucket, object string, err error) {
	// uri example: gs://my-bucket/reports/2024-01-01/x.txt
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// Save writes report and returns its gs:// URI.
func (a *Archive) Save(ctx context.Context, report string, at time.Time) (string, error) {
	if strings.TrimSpace(report) == "" {
		return "", fmt.Errorf("Save: empty report")
	}
	object := ObjectName(at, a.newID())
	if err := a.writer.WriteObject(ctx, a.bucket, object, "text/plain; charset=utf-8", []byte(report)); err != nil {
		return "", fmt.Errorf("Save: %w", err)
	}
	return URI(a.bucket, object), nil
}
