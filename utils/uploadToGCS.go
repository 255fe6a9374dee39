package utils

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// getGoogleClient initializes a Google Cloud Storage client.
// Prefers ADC (service account / GOOGLE_APPLICATION_CREDENTIALS); explicit
// JSON can be supplied via GCS_CREDENTIALS_JSON for local development.
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		client, err := storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// WriteObjectToGCS stores raw bytes under objectKey.
func WriteObjectToGCS(ctx context.Context, objectKey string, data []byte, contentType string) error {
	bucketName := os.Getenv("GCS_BUCKET")
	if bucketName == "" {
		return errors.New("GCS_BUCKET is required")
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	w := client.Bucket(bucketName).Object(objectKey).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// DeleteObjectFromGCS removes an object; a missing object is not an error.
func DeleteObjectFromGCS(ctx context.Context, objectKey string) error {
	bucketName := os.Getenv("GCS_BUCKET")
	if bucketName == "" {
		return errors.New("GCS_BUCKET is required")
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	err = client.Bucket(bucketName).Object(objectKey).Delete(ctx)
	if err == storage.ErrObjectNotExist {
		return nil
	}
	return err
}
