// Package storage uploads book cover images to a Cloud Storage bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const coverPrefix = "covers"

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type CoverStore struct {
	client *storage.Client
	bucket string
	newID  func() string
}

// NewCoverStore uses credentialsFile when set, application default credentials otherwise.
func NewCoverStore(ctx context.Context, bucket, credentialsFile string) (*CoverStore, error) {
	var (
		creds *google.Credentials
		err   error
	)
	if credentialsFile != "" {
		data, rerr := os.ReadFile(credentialsFile)
		if rerr != nil {
			return nil, fmt.Errorf("read credentials: %w", rerr)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, storage.ScopeReadWrite)
	} else {
		creds, err = google.FindDefaultCredentials(ctx, storage.ScopeReadWrite)
	}
	if err != nil {
		return nil, fmt.Errorf("storage credentials: %w", err)
	}
	client, err := storage.NewClient(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, err
	}
	return &CoverStore{client: client, bucket: bucket, newID: uuid.NewString}, nil
}

// UploadCover writes the image under covers/<bookID>/ with a Firebase download
// token so the returned URL is readable without signing.
func (s *CoverStore) UploadCover(ctx context.Context, bookID, contentType string, r io.Reader) (string, error) {
	token := s.newID()
	objectPath := ObjectPath(bookID, token, contentType)

	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return DownloadURL(s.bucket, objectPath, token), nil
}

func (s *CoverStore) Close() error {
	return s.client.Close()
}

func ObjectPath(bookID, token, contentType string) string {
	ext, ok := extensions[contentType]
	if !ok {
		ext = ".img"
	}
	return path.Join(coverPrefix, bookID, token+ext)
}

func DownloadURL(bucket, objectPath, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(objectPath), token)
}
