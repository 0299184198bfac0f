package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/jhoicas/facturador-afip/internal/domain"
)

// GCSStore implementa ObjectStore sobre un bucket de Google Cloud Storage.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore crea el cliente. Sin credentialsFile se usan las Application
// Default Credentials del entorno.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs: bucket requerido")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: new storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Close libera el cliente.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) object(objectPath string) (*gcs.ObjectHandle, string, error) {
	p, err := cleanPath(objectPath)
	if err != nil {
		return nil, "", err
	}
	return s.client.Bucket(s.bucket).Object(p), p, nil
}

func (s *GCSStore) Read(ctx context.Context, objectPath string) ([]byte, error) {
	obj, p, err := s.object(objectPath)
	if err != nil {
		return nil, err
	}
	r, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("gcs: %s/%s: %w", s.bucket, p, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("gcs: leer %s/%s: %w", s.bucket, p, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gcs: leer %s/%s: %w", s.bucket, p, err)
	}
	return data, nil
}

func (s *GCSStore) Upload(ctx context.Context, objectPath string, data []byte, contentType string) error {
	obj, p, err := s.object(objectPath)
	if err != nil {
		return err
	}
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs: subir %s/%s: %w", s.bucket, p, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs: subir %s/%s: %w", s.bucket, p, err)
	}
	return nil
}

// MakePublic otorga lectura a allUsers (requiere bucket sin uniform access).
func (s *GCSStore) MakePublic(ctx context.Context, objectPath string) error {
	obj, p, err := s.object(objectPath)
	if err != nil {
		return err
	}
	if err := obj.ACL().Set(ctx, gcs.AllUsers, gcs.RoleReader); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return fmt.Errorf("gcs: %s/%s: %w", s.bucket, p, domain.ErrNotFound)
		}
		return fmt.Errorf("gcs: hacer público %s/%s: %w", s.bucket, p, err)
	}
	return nil
}

func (s *GCSStore) PublicURL(objectPath string) string {
	p, err := cleanPath(objectPath)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, (&url.URL{Path: p}).EscapedPath())
}
