// Package storage guarda y lee objetos (certificados AFIP, PDFs de facturas)
// en Google Cloud Storage o en disco local.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// ObjectStore operaciones mínimas sobre un bucket de objetos.
type ObjectStore interface {
	Read(ctx context.Context, objectPath string) ([]byte, error)
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) error
	MakePublic(ctx context.Context, objectPath string) error
	PublicURL(objectPath string) string
}

// cleanPath normaliza la ruta del objeto y rechaza rutas que escapan del bucket.
func cleanPath(objectPath string) (string, error) {
	p := strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(objectPath)), "/")
	if p == "" || p == "." {
		return "", fmt.Errorf("storage: ruta de objeto vacía")
	}
	return p, nil
}

// Options backend de objetos: "local" (directorio) o "gcs" (bucket).
type Options struct {
	Driver          string
	Bucket          string
	LocalDir        string
	PublicBaseURL   string
	CredentialsFile string
}

// Open construye el store indicado. El close devuelto libera el cliente de GCS.
func Open(ctx context.Context, opts Options) (ObjectStore, func() error, error) {
	switch opts.Driver {
	case "gcs":
		s, err := NewGCSStore(ctx, opts.Bucket, opts.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "local", "":
		s, err := NewLocalStore(opts.LocalDir, opts.PublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("storage: driver desconocido %q", opts.Driver)
	}
}
