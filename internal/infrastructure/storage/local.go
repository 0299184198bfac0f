package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhoicas/facturador-afip/internal/domain"
)

// LocalStore implementa ObjectStore sobre un directorio. Pensado para
// desarrollo y tests; los objetos "públicos" se sirven bajo baseURL.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore crea root si no existe.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("local store: directorio requerido")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("local store: %w", err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root directorio base de los objetos.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) file(objectPath string) (string, error) {
	p, err := cleanPath(objectPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(p)), nil
}

func (s *LocalStore) Read(_ context.Context, objectPath string) ([]byte, error) {
	f, err := s.file(objectPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("local store: %s: %w", objectPath, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("local store: leer %s: %w", objectPath, err)
	}
	return data, nil
}

func (s *LocalStore) Upload(_ context.Context, objectPath string, data []byte, _ string) error {
	f, err := s.file(objectPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f), 0o755); err != nil {
		return fmt.Errorf("local store: %w", err)
	}
	if err := os.WriteFile(f, data, 0o644); err != nil {
		return fmt.Errorf("local store: escribir %s: %w", objectPath, err)
	}
	return nil
}

// MakePublic solo verifica que el objeto exista.
func (s *LocalStore) MakePublic(_ context.Context, objectPath string) error {
	f, err := s.file(objectPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(f); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("local store: %s: %w", objectPath, domain.ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *LocalStore) PublicURL(objectPath string) string {
	p, err := cleanPath(objectPath)
	if err != nil {
		return ""
	}
	return s.baseURL + "/" + p
}
