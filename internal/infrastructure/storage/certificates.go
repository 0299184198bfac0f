package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jhoicas/facturador-afip/internal/domain"
	"github.com/jhoicas/facturador-afip/internal/infrastructure/afip/signer"
)

// CertificateLoader lee el certificado y la clave de AFIP desde el store en
// cada login, así un certificado renovado se toma sin reiniciar el servicio.
type CertificateLoader struct {
	Store    ObjectStore
	CertPath string // .pem/.crt o .p12/.pfx
	KeyPath  string // vacío para .p12 o PEM combinado
	Password string // solo .p12
}

func (l *CertificateLoader) LoadKeyPair(ctx context.Context) (tls.Certificate, error) {
	if l.Store == nil || strings.TrimSpace(l.CertPath) == "" {
		return tls.Certificate{}, fmt.Errorf("certificado AFIP no configurado: %w", domain.ErrInvalidInput)
	}
	certData, err := l.Store.Read(ctx, l.CertPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("leer certificado: %w", err)
	}
	var keyData []byte
	if l.KeyPath != "" {
		keyData, err = l.Store.Read(ctx, l.KeyPath)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("leer clave privada: %w", err)
		}
	}
	return signer.Load(l.CertPath, certData, keyData, l.Password)
}

// LocalCertificateLoader lee el certificado desde el disco. Las rutas
// relativas se resuelven contra el directorio de trabajo.
func LocalCertificateLoader(certPath, keyPath, password string) (*CertificateLoader, error) {
	if strings.TrimSpace(certPath) == "" {
		return nil, fmt.Errorf("AFIP_CERT_PATH vacío: %w", domain.ErrInvalidInput)
	}
	root, err := NewLocalStore(string(filepath.Separator), "")
	if err != nil {
		return nil, err
	}
	l := &CertificateLoader{Store: root, Password: password}
	if l.CertPath, err = filepath.Abs(certPath); err != nil {
		return nil, err
	}
	if keyPath != "" {
		if l.KeyPath, err = filepath.Abs(keyPath); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// CertificateLoaderFor elige el origen del certificado según AFIP_CERT_SOURCE:
// "gcs" lo lee de store; cualquier otro valor, del disco.
func CertificateLoaderFor(source string, store ObjectStore, certPath, keyPath, password string) (*CertificateLoader, error) {
	if source == "gcs" {
		return &CertificateLoader{Store: store, CertPath: certPath, KeyPath: keyPath, Password: password}, nil
	}
	return LocalCertificateLoader(certPath, keyPath, password)
}
