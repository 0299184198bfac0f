// certcheck verifica el certificado AFIP configurado: lo carga (PEM o .p12),
// muestra sujeto y vencimiento y, con -login, pide un Ticket de Acceso a WSAA.
//
// Uso: go run ./cmd/certcheck [-login] [-dummy]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/facturador-afip/internal/domain"
	infraafip "github.com/jhoicas/facturador-afip/internal/infrastructure/afip"
	"github.com/jhoicas/facturador-afip/internal/infrastructure/afip/signer"
	"github.com/jhoicas/facturador-afip/internal/infrastructure/storage"
	pkgafip "github.com/jhoicas/facturador-afip/pkg/afip"
	"github.com/jhoicas/facturador-afip/pkg/config"
	"github.com/jhoicas/facturador-afip/pkg/logger"
)

func main() {
	doLogin := flag.Bool("login", false, "pedir un TA a WSAA con el certificado")
	doDummy := flag.Bool("dummy", false, "consultar FEDummy de WSFE")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fail("configuración", err)
	}
	log := logger.New(logger.Config{Env: "development", Level: cfg.Log.Level})

	fmt.Println("🔍 DIAGNÓSTICO DE CERTIFICADO AFIP")
	fmt.Println("----------------------------------")
	fmt.Printf("🌎 Ambiente: %s | CUIT: %s | Origen: %s\n", cfg.AFIP.Env, cfg.AFIP.CUIT, cfg.AFIP.CertSource)
	fmt.Printf("📂 Certificado: %s\n", cfg.AFIP.CertPath)
	if cfg.AFIP.KeyPath != "" {
		fmt.Printf("🔑 Clave privada: %s\n", cfg.AFIP.KeyPath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, closeStore, err := storage.Open(ctx, storage.Options{
		Driver:          cfg.Storage.Driver,
		Bucket:          cfg.Storage.Bucket,
		LocalDir:        cfg.Storage.LocalDir,
		CredentialsFile: cfg.Storage.CredentialsFile,
	})
	if err != nil {
		fail("object storage", err)
	}
	defer closeStore()

	loader, err := storage.CertificateLoaderFor(cfg.AFIP.CertSource, store, cfg.AFIP.CertPath, cfg.AFIP.KeyPath, cfg.AFIP.CertPassword)
	if err != nil {
		fail("certificado", err)
	}
	cert, err := loader.LoadKeyPair(ctx)
	if err != nil {
		fail("certificado o contraseña", err)
	}
	leaf := cert.Leaf
	fmt.Println("\n✅ Certificado y clave cargados.")
	fmt.Printf("   Sujeto:      %s\n", leaf.Subject.String())
	fmt.Printf("   Emisor:      %s\n", leaf.Issuer.String())
	fmt.Printf("   Vigencia:    %s → %s\n", leaf.NotBefore.Format(time.DateOnly), leaf.NotAfter.Format(time.DateOnly))
	fmt.Printf("   SHA-256:     %s\n", signer.Fingerprint(leaf))
	if left := time.Until(leaf.NotAfter); left < 30*24*time.Hour {
		fmt.Printf("   ⚠️  Vence en %d días.\n", int(left.Hours()/24))
	}

	endpoints, err := pkgafip.EndpointsFor(cfg.AFIP.Env)
	if err != nil {
		fail("endpoints", err)
	}

	if *doLogin {
		fmt.Printf("\n🔐 Login en WSAA (%s)...\n", endpoints.WSAA)
		wsaa := infraafip.NewWSAAClient(infraafip.WSAAConfig{
			URL:     endpoints.WSAA,
			Service: cfg.AFIP.Service,
			TTL:     time.Duration(cfg.AFIP.TRATTL) * time.Minute,
		}, loader, nil, log.Component("wsaa"))
		ta, err := wsaa.Login(ctx)
		switch {
		case errors.Is(err, domain.ErrTicketStillValid):
			fmt.Println("   ⏳ WSAA ya tiene un TA vigente para este certificado: el certificado es válido.")
		case err != nil:
			fail("login WSAA", err)
		default:
			fmt.Printf("   ✅ TA obtenido. Vence: %s\n", ta.ExpirationTime.Format(time.RFC3339))
		}
	}

	if *doDummy {
		fmt.Printf("\n📡 FEDummy (%s)...\n", endpoints.WSFE)
		wsfe := infraafip.NewWSFEClient(endpoints.WSFE, cfg.AFIP.CUITNumber(), nil, log.Component("wsfe"))
		st, err := wsfe.Dummy(ctx)
		if err != nil {
			fail("FEDummy", err)
		}
		fmt.Printf("   AppServer=%s DbServer=%s AuthServer=%s\n", st.AppServer, st.DbServer, st.AuthServer)
	}

	fmt.Println("\n✨ Listo.")
}

func fail(step string, err error) {
	fmt.Fprintf(os.Stderr, "\n❌ ERROR (%s): %v\n", step, err)
	os.Exit(1)
}
