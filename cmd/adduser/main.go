// adduser da de alta un usuario del backoffice directamente en la base.
// Sirve para crear el primer admin, ya que /api/auth/register exige uno.
//
// Uso: go run ./cmd/adduser -email admin@tienda.com.ar -password ******** [-name Nombre] [-role admin|operador]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/facturador-afip/internal/application/auth"
	"github.com/jhoicas/facturador-afip/internal/application/dto"
	"github.com/jhoicas/facturador-afip/internal/domain/entity"
	"github.com/jhoicas/facturador-afip/internal/infrastructure/postgres"
	"github.com/jhoicas/facturador-afip/pkg/config"
)

func main() {
	email := flag.String("email", "", "email del usuario")
	password := flag.String("password", "", "contraseña (mínimo 8 caracteres)")
	name := flag.String("name", "", "nombre visible")
	role := flag.String("role", entity.RoleAdmin, "admin | operador")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "Esquema: %v\n", err)
		os.Exit(1)
	}

	uc := auth.NewAuthUseCase(postgres.NewUserRepository(pool), auth.JWTConfig{})
	user, err := uc.RegisterUser(dto.RegisterRequest{
		Email:    *email,
		Password: *password,
		Name:     *name,
		Role:     *role,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Alta de usuario: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Usuario creado: %s (%s) id=%s\n", user.Email, user.Role, user.ID)
}
