package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/devconnector/internal/config"
	"github.com/khoahotran/devconnector/pkg/auth"
)

// Seeds a development account and prints a bearer token for it. Accounts are normally
// created by the identity service.
func main() {
	fmt.Println("adding user into database...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	name := os.Getenv("SEED_USER_NAME")
	email := os.Getenv("SEED_USER_EMAIL")
	avatar := os.Getenv("SEED_USER_AVATAR")
	if name == "" || email == "" {
		log.Fatalf("SEED_USER_NAME and SEED_USER_EMAIL are required")
	}

	pool, err := pgxpool.New(context.Background(), cfg.DB.DSN)
	if err != nil {
		log.Fatalf("cannot connect DB: %v", err)
	}
	defer pool.Close()

	query := `
		INSERT INTO users (id, name, email, avatar, password_hash, is_active)
		VALUES ($1, $2, $3, $4, '', TRUE)
		ON CONFLICT (email) DO UPDATE SET name = $2, avatar = $4
		RETURNING id
	`
	var id uuid.UUID
	if err := pool.QueryRow(context.Background(), query, uuid.New(), name, email, avatar).Scan(&id); err != nil {
		log.Fatalf("cannot add user: %v", err)
	}

	token, err := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan).GenerateToken(id)
	if err != nil {
		log.Fatalf("cannot sign token: %v", err)
	}

	fmt.Printf("added or updated user '%s' (%s)\n", email, id)
	fmt.Printf("Authorization: Bearer %s\n", token)
}
