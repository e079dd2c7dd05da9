package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/chatverse/auth-service/config"
	"github.com/chatverse/auth-service/pkg/helpers"
)

// Seeds a verified local admin for development environments.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "admin@chatverse.local"
	password := "password123"
	fullname := "Local Admin"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (fullname, email, password_hash, role, is_verified)
		VALUES ($1, $2, $3, 'admin', TRUE)
		ON CONFLICT ((lower(email))) DO UPDATE SET fullname = EXCLUDED.fullname, updated_at = now()
		RETURNING id
	`, fullname, email, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s password=%s\n", id, email, password)
}
