package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Usage: go run ./scripts/make_admin user@example.com
func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <email>", os.Args[0])
	}
	email := strings.ToLower(strings.TrimSpace(os.Args[1]))

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"), getEnv("DB_PORT", "5432"), getEnv("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"), getEnv("DB_NAME", "cricket_app"), getEnv("DB_SSLMODE", "disable"))

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	res, err := db.Exec(`UPDATE users SET role = 'admin', updated_at = NOW() WHERE email = $1`, email)
	if err != nil {
		log.Fatalf("Failed to update role: %v", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		log.Fatalf("No user with email %s", email)
	}

	log.Printf("%s is now an admin", email)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
