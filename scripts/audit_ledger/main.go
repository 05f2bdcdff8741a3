package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Reports every user whose stored balance differs from the sum of their
// ledger entries. Exits non-zero when any mismatch is found.
const auditQuery = `
SELECT u.id, u.email, u.wallet_balance, COALESCE(SUM(l.amount), 0) AS ledger_total
FROM users u
LEFT JOIN wallet_ledger l ON l.user_id = u.id
GROUP BY u.id, u.email, u.wallet_balance
HAVING u.wallet_balance <> COALESCE(SUM(l.amount), 0)
ORDER BY u.id`

func main() {
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

	rows, err := db.Query(auditQuery)
	if err != nil {
		log.Fatalf("Audit query failed: %v", err)
	}
	defer rows.Close()

	mismatches := 0
	for rows.Next() {
		var (
			id             int64
			email          string
			balance, total string
		)
		if err := rows.Scan(&id, &email, &balance, &total); err != nil {
			log.Fatalf("Failed to scan row: %v", err)
		}
		mismatches++
		fmt.Printf("user %d (%s): balance %s, ledger %s\n", id, email, balance, total)
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("Row iteration failed: %v", err)
	}

	if mismatches > 0 {
		log.Printf("%d users out of balance", mismatches)
		os.Exit(1)
	}
	log.Println("All balances match the ledger")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
