// File: cmd/migrate/main.go
// Creates the database schema. Idempotent, safe to run on every deploy.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"telegram-hosting-bot/internal/config"
	pg "telegram-hosting-bot/internal/infra/db/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id              UUID PRIMARY KEY,
    telegram_id     BIGINT NOT NULL UNIQUE,
    username        TEXT NOT NULL DEFAULT '',
    registered_at   TIMESTAMPTZ NOT NULL,
    last_active_at  TIMESTAMPTZ NOT NULL,
    is_admin        BOOLEAN NOT NULL DEFAULT FALSE,
    file_count      INT NOT NULL DEFAULT 0,
    referrals       BIGINT[] NOT NULL DEFAULT '{}',
    base_limit      INT NOT NULL DEFAULT 2,
    referral_reward INT NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS banned_users (
    telegram_id BIGINT PRIMARY KEY,
    banned_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS daily_usage (
    day         DATE NOT NULL,
    telegram_id BIGINT NOT NULL,
    PRIMARY KEY (day, telegram_id)
);
`

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 2)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("apply schema: %v", err)
	}
	fmt.Println("✅ Schema is up to date.")
}
