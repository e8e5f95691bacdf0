// Package main runs the TradeWorks estimate API server.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tradeworks-estimate/api"
	"tradeworks-estimate/db/clickhouse"
	"tradeworks-estimate/db/postgres"
	"tradeworks-estimate/internal/llm"
	"tradeworks-estimate/pkg/platform"
)

func main() {
	godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	llmClient := llm.NewClient(platform.GetEnv("OPENAI_API_KEY", ""), platform.GetEnv("OPENAI_BASE_URL", ""))
	if !llmClient.Configured() {
		log.Warn().Msg("OPENAI_API_KEY not set; narrative and analysis endpoints will fail")
	}

	var books *clickhouse.Store
	if addr := platform.GetEnv("CLICKHOUSE_ADDR", ""); addr != "" {
		cfg := clickhouse.DefaultConfig()
		cfg.Addr = addr
		cfg.Database = platform.GetEnv("CLICKHOUSE_DATABASE", cfg.Database)
		cfg.Username = platform.GetEnv("CLICKHOUSE_USERNAME", cfg.Username)
		cfg.Password = platform.GetEnv("CLICKHOUSE_PASSWORD", cfg.Password)
		cfg.Debug = platform.GetEnvBool("CLICKHOUSE_DEBUG", false)

		var err error
		books, err = clickhouse.NewStore(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to price book store")
		}
		defer books.Close()
		log.Info().Str("addr", addr).Msg("price book store connected")
	}

	var archive *postgres.Archive
	if dsn := platform.GetEnv("DATABASE_URL", ""); dsn != "" {
		var err error
		archive, err = postgres.Open(dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open analysis archive")
		}
		defer archive.Close()
		log.Info().Msg("analysis archive connected")
	}

	cfg := api.DefaultConfig()
	cfg.Port = platform.GetEnvInt("PORT", cfg.Port)

	server := api.NewServer(llmClient, books, archive, cfg)
	if err := server.StartWithGracefulShutdown(); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
