// TradeWorks CLI - tiered estimate pricing for field-service trades.
//
// Usage:
//
//	tradeworks price --input estimate.json [--output text|json] [--narrate]
//	tradeworks pdf --input estimate.json --out estimate.pdf
//	tradeworks pricebook save --service-type electrical --input book.json
//	tradeworks pricebook snapshots --service-type electrical
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"tradeworks-estimate/db/clickhouse"
	"tradeworks-estimate/internal/estimation"
	"tradeworks-estimate/internal/llm"
	"tradeworks-estimate/internal/narrative"
	"tradeworks-estimate/internal/pricing"
	"tradeworks-estimate/pkg/api"
	"tradeworks-estimate/pkg/platform"
	"tradeworks-estimate/pkg/render"
)

// Exit codes for CI/script integration.
const (
	exitSuccess       = 0
	exitParseError    = 10
	exitPipelineError = 11
)

func main() {
	godotenv.Load()
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.App{
		Name:    "tradeworks",
		Usage:   "Tiered estimate pricing and narrative generation for field-service trades",
		Version: platform.Version,
		Commands: []*cli.Command{
			{
				Name:  "price",
				Usage: "Price a tiered estimate request file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Usage: "Path to estimate request JSON file", Required: true},
					&cli.StringFlag{Name: "output", Value: "text", Usage: "Output format: text, json"},
					&cli.BoolFlag{Name: "narrate", Usage: "Also generate the marketing narrative (requires OPENAI_API_KEY)"},
				},
				Action: runPrice,
			},
			{
				Name:  "pdf",
				Usage: "Render a priced estimate to PDF",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Usage: "Path to estimate request JSON file", Required: true},
					&cli.StringFlag{Name: "out", Value: "estimate.pdf", Usage: "Output PDF path"},
				},
				Action: runPDF,
			},
			{
				Name:  "pricebook",
				Usage: "Manage tenant price book snapshots (requires CLICKHOUSE_ADDR)",
				Subcommands: []*cli.Command{
					{
						Name:  "save",
						Usage: "Capture a price book file as the active snapshot for a service type",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "service-type", Usage: "Trade the book applies to (electrical, plumbing, ...)", Required: true},
							&cli.StringFlag{Name: "input", Usage: "Path to a JSON object of canonical key to unit price", Required: true},
							&cli.StringFlag{Name: "source", Value: "cli", Usage: "Provenance label stored with the snapshot"},
						},
						Action: runPricebookSave,
					},
					{
						Name:  "snapshots",
						Usage: "List price book snapshots for a service type, newest first",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "service-type", Usage: "Trade to list snapshots for", Required: true},
						},
						Action: runPricebookSnapshots,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(exitPipelineError)
	}
}

func loadRequest(path string) (api.PriceAndNarrateRequest, error) {
	var req api.PriceAndNarrateRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, err
	}
	return req, nil
}

func runPrice(c *cli.Context) error {
	req, err := loadRequest(c.String("input"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to read request: %v", err), exitParseError)
	}

	engine := estimation.NewEngine(pricing.NewResolver(nil))
	tiers, err := engine.Price(context.Background(), req)
	if err != nil {
		return cli.Exit(fmt.Sprintf("pricing failed: %v", err), exitPipelineError)
	}

	var narrativeText string
	if c.Bool("narrate") {
		client := llm.NewClient(platform.GetEnv("OPENAI_API_KEY", ""), platform.GetEnv("OPENAI_BASE_URL", ""))
		if !client.Configured() {
			return cli.Exit("OPENAI_API_KEY environment variable is required for --narrate", exitPipelineError)
		}
		narrativeText, err = narrative.NewGenerator(client).Generate(context.Background(), tiers, req.JobMeta)
		if err != nil {
			return cli.Exit(fmt.Sprintf("narrative generation failed: %v", err), exitPipelineError)
		}
	}

	switch c.String("output") {
	case "json":
		out, _ := json.MarshalIndent(api.PriceAndNarrateResponse{Narrative: narrativeText, PricedTiers: tiers}, "", "  ")
		fmt.Println(string(out))
	default:
		fmt.Println(narrative.SerializeTiers(tiers))
		if narrativeText != "" {
			fmt.Println()
			fmt.Println(narrativeText)
		}
	}
	return nil
}

// loadBook reads a price book file: a JSON object mapping canonical keys to
// positive unit prices.
func loadBook(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var book map[string]float64
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, err
	}
	if len(book) == 0 {
		return nil, fmt.Errorf("price book is empty")
	}
	for key, price := range book {
		if price <= 0 {
			return nil, fmt.Errorf("entry %q has non-positive price %v", key, price)
		}
	}
	return book, nil
}

func openBookStore() (*clickhouse.Store, error) {
	addr := platform.GetEnv("CLICKHOUSE_ADDR", "")
	if addr == "" {
		return nil, fmt.Errorf("CLICKHOUSE_ADDR environment variable is required")
	}
	cfg := clickhouse.DefaultConfig()
	cfg.Addr = addr
	cfg.Database = platform.GetEnv("CLICKHOUSE_DATABASE", cfg.Database)
	cfg.Username = platform.GetEnv("CLICKHOUSE_USERNAME", cfg.Username)
	cfg.Password = platform.GetEnv("CLICKHOUSE_PASSWORD", cfg.Password)
	return clickhouse.NewStore(cfg)
}

func runPricebookSave(c *cli.Context) error {
	book, err := loadBook(c.String("input"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to read price book: %v", err), exitParseError)
	}

	store, err := openBookStore()
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to connect to price book store: %v", err), exitPipelineError)
	}
	defer store.Close()

	serviceType := c.String("service-type")
	id, err := store.SavePriceBook(context.Background(), serviceType, c.String("source"), book)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to save price book: %v", err), exitPipelineError)
	}

	log.Info().Str("service_type", serviceType).Str("snapshot_id", id.String()).Int("entries", len(book)).Msg("price book snapshot saved")
	return nil
}

func runPricebookSnapshots(c *cli.Context) error {
	store, err := openBookStore()
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to connect to price book store: %v", err), exitPipelineError)
	}
	defer store.Close()

	serviceType := c.String("service-type")
	snapshots, err := store.ListSnapshots(context.Background(), serviceType)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to list snapshots: %v", err), exitPipelineError)
	}

	if len(snapshots) == 0 {
		fmt.Printf("no snapshots for %s\n", serviceType)
		return nil
	}
	for _, snap := range snapshots {
		active := " "
		if snap.IsActive {
			active = "*"
		}
		fmt.Printf("%s %s  %s  source=%s\n", active, snap.ID, snap.CreatedAt.Format("2006-01-02 15:04:05"), snap.Source)
	}
	return nil
}

func runPDF(c *cli.Context) error {
	req, err := loadRequest(c.String("input"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to read request: %v", err), exitParseError)
	}

	engine := estimation.NewEngine(pricing.NewResolver(nil))
	tiers, err := engine.Price(context.Background(), req)
	if err != nil {
		return cli.Exit(fmt.Sprintf("pricing failed: %v", err), exitPipelineError)
	}

	pdf, err := render.EstimatePDF(tiers, req.JobMeta, "")
	if err != nil {
		return cli.Exit(fmt.Sprintf("PDF rendering failed: %v", err), exitPipelineError)
	}

	out := c.String("out")
	if err := os.WriteFile(out, pdf, 0o644); err != nil {
		return cli.Exit(fmt.Sprintf("failed to write %s: %v", out, err), exitPipelineError)
	}
	log.Info().Str("path", out).Int("bytes", len(pdf)).Msg("estimate PDF written")
	return nil
}
