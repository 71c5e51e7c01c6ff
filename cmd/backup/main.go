// cmd/backup/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/semmidev/mongobak/internal/app"
	"github.com/semmidev/mongobak/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func run() error {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single backup and print the result")
	check := flag.Bool("check", false, "test MongoDB and S3 connectivity and exit")
	stats := flag.Bool("stats", false, "print database statistics and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer application.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case *check:
		results := application.Check(ctx)
		if err := printJSON(results); err != nil {
			return err
		}
		for name, ok := range results {
			if !ok {
				return fmt.Errorf("%s is unreachable", name)
			}
		}
		return nil

	case *stats:
		report, err := application.Stats(ctx)
		if err != nil {
			return fmt.Errorf("database stats: %w", err)
		}
		return printJSON(report)

	case *once:
		result, err := application.RunOnce(ctx)
		if err != nil {
			return fmt.Errorf("backup: %w", err)
		}
		return printJSON(result)
	}

	return application.Run(ctx)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
