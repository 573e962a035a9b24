package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/pageza/pantry-chef/backend/config"
	"github.com/pageza/pantry-chef/backend/internal/database"
	"github.com/pageza/pantry-chef/backend/internal/logger"
	"github.com/pageza/pantry-chef/backend/internal/service"
)

func main() {
	cmd := &cli.Command{
		Name:  "seed_ingredients",
		Usage: "Load a YAML ingredient catalog into the database",
		Description: `Reads a catalog file of the form

  ingredients:
    - name: egg
      category: protein
      nutrition: {calories: 72, protein: 6.3}

and inserts every entry, refreshing entries whose name already exists.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Value:   "data/ingredients.yaml",
				Usage:   "Path to the catalog file",
			},
			&cli.BoolFlag{
				Name:  "migrate",
				Value: true,
				Usage: "Run schema migrations before seeding",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Validate the file without touching the database",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file before reading configuration",
			},
		},
		Action: seed,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, cmd *cli.Command) error {
	f, err := os.Open(cmd.String("file"))
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	ingredients, err := service.LoadCatalogYAML(f)
	if err != nil {
		return err
	}
	if cmd.Bool("dry-run") {
		fmt.Printf("%s: %d ingredients OK\n", cmd.String("file"), len(ingredients))
		return nil
	}

	if path := cmd.String("env-file"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer func() { _ = log.Sync() }()

	db, err := database.New(cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.Bool("migrate") {
		if err := database.RunMigrations(db.DB, log); err != nil {
			return err
		}
	}

	n, err := service.NewCatalogService(db.DB).UpsertIngredients(ctx, ingredients)
	if err != nil {
		return fmt.Errorf("failed to seed ingredients: %w", err)
	}
	log.Info("ingredient catalog seeded",
		zap.String("file", cmd.String("file")),
		zap.Int("entries", len(ingredients)),
		zap.Int64("rows", n),
	)
	return nil
}
