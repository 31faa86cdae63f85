package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	mongoMigration "tablebook/internal/migrations/mongo"
	"tablebook/pkg/config"
)

const JobName = "mongo-migration"

func main() {
	cfg := config.Load(JobName)

	app := &cli.App{
		Name:  "migrate",
		Usage: "prepare the tablebook Mongo database",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 120 * time.Second,
				Usage: "overall deadline for the job",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "create collections, schema validators and indexes",
				Action: func(c *cli.Context) error {
					ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
					defer cancel()

					cfg.SetMongo()
					defer cfg.GracefulShutdown()

					db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
					return mongoMigration.RunMigration(ctx, db, cfg.Log)
				},
			},
			{
				Name:  "seed",
				Usage: "upsert tables, menu items and business hours from a JSON file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "path to the seed JSON document",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					f, err := os.Open(c.String("file"))
					if err != nil {
						return fmt.Errorf("failed to open seed file: %w", err)
					}
					defer f.Close()

					data, err := mongoMigration.DecodeSeed(f)
					if err != nil {
						return err
					}

					ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
					defer cancel()

					cfg.SetMongo()
					defer cfg.GracefulShutdown()

					db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
					_, err = mongoMigration.Seed(ctx, db, data, cfg.Log)
					return err
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}
	cfg.Log.Info("Migration completed successfully")
}
