package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"weeklybloom/internal/ops"
)

func main() {
	app := &cli.Command{
		Name:  "weeklybloom-ops",
		Usage: "Operational tooling for the weeklybloom data directory",
		Commands: []*cli.Command{
			{
				Name:  "backup",
				Usage: "archive the data blobs to a tar.gz",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data-dir",
						Usage:   "path to data directory",
						Sources: cli.EnvVars("WEEKLYBLOOM_DATA_DIR"),
						Value:   "data",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "output archive path (.tar.gz)",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					out := c.String("out")
					if out == "" {
						out = filepath.Join("backups", ops.DefaultArchiveName(time.Now()))
					}
					if err := ops.BackupDataDir(c.String("data-dir"), out); err != nil {
						return err
					}
					fmt.Println(out)
					return nil
				},
			},
			{
				Name:  "restore",
				Usage: "restore a backup archive into a directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "archive",
						Usage:    "input backup archive (.tar.gz)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "target-dir",
						Usage: "restore target directory",
						Value: "data-restored",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ops.RestoreDataDir(c.String("archive"), c.String("target-dir"))
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
