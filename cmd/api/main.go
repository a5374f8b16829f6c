package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "storefront",
		Usage: "storefront API server and maintenance commands",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply the database schema and exit",
				Action: migrate,
			},
			{
				Name:      "import-vouchers",
				Usage:     "create vouchers from a gzip-compressed JSON lines file",
				ArgsUsage: "<path>",
				Description: "The path is read from S3 when S3_ENABLED is set, with the local " +
					"file system as fallback. Existing codes are skipped.",
				Action: importVouchers,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
