package main

import (
	"errors"
	"fmt"

	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/voucher"

	"github.com/urfave/cli/v2"
)

func importVouchers(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("a voucher file path is required")
	}

	cfg, logger, pool, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Initialize voucher loader with S3 and local fallback
	fileLoader := voucher.NewFileLoader(logger)
	var s3Loader voucher.Loader
	if cfg.S3.Enabled {
		s3Loader, err = voucher.NewS3Loader(c.Context, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		}
	}
	loader := voucher.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, s3Loader != nil, logger)

	repo := repository.NewVoucherRepository(pool, logger)
	vouchers := service.NewVoucherService(repo, voucher.NewValidator(repo, logger), logger)

	result, err := voucher.NewImporter(loader, vouchers, logger).Import(c.Context, path)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "created %d, skipped %d, failed %d\n", result.Created, result.Skipped, result.Failed)
	return nil
}
