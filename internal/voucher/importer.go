package voucher

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// ImportResult summarises one import run.
type ImportResult struct {
	Created int
	Skipped int
	Failed  int
}

// Importer loads voucher files and creates every voucher through a Creator,
// so imported vouchers obey the same rules as admin-created ones.
type Importer struct {
	loader  Loader
	creator Creator
	logger  zerolog.Logger
}

// NewImporter creates a new voucher importer.
func NewImporter(loader Loader, creator Creator, logger zerolog.Logger) *Importer {
	return &Importer{
		loader:  loader,
		creator: creator,
		logger:  logger.With().Str("component", "voucher-importer").Logger(),
	}
}

// Import loads path and creates each record. Existing codes are skipped and
// invalid records are counted as failed; neither stops the run.
func (i *Importer) Import(ctx context.Context, path string) (ImportResult, error) {
	var result ImportResult

	records, err := i.loader.Load(ctx, path)
	if err != nil {
		return result, fmt.Errorf("failed to load vouchers: %w", err)
	}

	for n := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rec := &records[n]
		_, err := i.creator.Create(ctx, rec)
		switch {
		case err == nil:
			result.Created++
		case errors.Is(err, model.ErrVoucherExists):
			result.Skipped++
			i.logger.Debug().Str("code", rec.Code).Msg("voucher already exists, skipping")
		default:
			if _, ok := model.AsDomainError(err); !ok {
				return result, fmt.Errorf("failed to import voucher %s: %w", rec.Code, err)
			}
			result.Failed++
			i.logger.Warn().Err(err).Str("code", rec.Code).Msg("invalid voucher record")
		}
	}

	i.logger.Info().
		Str("path", path).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("voucher import finished")

	return result, nil
}
