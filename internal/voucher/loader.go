package voucher

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for reading gzipped voucher files from disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based voucher loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "voucher-loader").Logger(),
	}
}

// Load reads a gzipped voucher file with one JSON object per line.
func (l *fileLoader) Load(ctx context.Context, filePath string) ([]model.VoucherRequest, error) {
	l.logger.Info().Str("file", filePath).Msg("loading voucher file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open voucher file")
		return nil, fmt.Errorf("failed to open voucher file %s: %w", filePath, err)
	}
	defer file.Close()

	records, err := readRecords(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("error reading voucher file")
		return nil, fmt.Errorf("error reading voucher file %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("vouchers_loaded", len(records)).
		Msg("voucher file loaded successfully")

	return records, nil
}

// readRecords decodes gzipped JSON lines. Blank lines are skipped.
func readRecords(ctx context.Context, r io.Reader) ([]model.VoucherRequest, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	records := []model.VoucherRequest{}
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		if lineNo%10_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec model.VoucherRequest
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("invalid voucher record on line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
