// Package voucher validates order-level voucher codes, records their use at
// checkout, and imports voucher batches from gzipped JSON-lines files.
package voucher

import (
	"context"

	"storefront/internal/model"
)

// IDSet is a read-only set of identifiers used for voucher allow-lists.
type IDSet interface {
	// Contains reports whether id is in the set.
	Contains(id string) bool
}

// Loader reads a batch of voucher definitions.
type Loader interface {
	// Load reads a gzipped JSON-lines file, one voucher per line.
	Load(ctx context.Context, path string) ([]model.VoucherRequest, error)
}

// Creator persists one voucher definition, enforcing write-time rules.
type Creator interface {
	Create(ctx context.Context, req *model.VoucherRequest) (*model.Voucher, error)
}
