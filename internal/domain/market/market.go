package market

import "context"

// PriceOracle reads the latest published quote. ok is false when no quote
// exists, which is distinct from a zero price.
type PriceOracle interface {
	GetPrice(ctx context.Context, asset string) (price uint64, ok bool, err error)
}

// Platform reports whether the ledger has been initialized for lending.
type Platform interface {
	Initialized(ctx context.Context) (bool, error)
}
