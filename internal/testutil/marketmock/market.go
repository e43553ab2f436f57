package marketmock

import (
	"context"

	"lending-ledger/internal/domain/market"
)

var (
	_ market.PriceOracle = (*Oracle)(nil)
	_ market.Platform    = (*Platform)(nil)
)

// Oracle serves GetPriceFn when set, otherwise the Prices table.
type Oracle struct {
	GetPriceFn func(ctx context.Context, asset string) (uint64, bool, error)
	Prices     map[string]uint64
}

func NewOracle() *Oracle { return &Oracle{Prices: map[string]uint64{}} }

func (o *Oracle) Set(asset string, price uint64) *Oracle {
	if o.Prices == nil {
		o.Prices = map[string]uint64{}
	}
	o.Prices[asset] = price
	return o
}

func (o *Oracle) Clear(asset string) { delete(o.Prices, asset) }

func (o *Oracle) GetPrice(ctx context.Context, asset string) (uint64, bool, error) {
	if o.GetPriceFn != nil {
		return o.GetPriceFn(ctx, asset)
	}
	p, ok := o.Prices[asset]
	return p, ok, nil
}

type Platform struct {
	InitializedFn func(ctx context.Context) (bool, error)
	Ready         bool
}

func (p *Platform) Initialized(ctx context.Context) (bool, error) {
	if p.InitializedFn != nil {
		return p.InitializedFn(ctx)
	}
	return p.Ready, nil
}
