package clock

import (
	"errors"
	"time"
)

// TickSource yields the current block height the ledger should act at.
type TickSource interface {
	Now() uint64
}

// WallTicks derives ticks from wall time: one tick per Interval since Genesis.
// Times before Genesis map to tick 0.
type WallTicks struct {
	Genesis  time.Time
	Interval time.Duration
	now      func() time.Time
}

func NewWallTicks(genesis time.Time, interval time.Duration) (*WallTicks, error) {
	if interval <= 0 {
		return nil, errors.New("clock: tick interval must be positive")
	}
	return &WallTicks{Genesis: genesis, Interval: interval, now: time.Now}, nil
}

func (w *WallTicks) Now() uint64 {
	d := w.now().Sub(w.Genesis)
	if d <= 0 {
		return 0
	}
	return uint64(d / w.Interval)
}

// Fixed is a TickSource pinned to one height; tests and the CLI --tick flag use it.
type Fixed uint64

func (f Fixed) Now() uint64 { return uint64(f) }
