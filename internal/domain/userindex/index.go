package userindex

import (
	"sort"

	"lending-ledger/internal/domain/loan"
)

// Index is the ordered set of active loan ids held by one borrower.
// It never truncates: Add on a full index fails.
type Index struct {
	Borrower string
	ids      []uint64
}

// New builds an index from stored ids; duplicates are collapsed.
func New(borrower string, ids []uint64) *Index {
	cp := append([]uint64(nil), ids...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	out := cp[:0]
	for i, v := range cp {
		if i > 0 && v == cp[i-1] {
			continue
		}
		out = append(out, v)
	}
	return &Index{Borrower: borrower, ids: out}
}

func (x *Index) Len() int { return len(x.ids) }

// IDs returns a copy in ascending order.
func (x *Index) IDs() []uint64 { return append([]uint64(nil), x.ids...) }

func (x *Index) search(id uint64) (int, bool) {
	i := sort.Search(len(x.ids), func(i int) bool { return x.ids[i] >= id })
	return i, i < len(x.ids) && x.ids[i] == id
}

func (x *Index) Contains(id uint64) bool {
	_, ok := x.search(id)
	return ok
}

// Add inserts id keeping order. Adding an id already present is a no-op.
func (x *Index) Add(id uint64, max int) error {
	i, ok := x.search(id)
	if ok {
		return nil
	}
	if len(x.ids) >= max {
		return loan.ErrTooManyActiveLoans
	}
	x.ids = append(x.ids, 0)
	copy(x.ids[i+1:], x.ids[i:])
	x.ids[i] = id
	return nil
}

// Remove drops exactly one id and keeps the rest. Reports whether it was present.
func (x *Index) Remove(id uint64) bool {
	i, ok := x.search(id)
	if !ok {
		return false
	}
	x.ids = append(x.ids[:i], x.ids[i+1:]...)
	return true
}
