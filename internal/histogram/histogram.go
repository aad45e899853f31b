// Package histogram samples non-deterministic expressions and reports the
// resulting outcome distribution.
package histogram

import (
	"math/big"
	"sort"

	"lukechampine.com/uint128"
)

// Histogram accumulates outcome frequencies.
//
// Invariant: sum of all counts == Trials().
// Invariant: Mode() is the first outcome to reach the current maximum count.
// Invariant: the running sum is exact; it is held as a 128-bit two's
// complement value so any int64 outcomes over up to 2^64 trials fit.
type Histogram struct {
	counts    map[int64]int64
	sum       uint128.Uint128
	trials    int64
	mode      int64
	modeCount int64
}

// New returns an empty Histogram.
func New() *Histogram {
	return &Histogram{counts: make(map[int64]int64)}
}

// Add records one outcome.
func (h *Histogram) Add(outcome int64) {
	h.counts[outcome]++
	h.sum = h.sum.AddWrap(widen(outcome))
	h.trials++
	if c := h.counts[outcome]; c > h.modeCount {
		h.modeCount = c
		h.mode = outcome
	}
}

// Merge folds o into h. Outcomes of o are visited in ascending order, so on a
// tie the receiver's mode survives and otherwise the lowest newly leading
// outcome wins.
func (h *Histogram) Merge(o *Histogram) {
	for _, outcome := range o.Outcomes() {
		h.counts[outcome] += o.counts[outcome]
		if c := h.counts[outcome]; c > h.modeCount {
			h.modeCount = c
			h.mode = outcome
		}
	}
	h.sum = h.sum.AddWrap(o.sum)
	h.trials += o.trials
}

// Count returns the occurrences of outcome.
func (h *Histogram) Count(outcome int64) int64 { return h.counts[outcome] }

// Trials returns the number of recorded outcomes.
func (h *Histogram) Trials() int64 { return h.trials }

// Sum returns the exact sum of all recorded outcomes.
func (h *Histogram) Sum() *big.Int {
	if negative(h.sum) {
		b := uint128.Zero.SubWrap(h.sum).Big()
		return b.Neg(b)
	}
	return h.sum.Big()
}

// Mean returns the sum of outcomes divided by Trials(), truncated toward
// zero, or 0 when empty. The mean of int64 outcomes always fits an int64.
func (h *Histogram) Mean() int64 {
	if h.trials == 0 {
		return 0
	}
	if negative(h.sum) {
		q, _ := uint128.Zero.SubWrap(h.sum).QuoRem64(uint64(h.trials))
		return -int64(q.Lo)
	}
	q, _ := h.sum.QuoRem64(uint64(h.trials))
	return int64(q.Lo)
}

// widen sign-extends v to 128 bits.
func widen(v int64) uint128.Uint128 {
	u := uint128.From64(uint64(v))
	if v < 0 {
		u.Hi = ^uint64(0)
	}
	return u
}

func negative(u uint128.Uint128) bool { return u.Hi>>63 == 1 }

// Mode returns the modal outcome and its count.
func (h *Histogram) Mode() (outcome, count int64) { return h.mode, h.modeCount }

// Outcomes returns the distinct outcomes in ascending order.
func (h *Histogram) Outcomes() []int64 {
	out := make([]int64, 0, len(h.counts))
	for k := range h.counts {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
