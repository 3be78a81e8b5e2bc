package pool

import (
	"log/slog"
	"sync"
)

const (
	// MiB is the accounting unit for every block in the pool.
	MiB = 1 << 20

	// DefaultChunkMB is the per-block size used when a request does not name one.
	// Many small blocks instead of one large allocation keeps a single failed
	// reservation from sinking the whole request.
	DefaultChunkMB = 8

	// DefaultMaxGrowMB caps a single grow request to guard against typos
	// ("hold 400000 MB") taking the host down in one call.
	DefaultMaxGrowMB = 4096
)

// group holds the blocks created by one grow request. Blocks are freed LIFO,
// and a group is dropped from the pool the moment its last block goes.
type group [][]byte

// Pool owns every allocated block and is the only place pool accounting
// happens. One mutex covers each operation end to end, summation included, so
// concurrent HTTP handlers always observe a consistent pool.
type Pool struct {
	lock   sync.Mutex
	groups []group

	alloc     Allocator
	chunkMB   int
	maxGrowMB int
	logger    *slog.Logger
}

// Options configures a Pool. Zero values fall back to defaults.
type Options struct {
	Allocator Allocator    // block backend; default heap with page touching
	ChunkMB   int          // default per-block size, default DefaultChunkMB
	MaxGrowMB int          // per-call grow ceiling, default DefaultMaxGrowMB
	Logger    *slog.Logger // default slog.Default()
}

// New creates an empty pool.
func New(opts Options) *Pool {
	if opts.Allocator == nil {
		opts.Allocator = NewHeapAllocator(true)
	}
	if opts.ChunkMB <= 0 {
		opts.ChunkMB = DefaultChunkMB
	}
	if opts.MaxGrowMB <= 0 {
		opts.MaxGrowMB = DefaultMaxGrowMB
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pool{
		alloc:     opts.Allocator,
		chunkMB:   opts.ChunkMB,
		maxGrowMB: opts.MaxGrowMB,
		logger:    opts.Logger,
	}
}

// Stats is a consistent snapshot of the pool.
type Stats struct {
	AllocatedMB int
	Groups      int
}

// GrowResult reports the outcome of a Grow call.
type GrowResult struct {
	AddedMB int
	ChunkMB int
	TotalMB int
}

// ShrinkResult reports the outcome of a Shrink call. The amount actually
// freed is the difference between the caller's previous total and TotalMB;
// it may be less than RequestedMB when the pool ran out first.
type ShrinkResult struct {
	RequestedMB int
	TotalMB     int
}

// ConvergeResult reports the outcome of a Converge call. AlreadyMet is set
// when the pool was at the target and nothing moved.
type ConvergeResult struct {
	TotalMB    int
	AlreadyMet bool
}

// DefaultChunkMB returns the pool's configured default block size.
func (p *Pool) DefaultChunkMB() int {
	return p.chunkMB
}

// Stats returns the current total and group count under the lock.
func (p *Pool) Stats() Stats {
	p.lock.Lock()
	defer p.lock.Unlock()

	return Stats{
		AllocatedMB: p.totalMB(),
		Groups:      len(p.groups),
	}
}

// Grow allocates mb mebibytes as one new group of chunk-sized blocks and
// appends it atomically. The last block of the group may be smaller than
// chunk when mb does not divide evenly. Defaulting a missing chunk is the
// caller's job; here anything non-positive is rejected.
func (p *Pool) Grow(mb, chunk int) (GrowResult, error) {
	if mb <= 0 || chunk <= 0 {
		return GrowResult{}, newError(KindInvalidArgument, "mb and chunk must be > 0")
	}
	if mb > p.maxGrowMB {
		return GrowResult{}, newError(KindLimitExceeded, "grow of %d MB exceeds per-call limit of %d MB", mb, p.maxGrowMB)
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	if err := p.growLocked(mb, chunk); err != nil {
		return GrowResult{}, err
	}

	total := p.totalMB()
	p.logger.Debug("pool grown",
		slog.Int("added_mb", mb),
		slog.Int("chunk_mb", chunk),
		slog.Int("total_mb", total))

	return GrowResult{AddedMB: mb, ChunkMB: chunk, TotalMB: total}, nil
}

// Shrink frees up to mb mebibytes, popping blocks LIFO from the youngest
// group down. Freeing less than requested (pool exhausted) is reported, not
// an error.
func (p *Pool) Shrink(mb int) (ShrinkResult, error) {
	if mb <= 0 {
		return ShrinkResult{}, newError(KindInvalidArgument, "mb must be > 0")
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	p.shrinkLocked(mb)

	total := p.totalMB()
	p.logger.Debug("pool shrunk",
		slog.Int("requested_mb", mb),
		slog.Int("total_mb", total))

	return ShrinkResult{RequestedMB: mb, TotalMB: total}, nil
}

// Converge grows or shrinks the pool toward an absolute target. Shrinking
// releases whole blocks only, so the result may land below the target; blocks
// are never split to hit it exactly.
func (p *Pool) Converge(targetMB int) (ConvergeResult, error) {
	if targetMB < 0 {
		return ConvergeResult{}, newError(KindInvalidArgument, "mb must be >= 0")
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	curr := p.totalMB()
	switch {
	case targetMB == curr:
		return ConvergeResult{TotalMB: curr, AlreadyMet: true}, nil
	case targetMB > curr:
		if err := p.growLocked(targetMB-curr, p.chunkMB); err != nil {
			return ConvergeResult{}, err
		}
	default:
		p.shrinkLocked(curr - targetMB)
	}

	total := p.totalMB()
	p.logger.Debug("pool converged",
		slog.Int("target_mb", targetMB),
		slog.Int("total_mb", total))

	return ConvergeResult{TotalMB: total}, nil
}

// Clear releases every group immediately.
func (p *Pool) Clear() Stats {
	p.lock.Lock()
	defer p.lock.Unlock()

	for _, g := range p.groups {
		for _, b := range g {
			p.alloc.Free(b)
		}
	}
	p.groups = nil

	p.logger.Debug("pool cleared")
	return Stats{}
}

// growLocked builds a full group before appending it: if any block
// reservation fails, the blocks built so far are released and the pool is
// left exactly as it was (all-or-nothing).
func (p *Pool) growLocked(mb, chunk int) error {
	var g group
	for remain := mb; remain > 0; {
		take := chunk
		if remain < take {
			take = remain
		}
		b, err := p.alloc.Alloc(take * MiB)
		if err != nil {
			for _, built := range g {
				p.alloc.Free(built)
			}
			return &Error{
				Kind:    KindAllocationFailure,
				Message: "memory reservation failed",
				Err:     err,
			}
		}
		g = append(g, b)
		remain -= take
	}
	p.groups = append(p.groups, g)
	return nil
}

// shrinkLocked pops whole blocks LIFO until mb is covered or the pool is
// empty, pruning each group as it drains.
func (p *Pool) shrinkLocked(mb int) {
	remain := mb
	for remain > 0 && len(p.groups) > 0 {
		last := len(p.groups) - 1
		g := p.groups[last]
		for len(g) > 0 && remain > 0 {
			b := g[len(g)-1]
			g = g[:len(g)-1]
			remain -= len(b) / MiB
			p.alloc.Free(b)
		}
		if len(g) == 0 {
			p.groups = p.groups[:last]
		} else {
			p.groups[last] = g
		}
	}
}

// totalMB sums block sizes on every call instead of keeping a counter, so the
// reported total cannot drift from what is actually held. Callers hold the lock.
func (p *Pool) totalMB() int {
	var bytes int
	for _, g := range p.groups {
		for _, b := range g {
			bytes += len(b)
		}
	}
	return bytes / MiB
}
