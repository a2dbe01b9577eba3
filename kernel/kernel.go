// Package kernel is the process-wide composition root: it wires page,
// klist, ksignal, kthread, sched, pool, and resource into the single
// running instance that lives for the life of the device, and exposes
// the weak hooks, functional options, and Duration literals that form
// the core's external contract.
package kernel

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-zerokernel/klist"
	"github.com/joeycumines/go-zerokernel/klog"
	"github.com/joeycumines/go-zerokernel/ksignal"
	"github.com/joeycumines/go-zerokernel/kthread"
	"github.com/joeycumines/go-zerokernel/page"
	"github.com/joeycumines/go-zerokernel/pool"
	"github.com/joeycumines/go-zerokernel/resource"
	"github.com/joeycumines/go-zerokernel/sched"
)

// Config holds what firmware would bake in as compile-time constants. A
// Go library consumer has no #define-time constants, so these are
// ordinary struct fields set via Option.
type Config struct {
	PageSize        int
	HeapSize        int
	PoolThreadCount int
	PoolStackBytes  int
	QuantumTicks    uint8
	TickInterval    time.Duration
	IdleStackBytes  int
	// SignalHistoryCapacity sets how many recent signal deliveries
	// Snapshot can report (see ksignal.History). 0 disables the
	// diagnostic entirely.
	SignalHistoryCapacity int
	// TickSource overrides the built-in TickInterval ticker. Simulators
	// and tests inject one to drive virtual time.
	TickSource TickSource
}

// TickSource is the heartbeat driving the kernel's tick handler: one
// value on C per elapsed tick. The default (nil) is an internal
// time.Ticker-backed source firing every TickInterval.
type TickSource interface {
	C() <-chan struct{}
	Close() error
}

func defaultConfig() Config {
	return Config{
		PageSize:        32,
		HeapSize:        64 << 10,
		PoolThreadCount: 4,
		PoolStackBytes:  2 << 10,
		QuantumTicks:    20,
		TickInterval:    time.Millisecond,
		IdleStackBytes:  1 << 10,

		SignalHistoryCapacity: 32,
	}
}

// Option configures a Kernel at construction.
type Option interface {
	apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) apply(c *Config) { f(c) }

// WithPageSize sets the page allocator's page size in bytes.
func WithPageSize(n int) Option { return optionFunc(func(c *Config) { c.PageSize = n }) }

// WithHeapSize sets the total number of bytes the page allocator manages.
func WithHeapSize(n int) Option { return optionFunc(func(c *Config) { c.HeapSize = n }) }

// WithPoolThreadCount sets how many dormant TCBs the pool is seeded with.
func WithPoolThreadCount(n int) Option {
	return optionFunc(func(c *Config) { c.PoolThreadCount = n })
}

// WithPoolStackBytes sets the stack budget granted to each pool thread.
func WithPoolStackBytes(n int) Option {
	return optionFunc(func(c *Config) { c.PoolStackBytes = n })
}

// WithQuantumTicks sets the number of ticks a thread runs before being
// preempted.
func WithQuantumTicks(n uint8) Option { return optionFunc(func(c *Config) { c.QuantumTicks = n }) }

// WithTickInterval sets the heartbeat period; the default is 1ms.
func WithTickInterval(d time.Duration) Option {
	return optionFunc(func(c *Config) { c.TickInterval = d })
}

// WithIdleStackBytes sets the stack budget granted to the dedicated idle
// thread.
func WithIdleStackBytes(n int) Option {
	return optionFunc(func(c *Config) { c.IdleStackBytes = n })
}

// WithSignalHistoryCapacity sets how many recent signal deliveries
// Snapshot reports. 0 disables the diagnostic.
func WithSignalHistoryCapacity(n int) Option {
	return optionFunc(func(c *Config) { c.SignalHistoryCapacity = n })
}

// WithTickSource replaces the built-in ticker with src, letting a
// simulator or test drive the kernel's notion of time directly.
func WithTickSource(src TickSource) Option {
	return optionFunc(func(c *Config) { c.TickSource = src })
}

// Hooks are the kernel's weakly-overridable extension points.
// Every field defaults to a no-op; installing a hook never changes the
// core's control flow, only what gets observed at each event.
type Hooks struct {
	// OnReset runs before kernel init; returning false means "go to deep
	// sleep instead of booting", modeled here as New returning nil with
	// ok=false.
	OnReset func(resetFlags uint32) bool
	// OnSleep runs before any sleep attempt (the idle thread's default
	// entry calls this once per idle spin).
	OnSleep func(mode int)
	// OnOutOfMemory runs on allocation failure, in addition to
	// page.Allocator's own OnOutOfMemory (kernel wires the two together).
	OnOutOfMemory func()
	// OnThreadExit runs after a thread's trampoline has returned, before
	// its stack is recycled or freed.
	OnThreadExit func(t *kthread.TCB, exitCode int)
	// OnStackOverflow runs when CheckStackWatermark reports the owning
	// thread has exceeded its stack budget.
	OnStackOverflow func(t *kthread.TCB)
	// IdleThreadEntry replaces the built-in idle loop entirely when set.
	IdleThreadEntry func(k *Kernel) int
}

func defaultHooks() Hooks {
	return Hooks{
		OnReset:         func(uint32) bool { return true },
		OnSleep:         func(int) {},
		OnOutOfMemory:   func() {},
		OnThreadExit:    func(*kthread.TCB, int) {},
		OnStackOverflow: func(*kthread.TCB) {},
	}
}

// Kernel is the process-wide singleton. The zero value is not usable;
// construct with New. A Kernel must not be copied after construction —
// Forbid/Permit and the run loop hold internal state by reference.
type Kernel struct {
	_ [0]func()

	cfg   Config
	hooks Hooks
	log   *klog.Logger

	pages     *page.Allocator
	sched     *sched.Scheduler
	pool      *pool.Pool
	resources resource.Bitmap

	mu         sync.Mutex
	timeouts   klist.TimeoutList[*kthread.TCB]
	nextID     uint32
	sigHistory *ksignal.History

	forbidDepth int

	msCounter    atomic.Uint32
	pendingTicks atomic.Uint32

	tick     TickSource
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New constructs and boots a Kernel: it runs Hooks.OnReset first (a
// false result aborts construction and reports ok=false — the "go to
// deep sleep instead of booting" contract), then allocates the page
// pool, builds the dedicated idle thread and pool threads, and seeds
// the scheduler. The kernel is
// not yet ticking — call Run to start the run loop.
func New(resetFlags uint32, hooks Hooks, opts ...Option) (k *Kernel, ok bool) {
	cfg := defaultConfig()
	for _, o := range opts {
		if o != nil {
			o.apply(&cfg)
		}
	}
	h := defaultHooks()
	mergeHooks(&h, hooks)

	if !h.OnReset(resetFlags) {
		return nil, false
	}

	k = &Kernel{
		cfg:    cfg,
		hooks:  h,
		log:    klog.Global(),
		pages:  page.New(cfg.PageSize, cfg.HeapSize/cfg.PageSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	k.pages.OnOutOfMemory = func(int) { k.hooks.OnOutOfMemory() }

	if cfg.SignalHistoryCapacity > 0 {
		k.sigHistory = ksignal.NewHistory(cfg.SignalHistoryCapacity)
	}

	idle := k.newTCB("idle", cfg.IdleStackBytes, kthread.FlagNone, k.idleEntry, nil, nil)
	k.sched = sched.New(idle, cfg.QuantumTicks)

	dormant := make([]*kthread.TCB, 0, cfg.PoolThreadCount)
	for i := 0; i < cfg.PoolThreadCount; i++ {
		t := k.newTCB("pool", cfg.PoolStackBytes, kthread.FlagPoolThread, func() int { select {} }, nil, nil)
		dormant = append(dormant, t)
	}
	k.pool = pool.New(dormant)

	return k, true
}

func mergeHooks(dst *Hooks, src Hooks) {
	if src.OnReset != nil {
		dst.OnReset = src.OnReset
	}
	if src.OnSleep != nil {
		dst.OnSleep = src.OnSleep
	}
	if src.OnOutOfMemory != nil {
		dst.OnOutOfMemory = src.OnOutOfMemory
	}
	if src.OnThreadExit != nil {
		dst.OnThreadExit = src.OnThreadExit
	}
	if src.OnStackOverflow != nil {
		dst.OnStackOverflow = src.OnStackOverflow
	}
	if src.IdleThreadEntry != nil {
		dst.IdleThreadEntry = src.IdleThreadEntry
	}
}

func (k *Kernel) newTCB(name string, stackBytes int, flags kthread.Flags, entry kthread.Entry, termNotify kthread.Terminator, exitCode *int) *kthread.TCB {
	addr, granted, err := k.pages.Allocate(stackBytes, page.TopDown)
	if err != nil {
		// Resource exhaustion at boot is a hard init failure; callers
		// of New are expected to size HeapSize
		// generously enough that this never fires for the fixed pool +
		// idle thread New itself creates.
		panic("kernel: insufficient heap for thread stack: " + err.Error())
	}
	k.nextID++
	return kthread.NewPrepared(k.nextID, name, addr, granted, flags, entry, termNotify, exitCode)
}

// Config returns the kernel's resolved configuration.
func (k *Kernel) Config() Config { return k.cfg }

// PageAllocator exposes the page allocator for drivers/application code
// that need general-purpose (non-stack) allocation.
func (k *Kernel) PageAllocator() *page.Allocator { return k.pages }

// Resources exposes the shared hardware resource bitmap.
func (k *Kernel) Resources() *resource.Bitmap { return &k.resources }

// Now returns the free-running millisecond counter (wraps at ~49 days).
func (k *Kernel) Now() uint32 { return k.msCounter.Load() }

// Spawn creates a brand-new thread (not from the pool) and makes it
// ready to run promptly. Returns
// nil if the page allocator cannot grant a stack of the requested size.
func (k *Kernel) Spawn(name string, stackBytes int, entry kthread.Entry, termNotify kthread.Terminator, exitCode *int) *kthread.TCB {
	addr, granted, err := k.pages.Allocate(stackBytes, page.TopDown)
	if err != nil {
		return nil
	}
	k.mu.Lock()
	k.nextID++
	id := k.nextID
	k.mu.Unlock()
	t := kthread.NewPrepared(id, name, addr, granted, kthread.FlagReady, entry, termNotify, exitCode)

	k.mu.Lock()
	k.sched.EnqueueReady(t)
	k.mu.Unlock()
	return t
}

// FromPool reanimates a dormant pool thread with fresh entry code and
// prepends it to the active ready
// list so it runs promptly. Returns pool.ErrPoolEmpty if no dormant
// thread is available.
func (k *Kernel) FromPool(name string, entry kthread.Entry, termNotify kthread.Terminator, exitCode *int) (*kthread.TCB, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.nextID++
	t, err := k.pool.Take(k.nextID, name, entry, termNotify, exitCode)
	if err != nil {
		k.nextID--
		return nil, err
	}
	k.sched.EnqueueUrgent(t)
	return t, nil
}

// Pool exposes the thread pool for introspection (Available/Total).
func (k *Kernel) Pool() *pool.Pool { return k.pool }
