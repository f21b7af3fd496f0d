package threadsync

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
)

// options holds the configuration shared by every primitive constructor.
// Fields that don't apply to a given primitive are ignored by it.
type options struct {
	logger              *logiface.Logger[logiface.Event]
	name                string
	cpus                []int
	contentionThreshold time.Duration
	loggerSet           bool
	lockOSThread        bool
}

// Option configures a primitive at construction, see NewRecursiveMutex,
// NewThread and NewEvent.
type Option interface {
	apply(*options) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyFunc func(*options) error
}

func (o *optionImpl) apply(opts *options) error {
	return o.applyFunc(opts)
}

// used to generate default names
var primitiveSeq atomic.Uint64

// WithName sets the name used in log output and errors.
// Defaults to the primitive kind suffixed with a process-unique sequence number.
func WithName(name string) Option {
	return &optionImpl{func(opts *options) error {
		opts.name = name
		return nil
	}}
}

// WithLogger sets the logger used by the primitive, overriding the package
// logger configured by SetLogger. A nil logger disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *options) error {
		opts.logger = logger
		opts.loggerSet = true
		return nil
	}}
}

// WithContentionThreshold enables a (rate limited) warning whenever a
// blocking RecursiveMutex.Lock waited longer than d. Zero disables it.
func WithContentionThreshold(d time.Duration) Option {
	return &optionImpl{func(opts *options) error {
		if d < 0 {
			return fmt.Errorf("%w: negative contention threshold %s", ErrInvalidOption, d)
		}
		opts.contentionThreshold = d
		return nil
	}}
}

// WithCPUAffinity restricts a Thread to the given CPUs. It is honored on
// Linux only, elsewhere it is logged and ignored.
func WithCPUAffinity(cpus ...int) Option {
	return &optionImpl{func(opts *options) error {
		for _, cpu := range cpus {
			if cpu < 0 {
				return fmt.Errorf("%w: negative cpu %d", ErrInvalidOption, cpu)
			}
		}
		opts.cpus = append([]int(nil), cpus...)
		return nil
	}}
}

// WithLockOSThread controls whether a Thread's goroutine is wired to its own
// OS thread for the lifetime of the entry point. Defaults to true.
func WithLockOSThread(enabled bool) Option {
	return &optionImpl{func(opts *options) error {
		opts.lockOSThread = enabled
		return nil
	}}
}

// resolveOptions applies opts on top of the defaults for the given kind.
func resolveOptions(kind string, opts []Option) (*options, error) {
	cfg := &options{
		lockOSThread: true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.name == "" {
		cfg.name = kind + "-" + strconv.FormatUint(primitiveSeq.Add(1), 10)
	}
	if !cfg.loggerSet {
		cfg.logger = getLogger()
	}
	return cfg, nil
}
