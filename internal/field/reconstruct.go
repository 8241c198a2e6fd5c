package field

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/banshee-data/heatgrid/internal/sensor"
)

// ErrDegenerateGeometry is wrapped by every error caused by a sample layout
// a strategy cannot work with.
var ErrDegenerateGeometry = errors.New("degenerate sample geometry")

// ErrUnknownStrategy is returned by New for unregistered names.
var ErrUnknownStrategy = errors.New("unknown reconstruction strategy")

// Reconstructor turns a sample set into a dense field in raw sample units.
type Reconstructor interface {
	Reconstruct(samples sensor.SampleSet, g Grid) (*ScalarField, error)
}

// Options carries the parameters of every built-in strategy. Each strategy
// reads only the fields it needs; zero values select defaults.
type Options struct {
	Axis      string  `json:"axis"`       // profile: "x" or "y"
	FillValue float64 `json:"fill_value"` // linear, cubic: value outside the convex hull
	Kernel    string  `json:"kernel"`     // rbf
	Smoothing float64 `json:"smoothing"`  // rbf
	Epsilon   float64 `json:"epsilon"`    // rbf shape parameter
	Sigma     float64 `json:"sigma"`      // gaussian spread, normalized units
}

// Factory builds a Reconstructor from options.
type Factory func(Options) (Reconstructor, error)

// Strategy names.
const (
	StrategyProfile  = "profile"
	StrategyLinear   = "linear"
	StrategyCubic    = "cubic"
	StrategyRBF      = "rbf"
	StrategyGaussian = "gaussian"
	StrategyBlock    = "block"

	DefaultStrategy = StrategyRBF
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a named strategy. Registering a name twice panics.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("field: duplicate strategy " + name)
	}
	registry[name] = f
}

// New builds the named strategy.
func New(name string, opts Options) (Reconstructor, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownStrategy, name, Strategies())
	}
	return f(opts)
}

// Strategies lists the registered strategy names in sorted order.
func Strategies() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(StrategyProfile, newProfile)
	Register(StrategyLinear, newLinear)
	Register(StrategyCubic, newCubic)
	Register(StrategyRBF, newRBF)
	Register(StrategyGaussian, newGaussian)
	Register(StrategyBlock, newBlock)
}
