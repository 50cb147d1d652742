package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/errors"
)

// Default layout constants.
const (
	DefaultPrimeSize         = 80
	DefaultRegionSize        = 60
	DefaultZoneSize          = 40
	DefaultGrowth            = 0.2
	DefaultSizeCap           = 2.5
	DefaultSpacing           = 0.09
	DefaultMultiChainSpacing = 0.18
	DefaultLeadingOffset     = 800
	DefaultForkGap           = 30
	DefaultPadding           = 20
	DefaultWorkshareStep     = 120
	DefaultInFlightStep      = 80
	DefaultRecenterLead      = 200
)

// DefaultSeed seeds the fallback placement generator.
const DefaultSeed uint64 = 42

// Config holds the layout constants. The zero value is completed by
// SetDefaults.
type Config struct {
	// MultiChain selects the 2x2 demo layout: wider spacing, taller
	// baselines, size cap and per-chain Z lanes.
	MultiChain bool `toml:"multi_chain" yaml:"multi_chain"`

	PrimeSize  float64 `toml:"prime_size" yaml:"prime_size"`
	RegionSize float64 `toml:"region_size" yaml:"region_size"`
	ZoneSize   float64 `toml:"zone_size" yaml:"zone_size"`

	// Growth is the size increase per live workshare of a block.
	Growth float64 `toml:"growth" yaml:"growth"`
	// SizeCap limits block size to SizeCap x base in multi-chain mode.
	SizeCap float64 `toml:"size_cap" yaml:"size_cap"`

	Spacing       float64 `toml:"spacing" yaml:"spacing"`
	LeadingOffset float64 `toml:"leading_offset" yaml:"leading_offset"`
	ForkGap       float64 `toml:"fork_gap" yaml:"fork_gap"`
	Padding       float64 `toml:"padding" yaml:"padding"`
	WorkshareStep float64 `toml:"workshare_step" yaml:"workshare_step"`
	InFlightStep  float64 `toml:"in_flight_step" yaml:"in_flight_step"`
	RecenterLead  float64 `toml:"recenter_lead" yaml:"recenter_lead"`

	// Seed drives the pseudo-random fallback placements.
	Seed uint64 `toml:"seed" yaml:"seed"`
}

// SetDefaults fills zero values with the defaults for the selected mode.
func (c *Config) SetDefaults() {
	setDefault(&c.PrimeSize, DefaultPrimeSize)
	setDefault(&c.RegionSize, DefaultRegionSize)
	setDefault(&c.ZoneSize, DefaultZoneSize)
	setDefault(&c.Growth, DefaultGrowth)
	setDefault(&c.SizeCap, DefaultSizeCap)
	if c.MultiChain {
		setDefault(&c.Spacing, DefaultMultiChainSpacing)
	} else {
		setDefault(&c.Spacing, DefaultSpacing)
	}
	setDefault(&c.LeadingOffset, DefaultLeadingOffset)
	setDefault(&c.ForkGap, DefaultForkGap)
	setDefault(&c.Padding, DefaultPadding)
	setDefault(&c.WorkshareStep, DefaultWorkshareStep)
	setDefault(&c.InFlightStep, DefaultInFlightStep)
	setDefault(&c.RecenterLead, DefaultRecenterLead)
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
}

func setDefault(v *float64, def float64) {
	if *v == 0 {
		*v = def
	}
}

// Validate checks that every constant is usable.
func (c Config) Validate() error {
	var problems []string
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"prime_size", c.PrimeSize},
		{"region_size", c.RegionSize},
		{"zone_size", c.ZoneSize},
		{"spacing", c.Spacing},
		{"size_cap", c.SizeCap},
	} {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			problems = append(problems, fmt.Sprintf("%s must be positive, got %v", f.name, f.v))
		}
	}
	if c.Growth < 0 || math.IsNaN(c.Growth) {
		problems = append(problems, fmt.Sprintf("growth must not be negative, got %v", c.Growth))
	}
	if len(problems) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout: %s", strings.Join(problems, "; "))
	}
	return nil
}

// BaseSize returns the unscaled edge length for an item type. Workshares and
// uncles use the zone size.
func (c Config) BaseSize(t chain.Type) float64 {
	switch t {
	case chain.TypePrime:
		return c.PrimeSize
	case chain.TypeRegion:
		return c.RegionSize
	}
	return c.ZoneSize
}

// MaxBaseSize returns the largest of the three block sizes.
func (c Config) MaxBaseSize() float64 {
	return math.Max(c.PrimeSize, math.Max(c.RegionSize, c.ZoneSize))
}

// Baseline returns the Y level of an item type.
func (c Config) Baseline(t chain.Type) float64 {
	maxBase := c.MaxBaseSize()
	switch t {
	case chain.TypePrime:
		if c.MultiChain {
			return 600
		}
		return 400
	case chain.TypeRegion:
		if c.MultiChain {
			return 300
		}
		return 200
	case chain.TypeUncle:
		return -(maxBase + 50)
	case chain.TypeWorkshare:
		return -(maxBase*2 + 100)
	}
	return 0
}

// chainLanes maps multi-chain names to their Z lane.
var chainLanes = map[string]float64{
	"Prime":    0,
	"Region-0": -300,
	"Region-1": 300,
	"Zone-0-0": -450,
	"Zone-0-1": -150,
	"Zone-1-0": 150,
	"Zone-1-1": 450,
}

// ChainLane returns the Z lane of a chain in multi-chain mode. Unknown names
// sit in the center lane.
func ChainLane(name string) float64 {
	return chainLanes[name]
}
