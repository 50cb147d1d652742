// Package viewport drives the scroll offset of the timeline.
//
// The controller holds two values: the applied offset and a target. Each tick
// the offset eases toward a distant target; once it is close, both advance at
// a constant speed so the scene keeps flowing between blocks. Ticks are scaled
// to a 60Hz reference frame, so the motion is the same at any tick rate.
package viewport

import (
	"math"
	"time"

	"github.com/matzehuels/chainflow/pkg/errors"
)

// Defaults for Config.
const (
	DefaultThreshold       = 5
	DefaultEase            = 0.05
	DefaultSpeed           = 0.5
	DefaultMultiChainSpeed = 0.8
	DefaultRecenterLead    = 400
	DefaultFrameRate       = 60
)

// Config holds the scroll constants.
type Config struct {
	// Threshold is the distance above which the offset eases toward the
	// target instead of drifting.
	Threshold float64 `toml:"threshold" yaml:"threshold"`
	// Ease is the fraction of the remaining distance covered per frame.
	Ease float64 `toml:"ease" yaml:"ease"`
	// Speed is the constant drift per frame.
	Speed float64 `toml:"speed" yaml:"speed"`
	// RecenterLead is subtracted from the largest X on an explicit recenter.
	RecenterLead float64 `toml:"recenter_lead" yaml:"recenter_lead"`
	// FrameRate is the reference rate that Ease and Speed are expressed in.
	FrameRate float64 `toml:"frame_rate" yaml:"frame_rate"`
}

// SetDefaults fills zero values. multiChain selects the faster drift.
func (c *Config) SetDefaults(multiChain bool) {
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	if c.Ease == 0 {
		c.Ease = DefaultEase
	}
	if c.Speed == 0 {
		c.Speed = DefaultSpeed
		if multiChain {
			c.Speed = DefaultMultiChainSpeed
		}
	}
	if c.RecenterLead == 0 {
		c.RecenterLead = DefaultRecenterLead
	}
	if c.FrameRate == 0 {
		c.FrameRate = DefaultFrameRate
	}
}

// Validate checks the constants.
func (c Config) Validate() error {
	if !(c.Ease > 0 && c.Ease <= 1) {
		return errors.New(errors.ErrCodeInvalidConfig, "viewport: ease must be in (0, 1], got %v", c.Ease)
	}
	if !(c.FrameRate > 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "viewport: frame_rate must be positive, got %v", c.FrameRate)
	}
	if c.Threshold < 0 || !isFinite(c.Speed) {
		return errors.New(errors.ErrCodeInvalidConfig, "viewport: invalid threshold %v or speed %v", c.Threshold, c.Speed)
	}
	return nil
}

// Controller is the scroll state. It is not safe for concurrent use.
type Controller struct {
	cfg    Config
	offset float64
	target float64
}

// New creates a controller at offset 0. cfg must have defaults applied.
func New(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

// Offset returns the applied scroll offset.
func (c *Controller) Offset() float64 { return c.offset }

// Target returns the scroll target.
func (c *Controller) Target() float64 { return c.target }

// Tick advances the controller by dt and returns the new offset.
func (c *Controller) Tick(dt time.Duration) float64 {
	frames := dt.Seconds() * c.cfg.FrameRate
	if !(frames > 0) {
		return c.offset
	}
	diff := c.target - c.offset
	if math.Abs(diff) > c.cfg.Threshold {
		c.offset += diff * (1 - math.Pow(1-c.cfg.Ease, frames))
		return c.offset
	}
	step := c.cfg.Speed * frames
	c.offset += step
	c.target += step
	return c.offset
}

// SetTarget sets the scroll target the offset eases toward. Non-finite values
// are ignored and reported as false.
func (c *Controller) SetTarget(v float64) bool {
	if !isFinite(v) {
		return false
	}
	c.target = v
	return true
}

// Recenter jumps offset and target to maxX - RecenterLead without easing.
// Non-finite values are ignored and reported as false.
func (c *Controller) Recenter(maxX float64) bool {
	v := maxX - c.cfg.RecenterLead
	if !isFinite(v) {
		return false
	}
	c.offset, c.target = v, v
	return true
}

// Reset returns the controller to offset 0.
func (c *Controller) Reset() {
	c.offset, c.target = 0, 0
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
