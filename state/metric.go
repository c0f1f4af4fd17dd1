package state

import (
	"math"
	"time"

	"github.com/rosshemsley/kalman"
	"github.com/rosshemsley/kalman/models"
)

const (
	MetricComposite = "composite"
	MetricStatic    = "static"
)

// LinkSample is one instantaneous measurement of a link.
type LinkSample struct {
	Latency   time.Duration
	Bandwidth float64 // available bandwidth, Mbps
}

// MetricSource turns link samples into costs. The path computation engine is
// agnostic to which source produced a cost, which is what lets the static
// baseline share the whole engine.
type MetricSource interface {
	Cost(s LinkSample) float64
}

// CompositeMetric combines latency and available bandwidth into one cost.
// Both measurements are normalized to the configured bounds, then combined as
// a weighted sum. Low latency and high bandwidth both pull the cost down.
type CompositeMetric struct {
	WLatency     float64
	WBandwidth   float64
	MaxLatency   time.Duration
	RefBandwidth float64
}

func (m CompositeMetric) Cost(s LinkSample) float64 {
	normLatency := s.Latency.Seconds() / m.MaxLatency.Seconds()
	normBandwidth := s.Bandwidth / m.RefBandwidth
	// the 0.01 floor keeps a starved link finite instead of dividing by zero
	cost := m.WLatency*normLatency + m.WBandwidth*(1/(normBandwidth+0.01))
	if math.IsNaN(cost) || cost < MinCost {
		return MinCost
	}
	return cost
}

// StaticMetric is the OSPF-style baseline: cost is the inverse of bandwidth
// against a reference, latency is ignored entirely.
type StaticMetric struct {
	RefBandwidth float64
}

func (m StaticMetric) Cost(s LinkSample) float64 {
	if s.Bandwidth <= 0 {
		return m.RefBandwidth
	}
	return max(1, math.Round(m.RefBandwidth/s.Bandwidth))
}

func MetricSourceFromCfg(cfg MetricCfg) MetricSource {
	if cfg.Mode == MetricStatic {
		ref := cfg.RefBandwidth
		if ref == 0 {
			ref = DefaultRefBandwidth
		}
		return StaticMetric{RefBandwidth: ref}
	}
	return CompositeMetric{
		WLatency:     cfg.WLatency,
		WBandwidth:   cfg.WBandwidth,
		MaxLatency:   cfg.MaxLatency,
		RefBandwidth: cfg.RefBandwidth,
	}
}

// LinkMonitor tracks one link's measurements. Raw latency samples are noisy,
// so they run through a kalman filter before the metric sees them; the
// hysteresis check in the router damps what is left.
type LinkMonitor struct {
	filter    *kalman.KalmanFilter
	model     *models.SimpleModel
	bandwidth float64
	lastSeen  time.Time
	up        bool
}

func NewLinkMonitor(initial LinkSample) *LinkMonitor {
	model := models.NewSimpleModel(time.Now(), float64(initial.Latency), models.SimpleModelConfig{
		InitialVariance:     0,
		ProcessVariance:     float64(time.Millisecond * 10),
		ObservationVariance: float64(time.Millisecond * 5),
	})
	return &LinkMonitor{
		filter:    kalman.NewKalmanFilter(model),
		model:     model,
		bandwidth: initial.Bandwidth,
		lastSeen:  time.Now(),
		up:        true,
	}
}

func (l *LinkMonitor) Observe(s LinkSample) {
	err := l.filter.Update(time.Now(), l.model.NewMeasurement(float64(s.Latency)))
	if err != nil {
		return
	}
	l.bandwidth = s.Bandwidth
	l.lastSeen = time.Now()
	l.up = true
}

func (l *LinkMonitor) MarkDown() {
	l.up = false
}

func (l *LinkMonitor) Up() bool {
	return l.up
}

// Sample returns the filtered view of the link.
func (l *LinkMonitor) Sample() LinkSample {
	filtered := time.Duration(l.model.Value(l.filter.State()))
	if filtered < 0 {
		filtered = 0
	}
	return LinkSample{
		Latency:   filtered,
		Bandwidth: l.bandwidth,
	}
}
