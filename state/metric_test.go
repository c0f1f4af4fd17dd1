package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompositeMetric(t *testing.T) {
	m := CompositeMetric{
		WLatency:     0.5,
		WBandwidth:   0.5,
		MaxLatency:   50 * time.Millisecond,
		RefBandwidth: 200,
	}

	// latency 10ms normalizes to 0.2, bandwidth 100 normalizes to 0.5
	cost := m.Cost(LinkSample{Latency: 10 * time.Millisecond, Bandwidth: 100})
	assert.InDelta(t, 0.5*0.2+0.5*(1/0.51), cost, 1e-9)

	// a better link costs less
	better := m.Cost(LinkSample{Latency: 2 * time.Millisecond, Bandwidth: 400})
	assert.Less(t, better, cost)
}

func TestCompositeMetricStaysPositive(t *testing.T) {
	m := CompositeMetric{
		WLatency:     1,
		WBandwidth:   0,
		MaxLatency:   50 * time.Millisecond,
		RefBandwidth: 200,
	}
	cost := m.Cost(LinkSample{Latency: 0, Bandwidth: 1000})
	assert.GreaterOrEqual(t, cost, MinCost)
}

func TestStaticMetric(t *testing.T) {
	m := StaticMetric{RefBandwidth: 1000}
	assert.Equal(t, 10.0, m.Cost(LinkSample{Bandwidth: 100}))
	// cost never drops below 1 on fat links
	assert.Equal(t, 1.0, m.Cost(LinkSample{Bandwidth: 4000}))
	// latency plays no role in the baseline
	assert.Equal(t,
		m.Cost(LinkSample{Latency: time.Second, Bandwidth: 100}),
		m.Cost(LinkSample{Latency: time.Millisecond, Bandwidth: 100}))
}

func TestMetricSourceFromCfg(t *testing.T) {
	cfg := MetricCfg{Mode: MetricStatic, RefBandwidth: 1000}
	_, ok := MetricSourceFromCfg(cfg).(StaticMetric)
	assert.True(t, ok)

	cfg.Mode = MetricComposite
	_, ok = MetricSourceFromCfg(cfg).(CompositeMetric)
	assert.True(t, ok)
}

func TestLinkMonitorFiltersTowardsObservations(t *testing.T) {
	mon := NewLinkMonitor(LinkSample{Latency: 10 * time.Millisecond, Bandwidth: 100})
	// the filter gain scales with elapsed time, so observations need real gaps
	for i := 0; i < 50; i++ {
		time.Sleep(10 * time.Millisecond)
		mon.Observe(LinkSample{Latency: 30 * time.Millisecond, Bandwidth: 100})
	}
	got := mon.Sample()
	assert.Greater(t, got.Latency, 15*time.Millisecond)
	assert.Equal(t, 100.0, got.Bandwidth)
}

func TestLinkMonitorDownState(t *testing.T) {
	mon := NewLinkMonitor(LinkSample{Latency: 10 * time.Millisecond, Bandwidth: 100})
	assert.True(t, mon.Up())
	mon.MarkDown()
	assert.False(t, mon.Up())
	mon.Observe(LinkSample{Latency: 10 * time.Millisecond, Bandwidth: 100})
	assert.True(t, mon.Up())
}
