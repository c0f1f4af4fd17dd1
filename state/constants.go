package state

import "time"

// Defaults for every tunable. All of these are configuration surface; the
// values here are only applied when the central config leaves a field unset.
var (
	DefaultWLatency     = 0.5
	DefaultWBandwidth   = 0.5
	DefaultMaxLatency   = 50 * time.Millisecond
	DefaultRefBandwidth = 200.0 // Mbps
	DefaultHysteresis   = 0.1

	DefaultRefreshInterval = 5 * time.Second
	DefaultStalenessWindow = 4 * DefaultRefreshInterval
	DefaultSweepInterval   = time.Second
	DefaultSampleInterval  = time.Second
	DefaultRateWindow      = time.Second
	DefaultRateBurst       = 10
	DefaultCoalesceDelay   = 100 * time.Millisecond

	// MinCost keeps composite metrics strictly positive so shortest path
	// computation always terminates.
	MinCost = 1e-4

	DefaultPort = uint16(4791)

	NodeConfigPath    = "osdrp/node.yaml"
	CentralConfigPath = "osdrp/central.yaml"
)
