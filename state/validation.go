package state

import (
	"fmt"
	"regexp"

	"github.com/Oshadha-Nimantha/osdrp/protocol"
)

var namePattern, _ = regexp.Compile("^[0-9a-zA-Z._-]+$")

func NameValidator(s string) error {
	if !namePattern.MatchString(s) {
		return fmt.Errorf("%s is not a valid node id, must match pattern %s", s, namePattern.String())
	}
	if len(s) > protocol.MaxIdLen {
		return fmt.Errorf("len(%q) = %d exceeds %d", s, len(s), protocol.MaxIdLen)
	}
	return nil
}

func NodeConfigValidator(node *LocalCfg) error {
	if err := NameValidator(string(node.Id)); err != nil {
		return err
	}
	var zero OsPrivateKey
	if node.Key == zero {
		return fmt.Errorf("node %s has no private key", node.Id)
	}
	return nil
}

func CentralConfigValidator(cfg *CentralCfg) error {
	seen := make(map[NodeId]struct{})
	for _, node := range cfg.Nodes {
		if err := NameValidator(string(node.Id)); err != nil {
			return err
		}
		if _, ok := seen[node.Id]; ok {
			return fmt.Errorf("duplicate node id: %s", node.Id)
		}
		seen[node.Id] = struct{}{}
	}
	for _, link := range cfg.Links {
		if link.A == link.B {
			return fmt.Errorf("link endpoints must differ: %s", link.A)
		}
		for _, end := range []NodeId{link.A, link.B} {
			if _, ok := seen[end]; !ok {
				return fmt.Errorf("link references undefined node %s", end)
			}
		}
		if link.BaseLatency < 0 {
			return fmt.Errorf("link %s-%s has negative base latency", link.A, link.B)
		}
		if link.Bandwidth <= 0 {
			return fmt.Errorf("link %s-%s must have positive bandwidth", link.A, link.B)
		}
	}
	for i, a := range cfg.Links {
		for _, b := range cfg.Links[i+1:] {
			if a.Has(b.A) && a.Has(b.B) {
				return fmt.Errorf("duplicate link: %s-%s", b.A, b.B)
			}
		}
	}
	switch cfg.Metric.Mode {
	case "", MetricComposite, MetricStatic:
	default:
		return fmt.Errorf("unknown metric mode %q", cfg.Metric.Mode)
	}
	if cfg.Metric.WLatency < 0 || cfg.Metric.WBandwidth < 0 {
		return fmt.Errorf("metric weights must be non-negative")
	}
	if cfg.Timing.RateBurst < 0 {
		return fmt.Errorf("rate_burst must be non-negative")
	}
	return nil
}
