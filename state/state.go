package state

import (
	"context"
	"crypto/ed25519"
	"log/slog"
	"slices"
	"sync/atomic"
)

// NodeId uniquely identifies a router in the network. Ids are opaque keys;
// topology never holds direct references between router objects.
type NodeId string

type OsModule interface {
	Init(s *State) error
	Cleanup(s *State) error
}

// State access must be done only on the dispatch goroutine
type State struct {
	*Env
	TrustedNodes map[NodeId]ed25519.PublicKey
	Modules      map[string]OsModule
	// Neighbours is the established neighbour set for this router. Neighbour
	// discovery is out of scope; the set comes from configuration.
	Neighbours []NodeId
}

func (s *State) IsNeighbour(node NodeId) bool {
	return slices.Contains(s.Neighbours, node)
}

// Env can be read from any goroutine
type Env struct {
	DispatchChannel chan<- func(s *State) error
	CentralCfg
	LocalCfg
	Context  context.Context
	Cancel   context.CancelCauseFunc
	Log      *slog.Logger
	Started  atomic.Bool
	Stopping atomic.Bool
}
