package core

import (
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/Oshadha-Nimantha/osdrp/protocol"
	"github.com/Oshadha-Nimantha/osdrp/state"
	"github.com/jellydator/ttlcache/v3"
)

// Rejection taxonomy. All of these are local and per-message.
var (
	ErrUnknownOriginator = errors.New("no public key known for originator")
	ErrBadSignature      = errors.New("signature does not match payload")
	ErrStaleSeqno        = errors.New("replayed or stale sequence number")
	ErrRateLimited       = errors.New("rate limit exceeded for originator/neighbour pair")
)

type rateKey struct {
	Origin state.NodeId
	From   state.NodeId
}

type rateWindow struct {
	count int
}

// Security verifies inbound LSUs and owns the replay and rate-limit state.
//
// Verify is read-only: it must never advance state for an update that is
// rejected, whatever the reason. State moves only in Commit, which the
// flooding engine calls on the same path that installs the LSDB entry, so the
// two mutations are atomic with respect to the dispatch goroutine.
type Security struct {
	trusted map[state.NodeId]ed25519.PublicKey
	// lastSeqno mirrors the LSDB entry seqnos, but survives staleness sweeps:
	// an expired originator must still present a fresh seqno to come back.
	lastSeqno map[state.NodeId]uint64
	// windows counts accepted LSUs per (originator, receiving neighbour). The
	// TTL is the rate window; entries never refresh on hit, so a window is
	// fixed from its first accept.
	windows *ttlcache.Cache[rateKey, *rateWindow]
	burst   int
}

func NewSecurity(trusted map[state.NodeId]ed25519.PublicKey, window time.Duration, burst int) *Security {
	return &Security{
		trusted:   trusted,
		lastSeqno: make(map[state.NodeId]uint64),
		windows: ttlcache.New[rateKey, *rateWindow](
			ttlcache.WithTTL[rateKey, *rateWindow](window),
			ttlcache.WithDisableTouchOnHit[rateKey, *rateWindow](),
		),
		burst: burst,
	}
}

// Verify checks an LSU received from a direct neighbour. A nil return means
// the update may be accepted; any error names the reject reason.
func (sec *Security) Verify(lsu *protocol.LSU, from state.NodeId) error {
	origin := state.NodeId(lsu.Originator)
	pub, ok := sec.trusted[origin]
	if !ok {
		return ErrUnknownOriginator
	}
	if !lsu.VerifySignature(pub) {
		return ErrBadSignature
	}
	if lsu.Seqno <= sec.lastSeqno[origin] {
		return ErrStaleSeqno
	}
	if w := sec.windows.Get(rateKey{Origin: origin, From: from}); w != nil && w.Value().count >= sec.burst {
		return ErrRateLimited
	}
	return nil
}

// Commit advances replay and rate state for an accepted LSU. Must only be
// called after Verify returned nil, alongside the LSDB install.
func (sec *Security) Commit(lsu *protocol.LSU, from state.NodeId) {
	sec.lastSeqno[state.NodeId(lsu.Originator)] = lsu.Seqno
	key := rateKey{Origin: state.NodeId(lsu.Originator), From: from}
	if w := sec.windows.Get(key); w != nil {
		w.Value().count++
		return
	}
	sec.windows.Set(key, &rateWindow{count: 1}, ttlcache.DefaultTTL)
}

// CommitLocal records a locally originated seqno so that echoes of our own
// LSUs are dropped as stale. Local origination is not rate limited.
func (sec *Security) CommitLocal(lsu *protocol.LSU) {
	sec.lastSeqno[state.NodeId(lsu.Originator)] = lsu.Seqno
}

// LastSeqno returns the highest accepted seqno for an originator.
func (sec *Security) LastSeqno(origin state.NodeId) uint64 {
	return sec.lastSeqno[origin]
}

func (sec *Security) Cleanup() {
	sec.windows.DeleteExpired()
}
