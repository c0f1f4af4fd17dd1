// Package protocol defines the OSDRP wire format.
//
// An LSU is signed over its exact byte encoding, so the codec must be
// canonical: fixed field order, big-endian fixed-width integers, and
// length-prefixed identifiers with no padding. Two encodings of the same
// logical LSU are always byte-identical.
package protocol

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"
)

const (
	// Version is bumped on any incompatible change to the LSU encoding.
	Version = 1

	// MaxAdvertisements bounds the advertisement list of one LSU.
	MaxAdvertisements = 1024

	// MaxIdLen bounds the encoded length of a router id.
	MaxIdLen = 255
)

var (
	ErrTruncated    = errors.New("lsu: truncated packet")
	ErrBadVersion   = errors.New("lsu: unsupported version")
	ErrOversized    = errors.New("lsu: field exceeds protocol bounds")
	ErrTrailing     = errors.New("lsu: trailing bytes after signature")
	ErrUnsorted     = errors.New("lsu: advertisements not in canonical order")
	ErrBadCost      = errors.New("lsu: advertisement cost is not a positive finite number")
	ErrEmptyId      = errors.New("lsu: empty router id")
	ErrDupNeighbour = errors.New("lsu: duplicate neighbour advertisement")
)

// Advertisement is one (neighbour, cost) pair carried by an LSU.
type Advertisement struct {
	Neighbour string
	Cost      float64
}

// LSU is a link state update. It is immutable once signed; every field except
// Signature is covered by the signature.
type LSU struct {
	Originator     string
	Seqno          uint64
	Timestamp      int64 // unix nanoseconds at origination
	Advertisements []Advertisement
	Signature      []byte
}

func appendId(b []byte, id string) []byte {
	b = append(b, byte(len(id)))
	return append(b, id...)
}

// SignedPayload returns the canonical byte encoding of every signed field.
func (l *LSU) SignedPayload() []byte {
	b := make([]byte, 0, 32+16*len(l.Advertisements))
	b = append(b, Version)
	b = appendId(b, l.Originator)
	b = binary.BigEndian.AppendUint64(b, l.Seqno)
	b = binary.BigEndian.AppendUint64(b, uint64(l.Timestamp))
	b = binary.BigEndian.AppendUint16(b, uint16(len(l.Advertisements)))
	for _, adv := range l.Advertisements {
		b = appendId(b, adv.Neighbour)
		b = binary.BigEndian.AppendUint64(b, math.Float64bits(adv.Cost))
	}
	return b
}

// Marshal encodes the full wire record, signature included.
func (l *LSU) Marshal() ([]byte, error) {
	if err := l.checkBounds(); err != nil {
		return nil, err
	}
	if len(l.Signature) != ed25519.SignatureSize {
		return nil, fmt.Errorf("lsu: signature must be %d bytes, got %d", ed25519.SignatureSize, len(l.Signature))
	}
	return append(l.SignedPayload(), l.Signature...), nil
}

func (l *LSU) checkBounds() error {
	if l.Originator == "" {
		return ErrEmptyId
	}
	if len(l.Originator) > MaxIdLen {
		return ErrOversized
	}
	if len(l.Advertisements) > MaxAdvertisements {
		return ErrOversized
	}
	for _, adv := range l.Advertisements {
		if adv.Neighbour == "" {
			return ErrEmptyId
		}
		if len(adv.Neighbour) > MaxIdLen {
			return ErrOversized
		}
		if !(adv.Cost > 0) || math.IsInf(adv.Cost, 0) {
			return ErrBadCost
		}
	}
	if !slices.IsSortedFunc(l.Advertisements, compareAdv) {
		return ErrUnsorted
	}
	for i := 1; i < len(l.Advertisements); i++ {
		if l.Advertisements[i].Neighbour == l.Advertisements[i-1].Neighbour {
			return ErrDupNeighbour
		}
	}
	return nil
}

func compareAdv(a, b Advertisement) int {
	switch {
	case a.Neighbour < b.Neighbour:
		return -1
	case a.Neighbour > b.Neighbour:
		return 1
	}
	return 0
}

// SortAdvertisements puts the advertisement list into canonical order.
// Originators must call this before signing.
func SortAdvertisements(advs []Advertisement) {
	slices.SortFunc(advs, compareAdv)
}

type reader struct {
	b []byte
}

func (r *reader) id() (string, error) {
	if len(r.b) < 1 {
		return "", ErrTruncated
	}
	n := int(r.b[0])
	if len(r.b) < 1+n {
		return "", ErrTruncated
	}
	s := string(r.b[1 : 1+n])
	r.b = r.b[1+n:]
	if s == "" {
		return "", ErrEmptyId
	}
	return s, nil
}

func (r *reader) u64() (uint64, error) {
	if len(r.b) < 8 {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint64(r.b)
	r.b = r.b[8:]
	return v, nil
}

func (r *reader) u16() (uint16, error) {
	if len(r.b) < 2 {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint16(r.b)
	r.b = r.b[2:]
	return v, nil
}

// Unmarshal decodes and structurally validates a wire record. It does not
// verify the signature; that needs the originator's public key.
func Unmarshal(data []byte) (*LSU, error) {
	r := reader{b: data}
	if len(r.b) < 1 {
		return nil, ErrTruncated
	}
	if r.b[0] != Version {
		return nil, ErrBadVersion
	}
	r.b = r.b[1:]

	var (
		l   LSU
		err error
	)
	if l.Originator, err = r.id(); err != nil {
		return nil, err
	}
	if l.Seqno, err = r.u64(); err != nil {
		return nil, err
	}
	ts, err := r.u64()
	if err != nil {
		return nil, err
	}
	l.Timestamp = int64(ts)
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	if count > MaxAdvertisements {
		return nil, ErrOversized
	}
	l.Advertisements = make([]Advertisement, 0, count)
	for i := 0; i < int(count); i++ {
		var adv Advertisement
		if adv.Neighbour, err = r.id(); err != nil {
			return nil, err
		}
		bits, err := r.u64()
		if err != nil {
			return nil, err
		}
		adv.Cost = math.Float64frombits(bits)
		l.Advertisements = append(l.Advertisements, adv)
	}
	if len(r.b) != ed25519.SignatureSize {
		if len(r.b) < ed25519.SignatureSize {
			return nil, ErrTruncated
		}
		return nil, ErrTrailing
	}
	l.Signature = slices.Clone(r.b)
	if err := l.checkBounds(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Sign computes the signature over the canonical payload in place.
func (l *LSU) Sign(priv ed25519.PrivateKey) {
	l.Signature = ed25519.Sign(priv, l.SignedPayload())
}

// VerifySignature reports whether the signature matches the canonical payload.
func (l *LSU) VerifySignature(pub ed25519.PublicKey) bool {
	if len(l.Signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, l.SignedPayload(), l.Signature)
}

// CostTo returns the advertised cost towards the given neighbour.
func (l *LSU) CostTo(neighbour string) (float64, bool) {
	i, ok := slices.BinarySearchFunc(l.Advertisements, Advertisement{Neighbour: neighbour}, compareAdv)
	if !ok {
		return 0, false
	}
	return l.Advertisements[i].Cost, true
}
