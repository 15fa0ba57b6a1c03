// Copyright (c) 2023 BVK Chaitanya

// Package idgen derives a repeatable sequence of client order ids from a seed,
// so that an order placed before a crash can be recognized after a restart.
package idgen

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"

	"github.com/google/uuid"
)

type Generator struct {
	base uuid.UUID
	next uint64
}

// New returns a generator for the seed positioned at offset.
func New(seed string, offset uint64) *Generator {
	return &Generator{base: uuid.UUID(md5.Sum([]byte(seed))), next: offset}
}

// Offset returns the position of the next id. It should be saved along with
// the state that used the ids.
func (v *Generator) Offset() uint64 {
	return v.next
}

// NextID returns the next uuid in the sequence.
func (v *Generator) NextID() uuid.UUID {
	id := v.at(v.next)
	v.next++
	return id
}

// NextClientID returns the next id formatted as 32 hex characters, which most
// exchanges accept as a client order id.
func (v *Generator) NextClientID() string {
	id := v.NextID()
	return hex.EncodeToString(id[:])
}

// RevertID steps back one id, so the last id is returned again. It is used
// when an id was never sent to the exchange.
func (v *Generator) RevertID() {
	if v.next > 0 {
		v.next--
	}
}

// Lookup searches the lookback ids before the current position and the
// lookahead ids after it for a client id. Ids after the current position can
// reach the exchange when a crash loses the saved offset.
func (v *Generator) Lookup(clientID string, lookback, lookahead uint64) (uint64, bool) {
	begin := uint64(0)
	if v.next > lookback {
		begin = v.next - lookback
	}
	for n := begin; n < v.next+lookahead; n++ {
		id := v.at(n)
		if hex.EncodeToString(id[:]) == clientID {
			return n, true
		}
	}
	return 0, false
}

// SkipPast moves the position after n, so that the ids up to n are never
// issued again. Positions behind the current one are ignored.
func (v *Generator) SkipPast(n uint64) {
	if n >= v.next {
		v.next = n + 1
	}
}

func (v *Generator) at(n uint64) uuid.UUID {
	var buf [16 + 8]byte
	copy(buf[:16], v.base[:])
	binary.BigEndian.PutUint64(buf[16:], n)
	return uuid.UUID(md5.Sum(buf[:]))
}
