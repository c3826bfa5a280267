package perp

import (
	"bytes"
	"math/big"
	"sort"
)

// PositionKey uniquely identifies a trader's position on a market.
type PositionKey struct {
	Account         AccountId
	MarketId        MarketId
	CollateralToken AssetId
	Side            Side
}

// less orders keys by account bytes, then market, then collateral token,
// then side, giving ForEach a total, stable ordering independent of Go's
// randomized map iteration.
func (k PositionKey) less(other PositionKey) bool {
	if c := bytes.Compare(k.Account[:], other.Account[:]); c != 0 {
		return c < 0
	}
	if k.MarketId != other.MarketId {
		return k.MarketId < other.MarketId
	}
	if k.CollateralToken != other.CollateralToken {
		return k.CollateralToken < other.CollateralToken
	}
	return k.Side < other.Side
}

// Position is the stored state of a single trader position.
type Position struct {
	Key PositionKey

	// SizeUsd is the position's notional size in USD.
	SizeUsd *Usd

	// SizeTokens is the position's size denominated in index tokens.
	SizeTokens *TokenAmount

	// CollateralAmount is collateral held, denominated in the collateral token.
	CollateralAmount *TokenAmount

	// PendingImpactTokens is deferred price impact, in index tokens; may be
	// negative.
	PendingImpactTokens *TokenAmount

	// FundingIndex is the funding index snapshot as of the last settlement.
	FundingIndex *big.Int

	// BorrowingIndex is the borrowing index snapshot as of the last settlement.
	BorrowingIndex *big.Int

	OpenedAt      Timestamp
	LastUpdatedAt Timestamp
}

// PositionStore owns the map of live positions, the way the teacher's
// account manager owns its account map behind small typed methods.
type PositionStore struct {
	positions map[PositionKey]*Position
}

// NewPositionStore returns an empty store.
func NewPositionStore() *PositionStore {
	return &PositionStore{positions: make(map[PositionKey]*Position)}
}

// Get returns the position for key, or nil if none exists.
func (s *PositionStore) Get(key PositionKey) *Position {
	return s.positions[key]
}

// Upsert inserts or replaces the position at its own key.
func (s *PositionStore) Upsert(pos *Position) {
	s.positions[pos.Key] = pos
}

// Remove deletes the position at key, returning it if it existed.
func (s *PositionStore) Remove(key PositionKey) *Position {
	pos := s.positions[key]
	delete(s.positions, key)
	return pos
}

// GetOrInsertWith returns the existing position at key, or constructs and
// stores a new one via f if absent.
func (s *PositionStore) GetOrInsertWith(key PositionKey, f func(PositionKey) *Position) *Position {
	if pos, ok := s.positions[key]; ok {
		return pos
	}
	pos := f(key)
	s.positions[key] = pos
	return pos
}

// Len reports the number of live positions.
func (s *PositionStore) Len() int { return len(s.positions) }

// ForEach visits every (key, position) pair in ascending PositionKey order,
// so hosts that fold over all positions (funding/borrowing sweeps, snapshot
// export) get a deterministic, reproducible traversal.
func (s *PositionStore) ForEach(f func(PositionKey, *Position)) {
	keys := make([]PositionKey, 0, len(s.positions))
	for k := range s.positions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	for _, k := range keys {
		f(k, s.positions[k])
	}
}
