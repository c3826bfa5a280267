package perp

import "testing"

func testPosition(key PositionKey) *Position {
	return &Position{
		Key:                 key,
		SizeUsd:             usd(0),
		SizeTokens:          usd(0),
		CollateralAmount:    usd(0),
		PendingImpactTokens: usd(0),
		FundingIndex:        usd(0),
		BorrowingIndex:      usd(0),
	}
}

func TestPositionStoreUpsertGetRemove(t *testing.T) {
	s := NewPositionStore()
	key := PositionKey{Account: AccountId{1}, MarketId: 1, CollateralToken: 1, Side: Long}
	pos := testPosition(key)
	s.Upsert(pos)

	if got := s.Get(key); got != pos {
		t.Fatalf("got %v, want %v", got, pos)
	}
	if removed := s.Remove(key); removed != pos {
		t.Fatalf("got %v, want %v", removed, pos)
	}
	if s.Get(key) != nil {
		t.Fatal("expected position to be gone after remove")
	}
}

func TestPositionStoreGetOrInsertWith(t *testing.T) {
	s := NewPositionStore()
	key := PositionKey{Account: AccountId{2}, MarketId: 1, CollateralToken: 1, Side: Short}
	calls := 0
	build := func(k PositionKey) *Position {
		calls++
		return testPosition(k)
	}

	first := s.GetOrInsertWith(key, build)
	second := s.GetOrInsertWith(key, build)
	if first != second {
		t.Fatal("expected the same position on a second call for the same key")
	}
	if calls != 1 {
		t.Fatalf("constructor called %d times, want 1", calls)
	}
}

func TestPositionStoreForEachVisitsKeyOrdered(t *testing.T) {
	s := NewPositionStore()
	keys := []PositionKey{
		{Account: AccountId{9}, MarketId: 1, CollateralToken: 1, Side: Long},
		{Account: AccountId{1}, MarketId: 2, CollateralToken: 1, Side: Long},
		{Account: AccountId{1}, MarketId: 1, CollateralToken: 2, Side: Long},
		{Account: AccountId{1}, MarketId: 1, CollateralToken: 1, Side: Short},
		{Account: AccountId{1}, MarketId: 1, CollateralToken: 1, Side: Long},
	}
	for _, k := range keys {
		s.Upsert(testPosition(k))
	}

	var visited []PositionKey
	s.ForEach(func(k PositionKey, _ *Position) { visited = append(visited, k) })

	if len(visited) != len(keys) {
		t.Fatalf("visited %d positions, want %d", len(visited), len(keys))
	}
	for i := 1; i < len(visited); i++ {
		if !visited[i-1].less(visited[i]) {
			t.Fatalf("iteration not key-ordered at index %d: %v then %v", i, visited[i-1], visited[i])
		}
	}
}
