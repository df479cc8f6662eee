package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"medichain-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapStore is deliberately unsynchronized; Manager must serialize writers.
type mapStore struct {
	mu    sync.RWMutex
	turns map[string][]store.Turn
}

func newMapStore() *mapStore {
	return &mapStore{turns: make(map[string][]store.Turn)}
}

func (s *mapStore) Load(_ context.Context, id string) ([]store.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]store.Turn(nil), s.turns[id]...), nil
}

func (s *mapStore) Append(_ context.Context, id string, turns ...store.Turn) error {
	s.mu.RLock()
	current := s.turns[id]
	s.mu.RUnlock()

	next := append(append([]store.Turn(nil), current...), turns...)

	s.mu.Lock()
	s.turns[id] = next
	s.mu.Unlock()
	return nil
}

func (s *mapStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.turns, id)
	s.mu.Unlock()
	return nil
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, DefaultID, NormalizeID(""))
	assert.Equal(t, DefaultID, NormalizeID("   "))
	assert.Equal(t, "abc", NormalizeID(" abc "))
	assert.NotEqual(t, NewSessionID(), NewSessionID())
}

func TestAppendThenHistoryKeepsOrder(t *testing.T) {
	m := NewManager(newMapStore())
	ctx := context.Background()

	empty, err := m.History(ctx, "s1")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	var want []store.Turn
	for i := 0; i < 5; i++ {
		turn := store.Turn{Role: store.RoleUser, Text: fmt.Sprintf("q%d", i)}
		want = append(want, turn)
		require.NoError(t, m.Append(ctx, "s1", turn))
	}

	got, err := m.History(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBlankIDSharesDefaultSession(t *testing.T) {
	m := NewManager(newMapStore())
	ctx := context.Background()

	require.NoError(t, m.AppendExchange(ctx, "", "hi", "hello"))

	got, err := m.History(ctx, DefaultID)
	require.NoError(t, err)
	assert.Equal(t, []store.Turn{
		{Role: store.RoleUser, Text: "hi"},
		{Role: store.RoleAssistant, Text: "hello"},
	}, got)
}

func TestConcurrentExchangesStayPaired(t *testing.T) {
	m := NewManager(newMapStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.AppendExchange(ctx, "shared", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
		}()
	}
	wg.Wait()

	got, err := m.History(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, got, 100)
	for i := 0; i < len(got); i += 2 {
		require.Equal(t, store.RoleUser, got[i].Role)
		require.Equal(t, store.RoleAssistant, got[i+1].Role)
		assert.Equal(t, "a"+got[i].Text[1:], got[i+1].Text)
	}
}

func TestCloseDropsHistory(t *testing.T) {
	m := NewManager(newMapStore())
	ctx := context.Background()

	require.NoError(t, m.AppendExchange(ctx, "s", "q", "a"))
	require.NoError(t, m.Close(ctx, "s"))

	got, err := m.History(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, got)
}
