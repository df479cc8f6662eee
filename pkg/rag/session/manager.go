package session

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"medichain-be/pkg/store"

	"github.com/google/uuid"
)

// DefaultID is used when a caller does not name a session.
const DefaultID = "default"

const lockStripes = 64

// Store keeps the ordered turn log of each session. Load on an unknown id
// returns an empty history, not an error.
type Store interface {
	Load(ctx context.Context, sessionID string) ([]store.Turn, error)
	Append(ctx context.Context, sessionID string, turns ...store.Turn) error
	Delete(ctx context.Context, sessionID string) error
}

// Manager serializes writers per session id on top of a Store. Readers and
// writers of different sessions never contend on the same stripe unless their
// ids hash together.
type Manager struct {
	store Store
	locks [lockStripes]sync.Mutex
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// NormalizeID trims id and substitutes DefaultID for a blank one.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultID
	}
	return id
}

// NewSessionID issues an opaque identifier for a fresh conversation.
func NewSessionID() string {
	return uuid.New().String()
}

func (m *Manager) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &m.locks[h.Sum32()%lockStripes]
}

// History returns the session's turns in insertion order.
func (m *Manager) History(ctx context.Context, sessionID string) ([]store.Turn, error) {
	turns, err := m.store.Load(ctx, NormalizeID(sessionID))
	if err != nil {
		return nil, err
	}
	if turns == nil {
		turns = []store.Turn{}
	}
	return turns, nil
}

// Append adds turns to the end of the session's history as one unit.
func (m *Manager) Append(ctx context.Context, sessionID string, turns ...store.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	id := NormalizeID(sessionID)

	mu := m.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	return m.store.Append(ctx, id, turns...)
}

// AppendExchange records one question and its final answer.
func (m *Manager) AppendExchange(ctx context.Context, sessionID, question, answer string) error {
	return m.Append(ctx, sessionID,
		store.Turn{Role: store.RoleUser, Text: question},
		store.Turn{Role: store.RoleAssistant, Text: answer},
	)
}

// Close drops the session's history.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	id := NormalizeID(sessionID)

	mu := m.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	return m.store.Delete(ctx, id)
}
