package actions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/churnwatch/backend/internal/engine"
	"github.com/churnwatch/backend/internal/models"
)

// PersistFunc writes a freshly applied action through to durable storage.
// A persist failure aborts the apply: the key stays NotApplied.
type PersistFunc func(ctx context.Context, applied models.AppliedAction) error

// Store holds applied retention actions keyed by (customer, action).
// Applied is terminal: an apply for an existing key returns the original
// record unchanged. Applies are serialized per customer so two concurrent
// requests for the same key cannot both observe NotApplied; the race loser
// gets the winner's record. Reads never take the per-customer lock.
type Store struct {
	mu      sync.RWMutex
	applied map[string]models.AppliedAction

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	persist PersistFunc
}

func New(persist PersistFunc) *Store {
	return &Store{
		applied: map[string]models.AppliedAction{},
		locks:   map[string]*sync.Mutex{},
		persist: persist,
	}
}

// Seed loads previously persisted applies, typically at startup.
func (s *Store) Seed(applied []models.AppliedAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range applied {
		s.applied[storeKey(a.CustomerID, a.ActionID)] = a
	}
}

// Clear drops all in-memory applies. Used when the customer dataset is
// reset by a fresh import.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = map[string]models.AppliedAction{}
}

// Apply records the action for the customer. The actionID must name one of
// the customer's candidate actions. Idempotent per (customer, action).
func (s *Store) Apply(ctx context.Context, customerID, actionID string, candidates []models.RetentionAction) (models.AppliedAction, error) {
	if !candidateKnown(actionID, candidates) {
		return models.AppliedAction{}, fmt.Errorf("%w: action %q is not a candidate for customer %s", engine.ErrUnknownAction, actionID, customerID)
	}

	lock := s.customerLock(customerID)
	lock.Lock()
	defer lock.Unlock()

	key := storeKey(customerID, actionID)
	if existing, ok := s.get(key); ok {
		return existing, nil
	}

	applied := models.AppliedAction{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		ActionID:   actionID,
		AppliedAt:  time.Now().UTC(),
	}
	if s.persist != nil {
		if err := s.persist(ctx, applied); err != nil {
			return models.AppliedAction{}, err
		}
	}

	s.mu.Lock()
	s.applied[key] = applied
	s.mu.Unlock()
	return applied, nil
}

// Get reports the applied action for the key, if any.
func (s *Store) Get(customerID, actionID string) (models.AppliedAction, bool) {
	return s.get(storeKey(customerID, actionID))
}

// ListForCustomer returns the customer's applied actions in apply order.
func (s *Store) ListForCustomer(customerID string) []models.AppliedAction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.AppliedAction
	for _, a := range s.applied {
		if a.CustomerID == customerID {
			out = append(out, a)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].AppliedAt.Before(out[j-1].AppliedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func (s *Store) get(key string) (models.AppliedAction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.applied[key]
	return a, ok
}

func (s *Store) customerLock(customerID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[customerID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[customerID] = lock
	}
	return lock
}

func candidateKnown(actionID string, candidates []models.RetentionAction) bool {
	for _, c := range candidates {
		if c.ID == actionID {
			return true
		}
	}
	return false
}

func storeKey(customerID, actionID string) string {
	return customerID + "\x00" + actionID
}
