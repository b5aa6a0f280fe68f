package services_test

import (
	"database/sql"
	"strconv"
	"sync"
	"testing"
	"time"

	"bookfolio/internal/config"
	"bookfolio/internal/services"
)

// memSlot is an in-memory Slot that records every write.
type memSlot struct {
	mu      sync.Mutex
	data    map[string]string
	puts    []string
	failGet error
	failPut error
}

func newMemSlot() *memSlot { return &memSlot{data: map[string]string{}} }

func (s *memSlot) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet != nil {
		return "", s.failGet
	}
	v, ok := s.data[key]
	if !ok {
		return "", sql.ErrNoRows
	}
	return v, nil
}

func (s *memSlot) Put(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut != nil {
		return s.failPut
	}
	s.data[key] = value
	s.puts = append(s.puts, value)
	return nil
}

func (s *memSlot) setFailGet(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGet = err
}

func (s *memSlot) stored() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[services.StorageKey]
}

func (s *memSlot) putCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.puts)
}

func (s *memSlot) lastPut() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.puts) == 0 {
		return ""
	}
	return s.puts[len(s.puts)-1]
}

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// counterIDs hands out g1, g2, ... so tests can predict group ids.
func counterIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return "g" + strconv.Itoa(n)
	}
}

const testDelay = 40 * time.Millisecond

func newTestRegistry(t *testing.T, slot services.Slot, expand config.ExpandPolicy, removal config.RemovalPolicy) *services.Registry {
	t.Helper()
	exp := services.NewExpander(expand)
	exp.Now = fixedClock
	exp.NewGroupID = counterIDs()
	reg := services.NewRegistry(slot, exp, removal, testDelay)
	reg.Now = fixedClock
	t.Cleanup(reg.Close)
	return reg
}
