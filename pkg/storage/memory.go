package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]RunRecord
	histories   map[string][]HistoryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]RunRecord)
	s.histories = make(map[string][]HistoryRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	run.SchemaVersion = CurrentSchemaVersion
	s.runs[run.ID] = copyRun(run)
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return RunRecord{}, false, errors.New("store is not initialized")
	}
	run, ok := s.runs[id]
	if !ok {
		return RunRecord{}, false, nil
	}
	return copyRun(run), true, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errors.New("store is not initialized")
	}
	runs := make([]RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, copyRun(run))
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.Before(runs[j].CreatedAt)
		}
		return runs[i].ID < runs[j].ID
	})
	return runs, nil
}

func (s *MemoryStore) LatestRunByFingerprint(_ context.Context, fingerprint string) (RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return RunRecord{}, false, errors.New("store is not initialized")
	}
	var latest RunRecord
	found := false
	for _, run := range s.runs {
		if run.Fingerprint != fingerprint {
			continue
		}
		if !found || run.CreatedAt.After(latest.CreatedAt) ||
			(run.CreatedAt.Equal(latest.CreatedAt) && run.ID > latest.ID) {
			latest = run
			found = true
		}
	}
	if !found {
		return RunRecord{}, false, nil
	}
	return copyRun(latest), true, nil
}

func (s *MemoryStore) SaveHistory(_ context.Context, runID string, history []HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.histories[runID] = copyHistory(history)
	return nil
}

func (s *MemoryStore) GetHistory(_ context.Context, runID string) ([]HistoryRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, false, errors.New("store is not initialized")
	}
	history, ok := s.histories[runID]
	if !ok {
		return nil, false, nil
	}
	return copyHistory(history), true, nil
}

func copyRun(run RunRecord) RunRecord {
	out := run
	out.Config = append(json.RawMessage(nil), run.Config...)
	out.Front = copyFront(run.Front)
	return out
}

func copyFront(front []FrontRecord) []FrontRecord {
	if front == nil {
		return nil
	}
	out := make([]FrontRecord, len(front))
	for i, f := range front {
		out[i] = FrontRecord{
			Route:      append([]int(nil), f.Route...),
			Objectives: append([]float64(nil), f.Objectives...),
		}
	}
	return out
}

func copyHistory(history []HistoryRecord) []HistoryRecord {
	if history == nil {
		return nil
	}
	out := make([]HistoryRecord, len(history))
	for i, h := range history {
		out[i] = HistoryRecord{
			Generation:  h.Generation,
			Evaluations: h.Evaluations,
			Front:       copyFront(h.Front),
		}
	}
	return out
}
