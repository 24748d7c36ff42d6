package verdict

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/osprey-sec/malscan/internal/db"
	"github.com/osprey-sec/malscan/internal/domain"
)

type mockScorer struct {
	result domain.ScoreResult
	err    error
	calls  int
}

func (m *mockScorer) Score(_ context.Context, _ []byte) (domain.ScoreResult, error) {
	m.calls++
	return m.result, m.err
}

type mockStore struct {
	data     map[string][]byte
	getErr   error
	setErr   error
	setCalls int
	lastTTL  time.Duration
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte)}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalls++
	m.lastTTL = ttl
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func TestScoreMissThenHit(t *testing.T) {
	inner := &mockScorer{result: domain.ScoreResult{
		Probability:  0.9,
		Label:        domain.LabelMalicious,
		Threshold:    0.5,
		FeatureCount: 2,
	}}
	store := newMockStore()
	c := New(inner, store, time.Hour, nil, zap.NewNop())

	data := []byte("MZ sample")

	res, err := c.Score(context.Background(), data)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if res != inner.result {
		t.Errorf("Score() = %+v, want %+v", res, inner.result)
	}
	if inner.calls != 1 {
		t.Fatalf("inner calls = %d, want 1", inner.calls)
	}
	if store.setCalls != 1 || store.lastTTL != time.Hour {
		t.Errorf("store writes = %d ttl %v, want 1 write with 1h TTL", store.setCalls, store.lastTTL)
	}

	// Second submission of the same bytes is served from the cache.
	res, err = c.Score(context.Background(), data)
	if err != nil {
		t.Fatal(err)
	}
	if res != inner.result {
		t.Errorf("cached Score() = %+v, want %+v", res, inner.result)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls after hit = %d, want 1", inner.calls)
	}

	for key := range store.data {
		if !strings.HasPrefix(key, cacheKeyPrefix) {
			t.Errorf("cache key %q lacks prefix %q", key, cacheKeyPrefix)
		}
	}
}

func TestScoreDistinctContentDistinctKeys(t *testing.T) {
	inner := &mockScorer{result: domain.ScoreResult{Label: domain.LabelBenign}}
	store := newMockStore()
	c := New(inner, store, time.Hour, nil, zap.NewNop())

	if _, err := c.Score(context.Background(), []byte("sample one")); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Score(context.Background(), []byte("sample two")); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}
	if len(store.data) != 2 {
		t.Errorf("cached entries = %d, want 2", len(store.data))
	}
}

func TestScoreStoreErrorsDegradeToMiss(t *testing.T) {
	inner := &mockScorer{result: domain.ScoreResult{Probability: 0.1, Threshold: 0.5}}
	store := newMockStore()
	store.getErr = errors.New("connection refused")
	store.setErr = errors.New("connection refused")
	c := New(inner, store, time.Hour, nil, zap.NewNop())

	res, err := c.Score(context.Background(), []byte("MZ"))
	if err != nil {
		t.Fatalf("Score() error = %v, store failures must not fail scoring", err)
	}
	if res != inner.result {
		t.Errorf("Score() = %+v, want inner result", res)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
}

func TestScoreCorruptEntryDegradesToMiss(t *testing.T) {
	inner := &mockScorer{result: domain.ScoreResult{Probability: 0.2}}
	store := newMockStore()
	c := New(inner, store, time.Hour, nil, zap.NewNop())

	data := []byte("MZ corrupt-entry sample")
	store.data[c.cacheKey(data)] = []byte("{not json")

	res, err := c.Score(context.Background(), data)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if res != inner.result {
		t.Errorf("Score() = %+v, want inner result", res)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}

	// The bad entry is overwritten with a valid one.
	var stored domain.ScoreResult
	if err := json.Unmarshal(store.data[c.cacheKey(data)], &stored); err != nil {
		t.Fatalf("re-cached entry is not valid JSON: %v", err)
	}
	if stored != inner.result {
		t.Errorf("re-cached entry = %+v, want %+v", stored, inner.result)
	}
}

func TestScoreInnerErrorNotCached(t *testing.T) {
	inner := &mockScorer{err: domain.ErrMalformedFormat}
	store := newMockStore()
	c := New(inner, store, time.Hour, nil, zap.NewNop())

	if _, err := c.Score(context.Background(), []byte("junk")); !errors.Is(err, domain.ErrMalformedFormat) {
		t.Fatalf("Score() error = %v, want ErrMalformedFormat", err)
	}
	if store.setCalls != 0 {
		t.Errorf("store writes = %d, errors must not be cached", store.setCalls)
	}
}
