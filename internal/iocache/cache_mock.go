package iocache

import (
	"time"

	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/schema"
	"github.com/stretchr/testify/mock"
)

// MockCacheManager is a mock implementation of CacheManager for testing.
type MockCacheManager struct {
	mock.Mock
}

var _ contract.CacheManager = &MockCacheManager{} // Compile-time check

// GetFetchStore implements the CacheManager interface.
func (m *MockCacheManager) GetFetchStore() contract.CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CacheStore)
	return store
}

// GetRunStore implements the CacheManager interface.
func (m *MockCacheManager) GetRunStore() contract.RunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunStore)
	return store
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ contract.RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(runUUID string, term string, startTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(runUUID, term, startTime, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(runID int64, endTime time.Time, totalRows int) error {
	args := m.Called(runID, endTime, totalRows)
	return args.Error(0)
}

// RecordRows implements the RunStore interface.
func (m *MockRunStore) RecordRows(runID int64, source string, rows []schema.SourceRow) error {
	args := m.Called(runID, source, rows)
	return args.Error(0)
}

// GetStatus implements the RunStore interface.
func (m *MockRunStore) GetStatus() (schema.RunStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.RunStatus), args.Error(1)
}

// GetAllFetchRuns implements the RunStore interface.
func (m *MockRunStore) GetAllFetchRuns() ([]schema.FetchRunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.FetchRunRecord)
	return runs, args.Error(1)
}

// GetAllFetchRows implements the RunStore interface.
func (m *MockRunStore) GetAllFetchRows() ([]schema.FetchRowRecord, error) {
	args := m.Called()
	rows, _ := args.Get(0).([]schema.FetchRowRecord)
	return rows, args.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
