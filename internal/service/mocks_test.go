package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"dispatch/internal/domain"
	"dispatch/internal/events"
	"dispatch/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK JOURNEY REPOSITORY
// ──────────────────────────────────────────────

// MockJourneyRepository is an in-memory JourneyRepository. UpdateIfMatch
// compares and writes under one lock, like the conditional UPDATE it stands in for.
type MockJourneyRepository struct {
	mu       sync.RWMutex
	journeys map[string]*domain.Journey

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockJourneyRepository creates a new mock journey repository.
func NewMockJourneyRepository() *MockJourneyRepository {
	return &MockJourneyRepository{
		journeys: make(map[string]*domain.Journey),
	}
}

// AddJourney adds a journey to the mock repository.
func (m *MockJourneyRepository) AddJourney(j *domain.Journey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journeys[j.ID] = j.Clone()
}

func (m *MockJourneyRepository) Create(ctx context.Context, j *domain.Journey) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.journeys[j.ID]; ok {
		return repository.ErrAlreadyExists
	}
	m.journeys[j.ID] = j.Clone()
	return nil
}

func (m *MockJourneyRepository) GetByID(ctx context.Context, id string) (*domain.Journey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.journeys[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return j.Clone(), nil
}

func (m *MockJourneyRepository) List(ctx context.Context, f repository.JourneyFilter) ([]*domain.Journey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.Journey
	for _, j := range m.journeys {
		if f.RiderID != "" && j.RiderID != f.RiderID {
			continue
		}
		if f.DriverID != "" && j.DriverID != f.DriverID {
			continue
		}
		if f.Status != "" && j.Status != f.Status {
			continue
		}
		result = append(result, j.Clone())
	}
	sort.Slice(result, func(a, b int) bool {
		return result[a].RequestedAt.After(result[b].RequestedAt)
	})
	return result, nil
}

func (m *MockJourneyRepository) UpdateIfMatch(ctx context.Context, j *domain.Journey, match repository.Match) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.journeys[j.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Status != match.Status || current.PaymentStatus != match.PaymentStatus {
		return repository.ErrPreconditionFailed
	}
	m.journeys[j.ID] = j.Clone()
	return nil
}

// GetJourney returns the stored journey (for test assertions).
func (m *MockJourneyRepository) GetJourney(id string) *domain.Journey {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.journeys[id]
}

func (m *MockJourneyRepository) snapshot() map[string]*domain.Journey {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*domain.Journey, len(m.journeys))
	for id, j := range m.journeys {
		out[id] = j.Clone()
	}
	return out
}

func (m *MockJourneyRepository) restore(s map[string]*domain.Journey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journeys = s
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is an in-memory DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	UpdateCallCount    int32
	IncrementCallCount int32

	// Error injection
	CreateError    error
	IncrementError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(d *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *d
	m.drivers[d.ID] = &copy
}

func (m *MockDriverRepository) Create(ctx context.Context, d *domain.Driver) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.drivers {
		if existing.AccountID == d.AccountID {
			return repository.ErrAlreadyExists
		}
	}
	copy := *d
	m.drivers[d.ID] = &copy
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *d
	return &copy, nil
}

func (m *MockDriverRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.AccountID == accountID {
			copy := *d
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDriverRepository) Update(ctx context.Context, d *domain.Driver) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drivers[d.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *d
	m.drivers[d.ID] = &copy
	return nil
}

func (m *MockDriverRepository) IncrementTotalRides(ctx context.Context, id string) error {
	atomic.AddInt32(&m.IncrementCallCount, 1)
	if m.IncrementError != nil {
		return m.IncrementError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.Stats.TotalRides++
	return nil
}

// GetDriver returns the stored driver (for test assertions).
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

// ──────────────────────────────────────────────
// MOCK ACCOUNT REPOSITORY
// ──────────────────────────────────────────────

// MockAccountRepository is an in-memory AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	GetErr       error
	GetCallCount int32
}

// NewMockAccountRepository creates a new mock account repository.
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{accounts: make(map[string]*domain.Account)}
}

func (m *MockAccountRepository) Create(ctx context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.ID]; ok {
		return repository.ErrAlreadyExists
	}
	copy := *a
	m.accounts[a.ID] = &copy
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	a, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *a
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK UNIT OF WORK
// ──────────────────────────────────────────────

// MockUnitOfWork snapshots both repositories and restores them when fn fails.
type MockUnitOfWork struct {
	mu       sync.Mutex
	journeys *MockJourneyRepository
	drivers  *MockDriverRepository
}

func (u *MockUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, s repository.Stores) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	journeys := u.journeys.snapshot()
	u.drivers.mu.RLock()
	drivers := make(map[string]*domain.Driver, len(u.drivers.drivers))
	for id, d := range u.drivers.drivers {
		copy := *d
		drivers[id] = &copy
	}
	u.drivers.mu.RUnlock()

	if err := fn(ctx, repository.Stores{Journeys: u.journeys, Drivers: u.drivers}); err != nil {
		u.journeys.restore(journeys)
		u.drivers.mu.Lock()
		u.drivers.drivers = drivers
		u.drivers.mu.Unlock()
		return err
	}
	return nil
}

// ──────────────────────────────────────────────
// RECORDING PUBLISHER
// ──────────────────────────────────────────────

// RecordingPublisher keeps every published event.
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []events.JourneyEvent
}

func (p *RecordingPublisher) Publish(ctx context.Context, e events.JourneyEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, e)
	return nil
}

// Kinds returns the kinds of the published events in order.
func (p *RecordingPublisher) Kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]events.Kind, 0, len(p.Events))
	for _, e := range p.Events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// ──────────────────────────────────────────────
// MOCK DRIVER CACHE
// ──────────────────────────────────────────────

// MockDriverCache is an in-memory DriverCache.
type MockDriverCache struct {
	mu      sync.Mutex
	drivers map[string]*domain.Driver

	GetCallCount        int32
	InvalidateCallCount int32
}

// NewMockDriverCache creates a new mock driver cache.
func NewMockDriverCache() *MockDriverCache {
	return &MockDriverCache{drivers: make(map[string]*domain.Driver)}
}

func (c *MockDriverCache) Get(ctx context.Context, accountID string) (*domain.Driver, error) {
	atomic.AddInt32(&c.GetCallCount, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.drivers[accountID]
	if !ok {
		return nil, nil
	}
	copy := *d
	return &copy, nil
}

func (c *MockDriverCache) Set(ctx context.Context, d *domain.Driver) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copy := *d
	c.drivers[d.AccountID] = &copy
	return nil
}

func (c *MockDriverCache) Invalidate(ctx context.Context, accountID string) error {
	atomic.AddInt32(&c.InvalidateCallCount, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.drivers, accountID)
	return nil
}

// Has reports whether accountID is cached.
func (c *MockDriverCache) Has(accountID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.drivers[accountID]
	return ok
}
