package service

import (
	"context"
	"time"

	"snelos/events"
	"snelos/models"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, id string, initialBalanceCents int64) (*models.Account, error) {
	args := m.Called(ctx, id, initialBalanceCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) AddBalance(ctx context.Context, id string, amountCents int64) (int64, error) {
	args := m.Called(ctx, id, amountCents)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) DeductBalance(ctx context.Context, id string, amountCents int64) (int64, error) {
	args := m.Called(ctx, id, amountCents)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) MarkDailyFreeUsed(ctx context.Context, id string, kind models.FreeActionKind, now time.Time) error {
	args := m.Called(ctx, id, kind, now)
	return args.Error(0)
}

func (m *MockAccountRepository) SetLastReroll(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockAccountRepository) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockLedgerEntryRepository is a mock implementation of LedgerEntryRepository
type MockLedgerEntryRepository struct {
	mock.Mock
}

func (m *MockLedgerEntryRepository) Record(ctx context.Context, entry *models.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) GetByAccount(ctx context.Context, accountID string, limit int) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) SumByAccount(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

// MockTreasuryRepository is a mock implementation of TreasuryRepository
type MockTreasuryRepository struct {
	mock.Mock
}

func (m *MockTreasuryRepository) Get(ctx context.Context) (*models.Treasury, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Treasury), args.Error(1)
}

func (m *MockTreasuryRepository) Create(ctx context.Context, totalUsers, totalPosts int64) (*models.Treasury, error) {
	args := m.Called(ctx, totalUsers, totalPosts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Treasury), args.Error(1)
}

func (m *MockTreasuryRepository) IncrementCredits(ctx context.Context, amountCents int64) error {
	args := m.Called(ctx, amountCents)
	return args.Error(0)
}

func (m *MockTreasuryRepository) IncrementUsers(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTreasuryRepository) IncrementPosts(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockPostRepository is a mock implementation of PostRepository
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) CountByAccountSince(ctx context.Context, accountID string, since time.Time) (int64, error) {
	args := m.Called(ctx, accountID, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostRepository) CreateLike(ctx context.Context, postID, accountID string) error {
	args := m.Called(ctx, postID, accountID)
	return args.Error(0)
}

func (m *MockPostRepository) HasLiked(ctx context.Context, postID, accountID string) (bool, error) {
	args := m.Called(ctx, postID, accountID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) IncrementLikeCount(ctx context.Context, postID string) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

func (m *MockPostRepository) ListFeed(ctx context.Context, viewerID string, limit, offset int) ([]*models.Post, error) {
	args := m.Called(ctx, viewerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockTaskCompletionRepository is a mock implementation of TaskCompletionRepository
type MockTaskCompletionRepository struct {
	mock.Mock
}

func (m *MockTaskCompletionRepository) Create(ctx context.Context, taskID, accountID string, dateUTC time.Time) error {
	args := m.Called(ctx, taskID, accountID, dateUTC)
	return args.Error(0)
}

func (m *MockTaskCompletionRepository) GetCompletedTaskIDs(ctx context.Context, accountID string, dateUTC time.Time) ([]string, error) {
	args := m.Called(ctx, accountID, dateUTC)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockEventPublisher records published events without a real bus
type MockEventPublisher struct {
	Published []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Published = append(m.Published, event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Begin, Commit and
// Rollback are set up with On as usual; the repository accessors return
// whatever SetRepositories installed.
type MockUnitOfWork struct {
	mock.Mock

	accountRepo        AccountRepository
	ledgerEntryRepo    LedgerEntryRepository
	treasuryRepo       TreasuryRepository
	postRepo           PostRepository
	taskCompletionRepo TaskCompletionRepository
	eventBus           EventPublisher
}

// SetRepositories installs the repositories the accessors hand out. A nil
// event bus is replaced with a recording publisher.
func (m *MockUnitOfWork) SetRepositories(
	accountRepo AccountRepository,
	ledgerEntryRepo LedgerEntryRepository,
	treasuryRepo TreasuryRepository,
	postRepo PostRepository,
	taskCompletionRepo TaskCompletionRepository,
	eventBus EventPublisher,
) {
	if eventBus == nil {
		eventBus = &MockEventPublisher{}
	}
	m.accountRepo = accountRepo
	m.ledgerEntryRepo = ledgerEntryRepo
	m.treasuryRepo = treasuryRepo
	m.postRepo = postRepo
	m.taskCompletionRepo = taskCompletionRepo
	m.eventBus = eventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository {
	return m.accountRepo
}

func (m *MockUnitOfWork) LedgerEntryRepository() LedgerEntryRepository {
	return m.ledgerEntryRepo
}

func (m *MockUnitOfWork) TreasuryRepository() TreasuryRepository {
	return m.treasuryRepo
}

func (m *MockUnitOfWork) PostRepository() PostRepository {
	return m.postRepo
}

func (m *MockUnitOfWork) TaskCompletionRepository() TaskCompletionRepository {
	return m.taskCompletionRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
