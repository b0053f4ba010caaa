package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"snelos/events"
	"snelos/models"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	treasuryCacheKey = "treasury:summary"
	treasuryCacheTTL = 30 * time.Second
)

// treasuryService implements the TreasuryService interface. The aggregate is
// a display row, never consulted for authorization, so updates ride on
// post-commit events and reads go through a short-lived cache.
type treasuryService struct {
	uowFactory UnitOfWorkFactory
	cache      *redis.Client // nil disables caching
}

// NewTreasuryService creates a new treasury service
func NewTreasuryService(uowFactory UnitOfWorkFactory, cache *redis.Client) TreasuryService {
	return &treasuryService{
		uowFactory: uowFactory,
		cache:      cache,
	}
}

// RegisterSubscriptions wires the treasury aggregate to the ledger events
// that feed it
func (s *treasuryService) RegisterSubscriptions(bus *events.Bus) {
	bus.Subscribe(events.EventTypeCreditsChanged, s.handleCreditsChanged)
	bus.Subscribe(events.EventTypeAccountCreated, s.handleAccountCreated)
	bus.Subscribe(events.EventTypePostCreated, s.handlePostCreated)
}

// GetSummary returns the treasury aggregate, creating it lazily on first
// access with the current user and post counts
func (s *treasuryService) GetSummary(ctx context.Context) (*models.Treasury, error) {
	if cached := s.readCache(ctx); cached != nil {
		return cached, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	treasury, err := uow.TreasuryRepository().Get(ctx)
	if err != nil {
		return nil, err
	}

	if treasury == nil {
		totalUsers, err := uow.AccountRepository().CountAll(ctx)
		if err != nil {
			return nil, err
		}
		totalPosts, err := uow.PostRepository().CountAll(ctx)
		if err != nil {
			return nil, err
		}

		treasury, err = uow.TreasuryRepository().Create(ctx, totalUsers, totalPosts)
		if err != nil {
			return nil, err
		}
		if err := uow.Commit(); err != nil {
			return nil, err
		}
	}

	s.writeCache(ctx, treasury)
	return treasury, nil
}

func (s *treasuryService) handleCreditsChanged(ctx context.Context, event events.Event) {
	e, ok := event.(events.CreditsChangedEvent)
	if !ok {
		return
	}

	// Only charges feed the cumulative credits-moved counter
	if e.DeltaCents >= 0 {
		return
	}

	s.applyUpdate(ctx, "credits", func(repo TreasuryRepository) error {
		return repo.IncrementCredits(ctx, -e.DeltaCents)
	})
}

func (s *treasuryService) handleAccountCreated(ctx context.Context, event events.Event) {
	if _, ok := event.(events.AccountCreatedEvent); !ok {
		return
	}

	s.applyUpdate(ctx, "users", func(repo TreasuryRepository) error {
		return repo.IncrementUsers(ctx)
	})
}

func (s *treasuryService) handlePostCreated(ctx context.Context, event events.Event) {
	if _, ok := event.(events.PostCreatedEvent); !ok {
		return
	}

	s.applyUpdate(ctx, "posts", func(repo TreasuryRepository) error {
		return repo.IncrementPosts(ctx)
	})
}

// applyUpdate runs a treasury mutation in its own unit of work. Failures are
// logged and dropped: the aggregate is best-effort and must never fail a
// ledger operation that already committed.
func (s *treasuryService) applyUpdate(ctx context.Context, counter string, fn func(repo TreasuryRepository) error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).WithField("counter", counter).Error("Failed to begin treasury update")
		return
	}
	defer uow.Rollback()

	if err := fn(uow.TreasuryRepository()); err != nil {
		log.WithError(err).WithField("counter", counter).Error("Failed to update treasury aggregate")
		return
	}

	if err := uow.Commit(); err != nil {
		log.WithError(err).WithField("counter", counter).Error("Failed to commit treasury update")
		return
	}

	s.invalidateCache(ctx)
}

func (s *treasuryService) readCache(ctx context.Context) *models.Treasury {
	if s.cache == nil {
		return nil
	}

	data, err := s.cache.Get(ctx, treasuryCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.WithError(err).Debug("Treasury cache read failed")
		}
		return nil
	}

	var treasury models.Treasury
	if err := json.Unmarshal(data, &treasury); err != nil {
		log.WithError(err).Warn("Discarding malformed treasury cache entry")
		return nil
	}
	return &treasury
}

func (s *treasuryService) writeCache(ctx context.Context, treasury *models.Treasury) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(treasury)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, treasuryCacheKey, data, treasuryCacheTTL).Err(); err != nil {
		log.WithError(err).Debug("Treasury cache write failed")
	}
}

func (s *treasuryService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, treasuryCacheKey).Err(); err != nil {
		log.WithError(err).Debug("Treasury cache invalidation failed")
	}
}
