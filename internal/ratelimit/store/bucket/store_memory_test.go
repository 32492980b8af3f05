package bucket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"entgate/internal/ratelimit/models"
)

var testLimit = models.Limit{Limit: 10, Window: time.Minute}

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	ctx   context.Context
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.store = NewInMemoryBucketStore()
	s.ctx = context.Background()
}

func (s *InMemoryBucketStoreSuite) TestAllow() {
	s.Run("first request allowed", func() {
		result, err := s.store.Allow(s.ctx, "grant:first", testLimit)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit.Limit, result.Limit)
		s.Equal(testLimit.Limit-1, result.Remaining)
	})

	s.Run("requests up to limit allowed", func() {
		var result *models.Result
		var err error
		for range testLimit.Limit {
			result, err = s.store.Allow(s.ctx, "grant:to-limit", testLimit)
			s.Require().NoError(err)
		}
		s.True(result.Allowed)
		s.Equal(0, result.Remaining)
	})

	s.Run("request over limit denied", func() {
		for range testLimit.Limit {
			_, err := s.store.Allow(s.ctx, "grant:over", testLimit)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(s.ctx, "grant:over", testLimit)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.False(result.ResetAt.IsZero())
	})

	s.Run("buckets are independent per key", func() {
		for range testLimit.Limit {
			_, err := s.store.Allow(s.ctx, "grant:caller-a", testLimit)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(s.ctx, "grant:caller-b", testLimit)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})

	s.Run("expired window frees budget", func() {
		tight := models.Limit{Limit: 1, Window: 20 * time.Millisecond}
		_, err := s.store.Allow(s.ctx, "grant:expiry", tight)
		s.Require().NoError(err)
		result, err := s.store.Allow(s.ctx, "grant:expiry", tight)
		s.Require().NoError(err)
		s.False(result.Allowed)

		time.Sleep(30 * time.Millisecond)

		result, err = s.store.Allow(s.ctx, "grant:expiry", tight)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})
}

func (s *InMemoryBucketStoreSuite) TestReset() {
	for range testLimit.Limit {
		_, err := s.store.Allow(s.ctx, "grant:reset", testLimit)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.store.Reset(s.ctx, "grant:reset"))

	result, err := s.store.Allow(s.ctx, "grant:reset", testLimit)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *InMemoryBucketStoreSuite) TestConcurrentAllow() {
	const goroutines = 50
	limit := models.Limit{Limit: goroutines / 2, Window: time.Minute}

	var wg sync.WaitGroup
	allowed := make(chan bool, goroutines)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.store.Allow(s.ctx, "grant:concurrent", limit)
			if err == nil {
				allowed <- result.Allowed
			}
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	s.Equal(limit.Limit, count)
}
