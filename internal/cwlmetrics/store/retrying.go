package store

import (
	"context"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/cwl-metrics/cwl-metrics/internal/common/metricserrors"
)

// RetryingStore retries queries that fail with a transient transport error,
// i.e., no response at all, 429 Too Many Requests, or a 5xx status.
// Any other error is returned immediately.
type RetryingStore struct {
	store    Store
	attempts uint
	delay    time.Duration
}

func NewRetryingStore(s Store, attempts uint, delay time.Duration) *RetryingStore {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingStore{
		store:    s,
		attempts: attempts,
		delay:    delay,
	}
}

func (s *RetryingStore) Search(ctx context.Context, q *Query) (*SearchResult, error) {
	var result *SearchResult
	err := retry.Do(
		func() error {
			var err error
			result, err = s.store.Search(ctx, q)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.RetryIf(isTransient),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.WithError(err).WithField("index", q.Index).Warnf("query failed (attempt %d of %d)", n+1, s.attempts)
		}),
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var transportErr *metricserrors.ErrTransport
	if !errors.As(err, &transportErr) {
		return false
	}
	code := transportErr.StatusCode
	return code == 0 || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

var _ Store = &RetryingStore{}
