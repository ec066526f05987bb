package media

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// circuitState represents the state of a circuit breaker
type circuitState int

const (
	stateClosed   circuitState = iota // Normal operation
	stateOpen                         // Store is failing, calls rejected
	stateHalfOpen                     // One probe allowed through
)

const (
	opUpload = "upload"
	opDelete = "delete"
)

// circuitBreaker tracks consecutive failures per operation
type circuitBreaker struct {
	now              func() time.Time
	failures         map[string]int
	lastFailure      map[string]time.Time
	state            map[string]circuitState
	failureThreshold int
	openDuration     time.Duration
	mu               sync.Mutex
}

func newCircuitBreaker(threshold int, openDuration time.Duration) *circuitBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if openDuration <= 0 {
		openDuration = time.Minute
	}
	return &circuitBreaker{
		now:              time.Now,
		failureThreshold: threshold,
		openDuration:     openDuration,
		failures:         make(map[string]int),
		lastFailure:      make(map[string]time.Time),
		state:            make(map[string]circuitState),
	}
}

// canAttempt reports whether op may call the store right now
func (cb *circuitBreaker) canAttempt(op string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state[op] {
	case stateOpen:
		lastFail := cb.lastFailure[op]
		if cb.now().Sub(lastFail) > cb.openDuration {
			cb.state[op] = stateHalfOpen
			log.Printf("[MEDIA-CIRCUIT] Circuit for '%s' is now HALF-OPEN (testing)", op)
			return nil
		}
		return fmt.Errorf("%w for %s (failures: %d, next retry: %s)",
			ErrCircuitOpen, op, cb.failures[op], lastFail.Add(cb.openDuration).Format("15:04:05"))
	default:
		return nil
	}
}

func (cb *circuitBreaker) recordSuccess(op string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state[op] != stateClosed {
		log.Printf("[MEDIA-CIRCUIT] Circuit for '%s' is now CLOSED (recovered)", op)
	}
	delete(cb.failures, op)
	delete(cb.lastFailure, op)
	cb.state[op] = stateClosed
}

func (cb *circuitBreaker) recordFailure(op string, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures[op]++
	cb.lastFailure[op] = cb.now()
	failCount := cb.failures[op]

	if failCount >= cb.failureThreshold || cb.state[op] == stateHalfOpen {
		if cb.state[op] != stateOpen {
			log.Printf("[MEDIA-CIRCUIT] Opening circuit for '%s' after %d consecutive failures. Last error: %v",
				op, failCount, err)
		}
		cb.state[op] = stateOpen
		return
	}
	log.Printf("[MEDIA-CIRCUIT] Failure %d/%d for '%s': %v", failCount, cb.failureThreshold, op, err)
}

type breakerStore struct {
	next    Store
	breaker *circuitBreaker
}

// WithCircuitBreaker fails fast once threshold consecutive calls of the same
// operation have failed, until openDuration has passed.
func WithCircuitBreaker(next Store, threshold int, openDuration time.Duration) Store {
	return &breakerStore{next: next, breaker: newCircuitBreaker(threshold, openDuration)}
}

func (s *breakerStore) Upload(ctx context.Context, data []byte) (*Locator, error) {
	if err := s.breaker.canAttempt(opUpload); err != nil {
		return nil, &UploadError{Err: err}
	}
	loc, err := s.next.Upload(ctx, data)
	if err != nil {
		s.breaker.recordFailure(opUpload, err)
		return nil, err
	}
	s.breaker.recordSuccess(opUpload)
	return loc, nil
}

func (s *breakerStore) Delete(ctx context.Context, publicID string) error {
	if err := s.breaker.canAttempt(opDelete); err != nil {
		return &DeleteError{PublicID: publicID, Err: err}
	}
	if err := s.next.Delete(ctx, publicID); err != nil {
		s.breaker.recordFailure(opDelete, err)
		return err
	}
	s.breaker.recordSuccess(opDelete)
	return nil
}
