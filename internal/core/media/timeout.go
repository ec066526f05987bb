package media

import (
	"context"
	"time"
)

type timeoutStore struct {
	next    Store
	timeout time.Duration
}

// WithTimeout bounds every remote call by d. Any failure, including the
// deadline, is reported as *UploadError or *DeleteError.
func WithTimeout(next Store, d time.Duration) Store {
	if d <= 0 {
		return next
	}
	return &timeoutStore{next: next, timeout: d}
}

func (s *timeoutStore) Upload(ctx context.Context, data []byte) (*Locator, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	loc, err := s.next.Upload(ctx, data)
	if err != nil {
		if IsUploadError(err) {
			return nil, err
		}
		return nil, &UploadError{Err: err}
	}
	return loc, nil
}

func (s *timeoutStore) Delete(ctx context.Context, publicID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.next.Delete(ctx, publicID); err != nil {
		if IsDeleteError(err) {
			return err
		}
		return &DeleteError{PublicID: publicID, Err: err}
	}
	return nil
}
