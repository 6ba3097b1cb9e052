package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/csheth/posterize/internal/poster"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 2 * time.Second
)

// Invoker wraps a Client with bounded retry for transient failures. Fatal
// classifications surface immediately; nothing here writes to disk.
type Invoker struct {
	Client      *Client
	MaxAttempts int           // 0 means defaultMaxAttempts
	BaseDelay   time.Duration // doubles per attempt; 0 means defaultBaseDelay
}

// GenerateImage calls the service, retrying only transient failures with
// exponential backoff. Exhausting the budget surfaces ErrGeneration.
func (inv *Invoker) GenerateImage(ctx context.Context, req poster.Request) (Image, error) {
	attempts := inv.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	delay := inv.BaseDelay
	if delay <= 0 {
		delay = defaultBaseDelay
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		image, err := inv.Client.GenerateImage(ctx, req)
		if err == nil {
			return image, nil
		}
		if !errors.Is(err, errTransient) {
			if errors.Is(err, ErrGeneration) {
				return Image{}, err
			}
			return Image{}, fmt.Errorf("%w: %v", ErrGeneration, err)
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return Image{}, err
		}
		delay *= 2
	}
	return Image{}, fmt.Errorf("%w: giving up after %d attempts: %v", ErrGeneration, attempts, lastErr)
}

// UploadFile delegates to the underlying client.
func (inv *Invoker) UploadFile(ctx context.Context, path, mimeType string) (File, error) {
	return inv.Client.UploadFile(ctx, path, mimeType)
}

// DeleteFile delegates to the underlying client.
func (inv *Invoker) DeleteFile(ctx context.Context, name string) error {
	return inv.Client.DeleteFile(ctx, name)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
