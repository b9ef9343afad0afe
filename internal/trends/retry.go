package trends

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/huangsam/hypeplot/schema"
)

// maxRetries is the number of additional attempts after a 429.
const maxRetries = 3

func defaultRand() float64 { return rand.Float64() }

// backoff returns int(4*(attempt+1)*U[0.8,1.4]) seconds for a uniform u in [0, 1).
func backoff(attempt int, u float64) time.Duration {
	jitter := 0.8 + 0.6*u
	return time.Duration(int(float64(4*(attempt+1))*jitter)) * time.Second
}

// fetchWithRetries retries rate-limited requests only. Any other error stops
// immediately and there is no wait after the final attempt.
func (c *Client) fetchWithRetries(ctx context.Context, keyword, timeframe, geo string) ([]schema.WeeklyPoint, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		points, err := c.interestOverTime(ctx, keyword, timeframe, geo)
		if err == nil {
			return points, nil
		}
		lastErr = err
		if !errors.Is(err, ErrTooManyRequests) || attempt == maxRetries {
			break
		}
		if err := c.sleep(ctx, backoff(attempt, c.rand())); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}
