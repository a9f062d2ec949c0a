package transport

import "time"

// Config controls the behaviour of the client returned by NewClient.
type Config struct {
	// Maximum number of requests in flight at once. Further requests block until a slot frees.
	MaxConcurrentConnections int `validate:"gt=0"`
	// Upper bound on requests started per second, across all slots. Zero disables pacing.
	MaxRequestsPerSecond float64 `validate:"gte=0"`
	// Number of times a request failing with a network error or a 5xx response is retried.
	MaxRetries uint
	// Delay before the first transient retry. Subsequent delays double up to RetryMaxDelay.
	RetryBaseDelay time.Duration `validate:"gt=0"`
	RetryMaxDelay  time.Duration `validate:"gtefield=RetryBaseDelay"`
	// Upper bound on the random jitter added to each transient retry delay. Zero disables jitter.
	RetryMaxJitter time.Duration `validate:"gte=0"`
	// How long to wait after a 429 response before trying again.
	RateLimitCooldown time.Duration `validate:"gte=0"`
	// Number of times a request answered with 429 is retried.
	MaxRateLimitRetries uint
	// Number of redirects followed before the request fails.
	MaxRedirects int `validate:"gte=0"`
	// Deadline for a request once it holds a gate slot, including retries, cooldowns and reading the body. Time
	// spent waiting for a slot does not count. Zero means no deadline.
	RequestTimeout time.Duration `validate:"gte=0"`
	// Sent with every request unless the request already sets one.
	UserAgent string
}

func DefaultConfig() Config {
	return Config{
		MaxConcurrentConnections: 5,
		MaxRetries:               5,
		RetryBaseDelay:           500 * time.Millisecond,
		RetryMaxDelay:            30 * time.Second,
		RetryMaxJitter:           250 * time.Millisecond,
		RateLimitCooldown:        5 * time.Second,
		MaxRateLimitRetries:      5,
		MaxRedirects:             10,
		RequestTimeout:           2 * time.Minute,
	}
}
