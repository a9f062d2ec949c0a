package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clock "k8s.io/utils/clock/testing"

	"github.com/airbend/airbend-ingest/internal/common/airbenderrors"
)

func testConfig() Config {
	config := DefaultConfig()
	config.RetryBaseDelay = time.Millisecond
	config.RetryMaxDelay = 5 * time.Millisecond
	config.RetryMaxJitter = time.Millisecond
	return config
}

func testMetrics() *Metrics {
	return NewMetrics("test_", prometheus.NewRegistry())
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func get(t *testing.T, client *http.Client, ctx context.Context, url string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	return client.Do(req)
}

func TestClient_AdmissionGateBoundsInFlightRequests(t *testing.T) {
	const capacity = 3
	var inFlight, maxInFlight int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			seen := atomic.LoadInt32(&maxInFlight)
			if current <= seen || atomic.CompareAndSwapInt32(&maxInFlight, seen, current) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	config := testConfig()
	config.MaxConcurrentConnections = capacity
	client := NewClient(config, WithMetrics(testMetrics()))

	var wg sync.WaitGroup
	for i := 0; i < 4*capacity; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := get(t, client, context.Background(), server.URL)
			if assert.NoError(t, err) {
				_, _ = io.ReadAll(resp.Body)
				_ = resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(capacity))
	assert.Greater(t, atomic.LoadInt32(&maxInFlight), int32(0))
}

func TestClient_SlotHeldUntilBodyClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	config := testConfig()
	config.MaxConcurrentConnections = 1
	client := NewClient(config, WithMetrics(testMetrics()))

	first, err := get(t, client, context.Background(), server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = get(t, client, ctx, server.URL)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	require.NoError(t, first.Body.Close())
	second, err := get(t, client, context.Background(), server.URL)
	require.NoError(t, err)
	require.NoError(t, second.Body.Close())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	metrics := testMetrics()
	client := NewClient(testConfig(), WithMetrics(metrics))

	resp, err := get(t, client, context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.retries.WithLabelValues(string(RetryReasonTransient))))
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	config := testConfig()
	config.MaxRetries = 2
	metrics := testMetrics()
	client := NewClient(config, WithMetrics(metrics))

	_, err := get(t, client, context.Background(), server.URL)
	require.Error(t, err)

	assert.True(t, airbenderrors.IsServerError(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.retries.WithLabelValues(string(RetryReasonTransient))))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues(http.MethodGet, "error")))
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(testConfig(), WithMetrics(testMetrics()))

	resp, err := get(t, client, context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_RetriesNetworkErrors(t *testing.T) {
	var calls int32
	base := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("connection reset by peer")
		}
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
	})
	client := NewClient(testConfig(), WithBaseTransport(base), WithMetrics(testMetrics()))

	resp, err := get(t, client, context.Background(), "http://laqn.invalid/sites")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_WaitsCooldownAfterTooManyRequests(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	fakeClock := clock.NewFakeClock(time.Now())
	metrics := testMetrics()
	client := NewClient(testConfig(), WithClock(fakeClock), WithMetrics(metrics))

	type result struct {
		resp *http.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := get(t, client, context.Background(), server.URL)
		done <- result{resp, err}
	}()

	require.Eventually(t, fakeClock.HasWaiters, 5*time.Second, time.Millisecond)
	select {
	case <-done:
		t.Fatal("request completed before the cooldown elapsed")
	default:
	}

	fakeClock.Step(testConfig().RateLimitCooldown)

	r := <-done
	require.NoError(t, r.err)
	defer r.resp.Body.Close()
	assert.Equal(t, http.StatusOK, r.resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.retries.WithLabelValues(string(RetryReasonRateLimited))))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.retries.WithLabelValues(string(RetryReasonTransient))))
}

func TestClient_RateLimitRetriesExhausted(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	config := testConfig()
	config.MaxRateLimitRetries = 0
	client := NewClient(config, WithMetrics(testMetrics()))

	_, err := get(t, client, context.Background(), server.URL)
	require.Error(t, err)

	assert.True(t, airbenderrors.IsRateLimited(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_CooldownHonoursCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	fakeClock := clock.NewFakeClock(time.Now())
	client := NewClient(testConfig(), WithClock(fakeClock), WithMetrics(testMetrics()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := get(t, client, ctx, server.URL)
		done <- err
	}()

	require.Eventually(t, fakeClock.HasWaiters, 5*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("request did not return after cancellation")
	}
}

func TestClient_FollowsRedirectsUpToLimit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		var hop, limit int
		_, _ = fmt.Sscanf(r.URL.Path, "/%d/%d", &hop, &limit)
		if hop < limit {
			http.Redirect(w, r, fmt.Sprintf("/%d/%d", hop+1, limit), http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(testConfig(), WithMetrics(testMetrics()))

	resp, err := get(t, client, context.Background(), server.URL+"/0/10")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = get(t, client, context.Background(), server.URL+"/0/11")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyRedirects))
}

func TestClient_SetsUserAgent(t *testing.T) {
	agents := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.UserAgent()
	}))
	defer server.Close()

	config := testConfig()
	config.UserAgent = "airbend-ingest/test"
	client := NewClient(config, WithMetrics(testMetrics()))

	resp, err := get(t, client, context.Background(), server.URL)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "airbend-ingest/test", <-agents)
}

func TestClient_Pacing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	config := testConfig()
	config.MaxRequestsPerSecond = 20
	client := NewClient(config, WithMetrics(testMetrics()))

	start := time.Now()
	for i := 0; i < 3; i++ {
		resp, err := get(t, client, context.Background(), server.URL)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
	}
	// burst of one, then one request every 50ms
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestClient_RequestTimeoutExcludesQueueing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	config := testConfig()
	config.MaxConcurrentConnections = 1
	config.RequestTimeout = 250 * time.Millisecond
	client := NewClient(config, WithMetrics(testMetrics()))

	// served one at a time, the last request waits far longer than the timeout for its slot
	const requests = 4
	var wg sync.WaitGroup
	var failed int32
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := get(t, client, context.Background(), server.URL)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				return
			}
			_, err = io.ReadAll(resp.Body)
			if err != nil {
				atomic.AddInt32(&failed, 1)
			}
			_ = resp.Body.Close()
		}()
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&failed))
}

func TestClient_RequestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	config := testConfig()
	config.RequestTimeout = 50 * time.Millisecond
	client := NewClient(config, WithMetrics(testMetrics()))

	_, err := get(t, client, context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
