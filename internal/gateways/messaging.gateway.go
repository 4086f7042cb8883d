package gateway

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nimasrn/admissions-inbox/pkg/logger"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

var (
	ErrCircuitOpen     = errors.New("gateway circuit is open")
	ErrRejected        = errors.New("gateway rejected the message")
	ErrEmptyDeliveryID = errors.New("gateway returned no delivery id")
)

const sendPath = "/v1/messages"

type SendStatus string

const (
	SendStatusAccepted SendStatus = "accepted"
	SendStatusFailed   SendStatus = "failed"
)

type SendRequest struct {
	ChannelRef  string `json:"channel_ref"`
	PhoneNumber string `json:"to"`
	Kind        string `json:"kind"`
	Content     string `json:"content"`
}

type SendResponse struct {
	DeliveryID string     `json:"delivery_id"`
	Status     SendStatus `json:"status"`
	ErrorCode  string     `json:"error_code,omitempty"`
	ErrorMsg   string     `json:"error_message,omitempty"`
}

type Metrics struct {
	TotalRequests    atomic.Int64
	SuccessfulReqs   atomic.Int64
	FailedReqs       atomic.Int64
	TotalLatencyMs   atomic.Int64
	ConsecutiveFails atomic.Int32

	mu             sync.RWMutex
	latencyHistory []int64
	maxHistorySize int
}

func NewMetrics() *Metrics {
	return &Metrics{
		latencyHistory: make([]int64, 0, 100),
		maxHistorySize: 100,
	}
}

func (m *Metrics) RecordSuccess(latencyMs int64) {
	m.TotalRequests.Add(1)
	m.SuccessfulReqs.Add(1)
	m.TotalLatencyMs.Add(latencyMs)
	m.ConsecutiveFails.Store(0)

	m.mu.Lock()
	if len(m.latencyHistory) >= m.maxHistorySize {
		m.latencyHistory = m.latencyHistory[1:]
	}
	m.latencyHistory = append(m.latencyHistory, latencyMs)
	m.mu.Unlock()
}

func (m *Metrics) RecordFailure() int32 {
	m.TotalRequests.Add(1)
	m.FailedReqs.Add(1)
	return m.ConsecutiveFails.Add(1)
}

func (m *Metrics) AvgLatencyMs() int64 {
	ok := m.SuccessfulReqs.Load()
	if ok == 0 {
		return 0
	}
	return m.TotalLatencyMs.Load() / ok
}

func (m *Metrics) SuccessRate() float64 {
	total := m.TotalRequests.Load()
	if total == 0 {
		return 1.0
	}
	return float64(m.SuccessfulReqs.Load()) / float64(total)
}

func (m *Metrics) P95LatencyMs() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.latencyHistory) == 0 {
		return 0
	}

	sorted := make([]int64, len(m.latencyHistory))
	copy(sorted, m.latencyHistory)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	p95Index := int(float64(len(sorted)) * 0.95)
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}
	return sorted[p95Index]
}

type Config struct {
	URL     string
	Token   string
	Timeout time.Duration

	MaxConns        int
	ReadBufferSize  int
	WriteBufferSize int

	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration

	// Rate is the sustained sends per second, Burst the bucket size.
	// Rate <= 0 disables pacing.
	Rate  float64
	Burst int

	// Dial overrides the transport dialer, tests use an in-memory listener.
	Dial fasthttp.DialFunc
}

func DefaultConfig(url, token string) *Config {
	return &Config{
		URL:                     url,
		Token:                   token,
		Timeout:                 10 * time.Second,
		MaxConns:                64,
		ReadBufferSize:          4096,
		WriteBufferSize:         4096,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
		Rate:                    20,
		Burst:                   5,
	}
}

// Client talks to the messaging gateway. It never retries; retry policy
// belongs to the caller.
type Client struct {
	config           *Config
	http             *fasthttp.Client
	limiter          *rate.Limiter
	metrics          *Metrics
	circuitOpenUntil atomic.Int64
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.URL == "" {
		return nil, errors.New("gateway url is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.Rate > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.Rate), burst)
	}

	c := &Client{
		config: config,
		http: &fasthttp.Client{
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
			ReadBufferSize:      config.ReadBufferSize,
			WriteBufferSize:     config.WriteBufferSize,
			Dial:                config.Dial,
		},
		limiter: limiter,
		metrics: NewMetrics(),
	}

	logger.Info("gateway client initialized", "url", config.URL, "timeout", config.Timeout, "rate", config.Rate)
	return c, nil
}

// SendMessage hands one message to the gateway and returns its delivery id.
func (c *Client) SendMessage(ctx context.Context, channelRef, phone, content, kind string) (string, error) {
	if c.circuitOpen() {
		return "", ErrCircuitOpen
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "waiting for send slot")
	}

	body, err := json.Marshal(&SendRequest{
		ChannelRef:  channelRef,
		PhoneNumber: phone,
		Kind:        kind,
		Content:     content,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal request")
	}

	start := time.Now()
	raw, err := c.doRequest(ctx, fasthttp.MethodPost, sendPath, body)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		c.recordFailure()
		return "", err
	}

	var resp SendResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.recordFailure()
		return "", errors.Wrap(err, "failed to unmarshal response")
	}
	if resp.Status == SendStatusFailed {
		// A rejection is an answer from a healthy gateway, the breaker ignores it.
		c.metrics.RecordSuccess(latency)
		return "", errors.Wrapf(ErrRejected, "%s: %s", resp.ErrorCode, resp.ErrorMsg)
	}
	if resp.DeliveryID == "" {
		c.recordFailure()
		return "", ErrEmptyDeliveryID
	}

	c.metrics.RecordSuccess(latency)
	logger.Debug("message handed to gateway", "delivery_id", resp.DeliveryID, "channel_ref", channelRef, "latency_ms", latency)
	return resp.DeliveryID, nil
}

// Ping checks the gateway health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	raw, err := c.doRequest(ctx, fasthttp.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	var health struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &health); err != nil {
		return errors.Wrap(err, "failed to unmarshal health")
	}
	if health.Status != "healthy" {
		return errors.Errorf("gateway reports %q", health.Status)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(strings.TrimRight(c.config.URL, "/") + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok || time.Until(deadline) > c.config.Timeout {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, errors.Wrap(err, "request failed")
	}

	statusCode := resp.StatusCode()
	if statusCode < 200 || statusCode > 299 {
		return nil, errors.Errorf("unexpected status code: %d, body: %s", statusCode, resp.Body())
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())
	return result, nil
}

func (c *Client) circuitOpen() bool {
	until := c.circuitOpenUntil.Load()
	if until == 0 {
		return false
	}
	if time.Now().UnixNano() >= until {
		// half open: let calls through, the next failure reopens it
		c.circuitOpenUntil.Store(0)
		return false
	}
	return true
}

func (c *Client) recordFailure() {
	fails := c.metrics.RecordFailure()
	if c.config.CircuitBreakerThreshold > 0 && fails >= int32(c.config.CircuitBreakerThreshold) {
		c.circuitOpenUntil.Store(time.Now().Add(c.config.CircuitBreakerTimeout).UnixNano())
		logger.Warn("gateway circuit breaker opened", "consecutive_fails", fails, "timeout", c.config.CircuitBreakerTimeout)
	}
}

type Stats struct {
	TotalRequests    int64
	SuccessfulReqs   int64
	FailedReqs       int64
	SuccessRate      float64
	AvgLatencyMs     int64
	P95LatencyMs     int64
	ConsecutiveFails int32
	CircuitOpen      bool
}

func (c *Client) Stats() Stats {
	return Stats{
		TotalRequests:    c.metrics.TotalRequests.Load(),
		SuccessfulReqs:   c.metrics.SuccessfulReqs.Load(),
		FailedReqs:       c.metrics.FailedReqs.Load(),
		SuccessRate:      c.metrics.SuccessRate(),
		AvgLatencyMs:     c.metrics.AvgLatencyMs(),
		P95LatencyMs:     c.metrics.P95LatencyMs(),
		ConsecutiveFails: c.metrics.ConsecutiveFails.Load(),
		CircuitOpen:      c.circuitOpenUntil.Load() > time.Now().UnixNano(),
	}
}
