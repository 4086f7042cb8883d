package main

import (
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SendRequest mirrors what the dispatcher's gateway client posts.
type SendRequest struct {
	ChannelRef  string `json:"channel_ref" binding:"required"`
	PhoneNumber string `json:"to" binding:"required"`
	Kind        string `json:"kind"`
	Content     string `json:"content" binding:"required"`
}

type SendResponse struct {
	DeliveryID string `json:"delivery_id,omitempty"`
	Status     string `json:"status"`
	ErrorCode  string `json:"error_code,omitempty"`
	ErrorMsg   string `json:"error_message,omitempty"`
}

type HealthResponse struct {
	Status       string    `json:"status"`
	GatewayID    string    `json:"gateway_id"`
	Timestamp    time.Time `json:"timestamp"`
	DeliveryRate float64   `json:"delivery_rate"`
}

// MockGateway simulates the chat messaging gateway.
type MockGateway struct {
	mu           sync.Mutex
	deliveryRate float64
	downtimeRate float64
	minDelay     time.Duration
	maxDelay     time.Duration
	token        string
	gatewayID    string
	rng          *rand.Rand
}

func NewMockGateway(deliveryRate, downtimeRate float64, minDelay, maxDelay time.Duration, token string) *MockGateway {
	return &MockGateway{
		deliveryRate: deliveryRate,
		downtimeRate: downtimeRate,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		token:        token,
		gatewayID:    "MOCK_GATEWAY_" + uuid.New().String()[:8],
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *MockGateway) roll() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Float64()
}

func (m *MockGateway) randomDelay() time.Duration {
	delta := m.maxDelay - m.minDelay
	if delta <= 0 {
		return m.minDelay
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.minDelay + time.Duration(m.rng.Int63n(int64(delta)))
}

func (m *MockGateway) rates() (delivery, downtime float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deliveryRate, m.downtimeRate
}

var errorMessages = map[string]string{
	"INVALID_NUMBER":   "The phone number is not reachable on this channel",
	"CHANNEL_INACTIVE": "The channel is not active",
	"INVALID_CONTENT":  "Content violates channel policies",
	"RATE_LIMITED":     "Too many messages for this recipient",
}

var errorCodes = []string{"INVALID_NUMBER", "CHANNEL_INACTIVE", "INVALID_CONTENT", "RATE_LIMITED"}

func (m *MockGateway) simulate(req *SendRequest) *SendResponse {
	time.Sleep(m.randomDelay())

	deliveryRate, _ := m.rates()
	if m.roll() < deliveryRate {
		id := "wamid." + uuid.NewString()
		log.Info().
			Str("delivery_id", id).
			Str("channel_ref", req.ChannelRef).
			Str("to", req.PhoneNumber).
			Msg("Message accepted")
		return &SendResponse{DeliveryID: id, Status: "accepted"}
	}

	m.mu.Lock()
	code := errorCodes[m.rng.Intn(len(errorCodes))]
	m.mu.Unlock()
	log.Warn().
		Str("channel_ref", req.ChannelRef).
		Str("to", req.PhoneNumber).
		Str("error_code", code).
		Msg("Message rejected")
	return &SendResponse{Status: "failed", ErrorCode: code, ErrorMsg: errorMessages[code]}
}

type Handler struct {
	gateway *MockGateway
}

func NewHandler(gateway *MockGateway) *Handler {
	return &Handler{gateway: gateway}
}

func (h *Handler) authorize(c *gin.Context) bool {
	if h.gateway.token == "" {
		return true
	}
	if strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ") == h.gateway.token {
		return true
	}
	c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	return false
}

func (h *Handler) SendMessage(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	_, downtime := h.gateway.rates()
	if h.gateway.roll() < downtime {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Gateway temporarily unavailable"})
		return
	}

	c.JSON(http.StatusOK, h.gateway.simulate(&req))
}

func (h *Handler) HealthCheck(c *gin.Context) {
	deliveryRate, _ := h.gateway.rates()
	c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		GatewayID:    h.gateway.gatewayID,
		Timestamp:    time.Now(),
		DeliveryRate: deliveryRate,
	})
}

// UpdateConfig allows changing the simulated rates at runtime.
func (h *Handler) UpdateConfig(c *gin.Context) {
	var config struct {
		DeliveryRate *float64 `json:"delivery_rate"`
		DowntimeRate *float64 `json:"downtime_rate"`
	}
	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	h.gateway.mu.Lock()
	if r := config.DeliveryRate; r != nil && *r >= 0 && *r <= 1 {
		h.gateway.deliveryRate = *r
	}
	if r := config.DowntimeRate; r != nil && *r >= 0 && *r <= 1 {
		h.gateway.downtimeRate = *r
	}
	deliveryRate, downtimeRate := h.gateway.deliveryRate, h.gateway.downtimeRate
	h.gateway.mu.Unlock()

	log.Info().Float64("delivery_rate", deliveryRate).Float64("downtime_rate", downtimeRate).Msg("Updated configuration")
	c.JSON(http.StatusOK, gin.H{
		"delivery_rate": deliveryRate,
		"downtime_rate": downtimeRate,
	})
}

func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request processed")
	})

	router.POST("/v1/messages", handler.SendMessage)
	router.PUT("/config", handler.UpdateConfig)
	router.GET("/health", handler.HealthCheck)

	return router
}
