// Package postgres provides PostgreSQL infrastructure components.
package postgres

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inkpress/pkg/logger"
)

// State describes the connection manager lifecycle.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return "disconnected"
	}
}

// PoolConfig holds connection pool configuration.
type PoolConfig struct {
	DSN               string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration

	// Connection-establishment retry. In-flight queries are never retried
	// here; retrying a non-idempotent mutation could double-apply it.
	MaxRetries   int
	RetryBackoff time.Duration
	MaxBackoff   time.Duration
}

// DefaultPoolConfig returns sensible defaults for production.
func DefaultPoolConfig(dsn string) PoolConfig {
	return PoolConfig{
		DSN:               dsn,
		MaxConns:          25,
		MinConns:          5,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   30 * time.Minute,
		HealthCheckPeriod: time.Minute,
		MaxRetries:        5,
		RetryBackoff:      time.Second,
		MaxBackoff:        10 * time.Second,
	}
}

// StateHook observes connection manager state transitions.
type StateHook func(State)

// Manager owns the connection pool and exposes its lifecycle as an
// observable state machine instead of free-standing connected/connecting
// flags.
type Manager struct {
	cfg   PoolConfig
	state atomic.Int32

	mu    sync.Mutex
	pool  *pgxpool.Pool
	hooks []StateHook
}

// NewManager creates a disconnected Manager. Hooks fire on every state
// transition, in registration order.
func NewManager(cfg PoolConfig, hooks ...StateHook) *Manager {
	return &Manager{cfg: cfg, hooks: hooks}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Pool returns the underlying pool. Nil until Connect succeeds.
func (m *Manager) Pool() *pgxpool.Pool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pool
}

// Connect establishes the pool, retrying with capped exponential backoff.
// Retry happens only at the establishment stage.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State() == StateConnected {
		return nil
	}
	m.setState(StateConnecting)

	backoff := m.cfg.RetryBackoff
	var lastErr error
	for attempt := 1; attempt <= m.cfg.MaxRetries; attempt++ {
		pool, err := m.open(ctx)
		if err == nil {
			m.pool = pool
			m.setState(StateConnected)
			return nil
		}
		lastErr = err
		logger.Warn(ctx, "database connection attempt failed",
			"attempt", attempt,
			"max_retries", m.cfg.MaxRetries,
			"backoff", backoff,
			"error", err,
		)
		if attempt == m.cfg.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			m.setState(StateDisconnected)
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > m.cfg.MaxBackoff {
			backoff = m.cfg.MaxBackoff
		}
	}

	m.setState(StateDisconnected)
	return fmt.Errorf("connect database after %d attempts: %w", m.cfg.MaxRetries, lastErr)
}

// Close drains and closes the pool.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pool == nil {
		m.setState(StateDisconnected)
		return
	}
	m.setState(StateClosing)
	m.pool.Close()
	m.pool = nil
	m.setState(StateDisconnected)
}

// Ping verifies the pool is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.Lock()
	pool := m.pool
	m.mu.Unlock()

	if pool == nil {
		return fmt.Errorf("database not connected (state: %s)", m.State())
	}
	return pool.Ping(ctx)
}

func (m *Manager) open(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(m.cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	poolConfig.MaxConns = m.cfg.MaxConns
	poolConfig.MinConns = m.cfg.MinConns
	poolConfig.MaxConnLifetime = m.cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = m.cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = m.cfg.HealthCheckPeriod

	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		// Set application name for debugging
		_, err := conn.Exec(ctx, "SET application_name = 'inkpress'")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func (m *Manager) setState(s State) {
	m.state.Store(int32(s))
	for _, hook := range m.hooks {
		hook(s)
	}
}
