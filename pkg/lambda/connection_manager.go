package lambda

import (
	"context"
	"fmt"
	"sync"
	"time"

	"air-quality-api/internal/config"
	"air-quality-api/pkg/server"
)

// ConnectionManager keeps the service container alive across warm Lambda
// invocations so a reused execution context does not reconnect to the
// database on every request.
type ConnectionManager struct {
	container *server.Container
	lastUsed  time.Time
	mu        sync.RWMutex
	config    *config.Config
}

var (
	globalConnectionManager *ConnectionManager
	connectionManagerOnce   sync.Once
)

// GetConnectionManager returns the global connection manager instance
func GetConnectionManager() *ConnectionManager {
	connectionManagerOnce.Do(func() {
		globalConnectionManager = &ConnectionManager{}
	})
	return globalConnectionManager
}

// Initialize builds the container with the given configuration
func (cm *ConnectionManager) Initialize(ctx context.Context, cfg *config.Config) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.initializeLocked(ctx, cfg)
}

// initializeLocked builds the container. Callers hold cm.mu. A failed
// attempt leaves the manager uninitialized so the next invocation in a
// warm container retries instead of serving a dead handle.
func (cm *ConnectionManager) initializeLocked(ctx context.Context, cfg *config.Config) error {
	if cm.container != nil {
		return nil
	}

	cm.config = cfg
	container, err := server.NewContainer(ctx, cfg)
	if err != nil {
		return err
	}

	cm.container = container
	cm.lastUsed = time.Now()
	return nil
}

// GetContainer returns the service container, initializing if necessary.
// It never returns a nil container alongside a nil error.
func (cm *ConnectionManager) GetContainer(ctx context.Context) (*server.Container, error) {
	cm.mu.RLock()
	if cm.container != nil {
		container := cm.container
		cm.mu.RUnlock()
		cm.UpdateLastUsed()
		return container, nil
	}
	cm.mu.RUnlock()

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container != nil {
		return cm.container, nil
	}

	cfg := cm.config
	if cfg == nil {
		loaded, err := config.GetOptimizedConfig()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cm.initializeLocked(ctx, cfg); err != nil {
		return nil, err
	}

	if cm.container == nil {
		return nil, fmt.Errorf("container initialization produced no container")
	}

	return cm.container, nil
}

// Cleanup releases the container and its database handle
func (cm *ConnectionManager) Cleanup() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container != nil {
		if err := cm.container.Close(); err != nil {
			return err
		}
		cm.container = nil
	}

	return nil
}

// UpdateLastUsed updates the last used timestamp
func (cm *ConnectionManager) UpdateLastUsed() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.lastUsed = time.Now()
}
