package keepalive

import (
	"fmt"
	"log"
	"slices"
	"sync"
	"time"
)

// CleanupManager runs teardown steps once, newest first, within a deadline.
// Bus connections registered early are therefore closed after the services
// that use them.
type CleanupManager struct {
	mu      sync.Mutex
	steps   []cleanupStep
	timeout time.Duration
	once    sync.Once
}

type cleanupStep struct {
	name string
	fn   func() error
}

// NewCleanupManager creates a cleanup manager with the given overall timeout.
func NewCleanupManager(timeout time.Duration) *CleanupManager {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CleanupManager{timeout: timeout}
}

// RegisterFunc adds a named teardown step.
func (cm *CleanupManager) RegisterFunc(name string, fn func() error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.steps = append(cm.steps, cleanupStep{name: name, fn: fn})
}

func (cm *CleanupManager) Len() int {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return len(cm.steps)
}

// Execute runs every step and returns their failures. Steps still running at
// the deadline are abandoned. Later calls return nil.
func (cm *CleanupManager) Execute() []error {
	var errs []error
	cm.once.Do(func() { errs = cm.execute() })
	return errs
}

func (cm *CleanupManager) execute() []error {
	cm.mu.Lock()
	steps := slices.Clone(cm.steps)
	cm.mu.Unlock()
	slices.Reverse(steps)
	if len(steps) == 0 {
		return nil
	}

	results := make(chan error, len(steps))
	go func() {
		defer close(results)
		for _, s := range steps {
			results <- s.run()
		}
	}()

	deadline := time.NewTimer(cm.timeout)
	defer deadline.Stop()
	var errs []error
	for {
		select {
		case err, ok := <-results:
			if !ok {
				return errs
			}
			if err != nil {
				errs = append(errs, err)
			}
		case <-deadline.C:
			log.Printf("cleanup: timeout after %v, some resources may not have been cleaned up", cm.timeout)
			return append(errs, fmt.Errorf("cleanup timeout exceeded after %v", cm.timeout))
		}
	}
}

func (s cleanupStep) run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic cleaning up %s: %v", s.name, r)
			log.Printf("cleanup: %v", err)
		}
	}()
	if err := s.fn(); err != nil {
		log.Printf("cleanup: error cleaning up %s: %v", s.name, err)
		return fmt.Errorf("%s: %w", s.name, err)
	}
	log.Printf("cleanup: cleaned up %s", s.name)
	return nil
}
