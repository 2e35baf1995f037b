// Package nightlight pauses the desktop's night light while the session is
// inhibited, and resumes it afterwards.
package nightlight

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks github.com/stigoleg/caffeine/internal/nightlight Service

import (
	"log"

	"github.com/stigoleg/caffeine/internal/config"
	"github.com/stigoleg/caffeine/internal/inhibit"
)

// Service is the night-light control surface of the settings daemon.
// Active must not block; SetDisabledUntilTomorrow reports its outcome through
// done on the caller's loop.
type Service interface {
	Active() (bool, error)
	SetDisabledUntilTomorrow(disabled bool, done func(error))
}

// Transition is what an evaluation did to the night light.
type Transition int

const (
	Unchanged Transition = iota
	Paused
	Resumed
)

// Coordinator decides, after each ledger change, whether night light should
// be paused. It only ever resumes a pause it made itself.
type Coordinator struct {
	svc        Service
	policy     func() config.NightLightControl
	suppressed bool
	// gen identifies the latest write, so a stale failure is ignored.
	gen      int
	reverted func()
}

// NewCoordinator creates a Coordinator. policy is consulted on every
// evaluation.
func NewCoordinator(svc Service, policy func() config.NightLightControl) *Coordinator {
	return &Coordinator{svc: svc, policy: policy}
}

// OnRevert sets fn to run when a pause the coordinator already reported is
// rejected by the service.
func (c *Coordinator) OnRevert(fn func()) { c.reverted = fn }

// Suppressed reports whether night light is currently paused by us.
func (c *Coordinator) Suppressed() bool { return c.suppressed }

// Admits reports whether holder h may pause night light under p.
func Admits(p config.NightLightControl, h inhibit.Holder) bool {
	switch p {
	case config.NightLightAlways:
		return true
	case config.NightLightForApps:
		return h.IsApp()
	default:
		return false
	}
}

// Evaluate reconciles night light with the current active holders.
func (c *Coordinator) Evaluate(holders []inhibit.Holder) Transition {
	policy := c.policy()
	want := false
	for _, h := range holders {
		if Admits(policy, h) {
			want = true
			break
		}
	}

	switch {
	case want && !c.suppressed:
		return c.pause(policy)
	case !want && c.suppressed:
		return c.resume()
	}
	return Unchanged
}

func (c *Coordinator) pause(policy config.NightLightControl) Transition {
	active, err := c.svc.Active()
	if err != nil {
		log.Printf("nightlight: reading state failed: %v", err)
		return Unchanged
	}
	if !active {
		return Unchanged
	}
	c.gen++
	gen := c.gen
	c.suppressed = true
	c.svc.SetDisabledUntilTomorrow(true, func(err error) {
		if err == nil {
			return
		}
		log.Printf("nightlight: pausing failed: %v", err)
		if gen != c.gen || !c.suppressed {
			return
		}
		c.suppressed = false
		if c.reverted != nil {
			c.reverted()
		}
	})
	log.Printf("nightlight: paused (policy %s)", policy)
	return Paused
}

func (c *Coordinator) resume() Transition {
	c.gen++
	c.suppressed = false
	c.svc.SetDisabledUntilTomorrow(false, func(err error) {
		if err != nil {
			log.Printf("nightlight: resuming failed: %v", err)
		}
	})
	log.Printf("nightlight: resumed")
	return Resumed
}
