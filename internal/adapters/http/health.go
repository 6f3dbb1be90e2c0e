package http

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

// Version is stamped at build time with -ldflags "-X ...http.Version=...".
var Version = "dev"

const readyTimeout = 3 * time.Second

var errDisconnected = errors.New("disconnected")

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": Version,
		})
	}
}

type readinessCheck struct {
	name  string
	check func(ctx context.Context) error // nil when not configured
}

func (d *Dependencies) readinessChecks() []readinessCheck {
	ps := []readinessCheck{{name: "storage", check: d.POIs.Ping}, {name: "nats"}, {name: "cache"}}
	if d.NATS != nil {
		ps[1].check = func(context.Context) error {
			if !d.NATS.IsConnected() {
				return errDisconnected
			}
			return nil
		}
	}
	if d.Cache != nil {
		ps[2].check = d.Cache.Ping
	}
	return ps
}

// ReadyHandler checks storage, NATS and the cache in parallel. Unconfigured
// optional dependencies do not fail readiness.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
		defer cancel()

		var (
			mu     sync.Mutex
			checks = make(map[string]string)
			ready  = true
			g      errgroup.Group
		)
		for _, p := range deps.readinessChecks() {
			if p.check == nil {
				mu.Lock()
				checks[p.name] = "not configured"
				mu.Unlock()
				continue
			}
			g.Go(func() error {
				err := p.check(ctx)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					checks[p.name] = "ok"
				case errors.Is(err, errDisconnected):
					checks[p.name] = err.Error()
					ready = false
				default:
					checks[p.name] = "error: " + err.Error()
					ready = false
				}
				return nil
			})
		}
		_ = g.Wait()

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "checks": checks})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": checks})
	}
}
