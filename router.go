// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package refrontier

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/woozymasta/refrontier/internal/format"
)

// Router selects one handler per file by magic and config.
// Handlers are registered during setup; Select and Route never modify the registry.
type Router struct {
	handlers []Handler
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{}
}

// NewDefaultRouter returns a router with every built-in handler registered.
func NewDefaultRouter() *Router {
	r := NewRouter()
	for _, h := range DefaultHandlers() {
		if err := r.Register(h); err != nil {
			panic(fmt.Sprintf("register built-in handler %s: %v", h.Name, err))
		}
	}

	return r
}

// Register adds h. Registration order does not affect selection.
func (r *Router) Register(h Handler) error {
	if strings.TrimSpace(h.Name) == "" || h.Match == nil || h.Handle == nil {
		return fmt.Errorf("%w: %q needs name, Match and Handle", ErrInvalidHandler, h.Name)
	}

	for _, existing := range r.handlers {
		if existing.Priority == h.Priority {
			return fmt.Errorf("%w: %d used by %s", ErrDuplicatePriority, h.Priority, existing.Name)
		}
	}

	r.handlers = append(r.handlers, h)
	return nil
}

// Handlers returns registered handlers ordered by descending priority.
func (r *Router) Handlers() []Handler {
	out := make([]Handler, len(r.handlers))
	copy(out, r.handlers)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})

	return out
}

// Select returns the highest-priority handler accepting magic under cfg.
func (r *Router) Select(magic format.Magic, cfg Config) (Handler, bool) {
	var (
		best  Handler
		found bool
	)

	for _, h := range r.handlers {
		if found && h.Priority <= best.Priority {
			continue
		}
		if h.Match(magic, cfg) {
			best, found = h, true
		}
	}

	return best, found
}

// Route invokes only the selected handler. Without a match it returns a skip and does nothing else.
func (r *Router) Route(ctx context.Context, in Input, cfg Config) (Result, error) {
	h, ok := r.Select(in.Magic, cfg)
	if !ok {
		return Skipped(ErrNoHandler.Error()), nil
	}

	res, err := h.Handle(ctx, in, cfg)
	if err != nil {
		return Result{Handler: h.Name}, fmt.Errorf("%s: %w", h.Name, err)
	}

	res.Handler = h.Name
	return res, nil
}
