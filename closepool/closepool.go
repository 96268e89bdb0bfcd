// SPDX-License-Identifier: GPL-3.0-or-later

// Package closepool releases the resources of a simulation,
// such as capture files, in a single operation.
package closepool

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/rbmk-project/linksim/errclass"
)

// resource is a named resource to release.
type resource struct {
	name    string
	release func() error
}

// Pool releases named resources in backward order.
//
// The zero value is ready to use.
type Pool struct {
	// Logger is the optional structured logger. If this field is
	// nil, we will not be emitting structured logs.
	Logger *slog.Logger

	// mu provides mutual exclusion.
	mu sync.Mutex

	// resources contains the resources to release.
	resources []resource
}

// Add adds an [io.Closer] known as name to the pool.
func (p *Pool) Add(name string, closer io.Closer) {
	p.AddFunc(name, closer.Close)
}

// AddFunc adds a release function known as name to the pool.
func (p *Pool) AddFunc(name string, release func() error) {
	p.mu.Lock()
	p.resources = append(p.resources, resource{name: name, release: release})
	p.mu.Unlock()
}

// Len returns the number of resources waiting to be released.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.resources)
}

// Close releases all the resources iterating in backward order,
// so a resource added later, which may depend on earlier ones,
// is released first. The returned error joins every failure,
// each prefixed by the resource name. Calling Close again is a no-op.
func (p *Pool) Close() error {
	p.mu.Lock()
	resources := p.resources
	p.resources = nil
	p.mu.Unlock()

	var errv []error
	for _, res := range slices.Backward(resources) {
		err := res.release()
		if p.Logger != nil {
			p.Logger.Debug(
				"releaseDone",
				slog.String("resource", res.name),
				slog.Any("err", err),
				slog.String("errClass", errclass.New(err)),
			)
		}
		if err != nil {
			errv = append(errv, fmt.Errorf("%s: %w", res.name, err))
		}
	}
	return errors.Join(errv...)
}
