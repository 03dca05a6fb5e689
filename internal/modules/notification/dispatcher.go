package notification

import (
	"context"
	"log"
	"sync"
	"time"
)

// Dispatcher runs notification work off the request path. Errors are logged,
// never returned to the caller.
type Dispatcher struct {
	timeout time.Duration
	loggerf func(format string, args ...interface{})
	wg      sync.WaitGroup
}

func NewDispatcher(timeout time.Duration, loggerf func(format string, args ...interface{})) *Dispatcher {
	if loggerf == nil {
		loggerf = log.Printf
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{timeout: timeout, loggerf: loggerf}
}

func (d *Dispatcher) Go(name string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.loggerf("level=error msg=\"notification panicked\" task=%s panic=%v", name, r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			d.loggerf("level=error msg=\"notification failed\" task=%s err=%v", name, err)
		}
	}()
}

// Wait blocks until every dispatched task has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
