package flash

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

const eventBuffer = 64

// Controller owns the single flash session a host may run at a time. Start
// and Abort are safe to call from any goroutine.
type Controller struct {
	config Config

	mu     sync.Mutex
	active *Operation
}

// NewController will create a controller that flashes radios with c. The
// port and model of each session are given to Start.
func NewController(c *Config) *Controller {
	ctl := &Controller{}
	if c != nil {
		ctl.config = *c
	}
	return ctl
}

// Start will begin flashing image to the radio on port in the background. It
// fails with ErrBusy while another session is active and with ErrEmptyImage
// without touching the port. Cancelling ctx aborts the session.
func (c *Controller) Start(ctx context.Context, port string, image []byte, model Model) (*Operation, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return nil, ErrBusy
	}

	cfg := c.config
	cfg.TTY = port
	cfg.Model = model

	op := &Operation{
		radio:  NewRadio(&cfg),
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
	}
	if err := op.radio.begin(); err != nil {
		return nil, err
	}
	c.active = op

	logrus.WithFields(logrus.Fields{"port": port, "model": model}).Debug("session start")

	go c.run(ctx, op, image)

	return op, nil
}

func (c *Controller) run(ctx context.Context, op *Operation, image []byte) {
	stop := make(chan struct{})
	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				op.Abort()
			case <-stop:
			}
		}()
	}

	op.err = op.radio.run(image, op.publish)
	close(stop)

	c.mu.Lock()
	if c.active == op {
		c.active = nil
	}
	c.mu.Unlock()

	close(op.events)
	close(op.done)

	logrus.WithField("state", op.Result().State).Debug("session end")
}

// Abort will abort the active session, if there is one
func (c *Controller) Abort() {
	c.mu.Lock()
	op := c.active
	c.mu.Unlock()

	if op != nil {
		op.Abort()
	}
}

// Active will return the running operation or nil
func (c *Controller) Active() *Operation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// State will report the state of the active session, or Idle
func (c *Controller) State() State {
	if op := c.Active(); op != nil {
		return op.radio.State()
	}
	return StateIdle
}

// Operation is a flash session running in the background
type Operation struct {
	radio  *Radio
	events chan Event
	done   chan struct{}

	mu     sync.Mutex
	result Event
	err    error
}

// Events will return the session's notifications. Progress events are
// dropped rather than stall the flash when the reader falls behind; the
// terminal event is always delivered before the channel is closed.
func (o *Operation) Events() <-chan Event {
	return o.events
}

// Done is closed once the session reached a terminal state and its port is
// closed
func (o *Operation) Done() <-chan struct{} {
	return o.done
}

// Wait will block until the session ends and return its error
func (o *Operation) Wait() error {
	<-o.done
	return o.err
}

// Result will return the terminal event, or the latest event while running
func (o *Operation) Result() Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// Abort will abort this session
func (o *Operation) Abort() {
	o.radio.Abort()
}

// publish runs on the sequencer goroutine and must not block it
func (o *Operation) publish(ev Event) {
	o.mu.Lock()
	o.result = ev
	o.mu.Unlock()

	if !ev.State.Terminal() {
		select {
		case o.events <- ev:
		default:
		}
		return
	}

	for {
		select {
		case o.events <- ev:
			return
		default:
		}
		// make room by dropping the oldest queued event
		select {
		case <-o.events:
		default:
		}
	}
}
