package ctrader

import "sync"

// Handle is the pending side of one outbound request. It resolves exactly
// once, with the correlated response frame or with an error.
type Handle struct {
	id          string
	payloadType int

	once sync.Once
	done chan struct{}
	msg  *Envelope
	err  error

	// release drops the transport's registration for this handle
	release func()
}

func newHandle(id string, payloadType int) *Handle {
	return &Handle{
		id:          id,
		payloadType: payloadType,
		done:        make(chan struct{}),
	}
}

// ID is the client message id stamped on the request.
func (h *Handle) ID() string { return h.id }

// PayloadType is the type of the outbound request.
func (h *Handle) PayloadType() int { return h.payloadType }

// Done is closed when the handle resolves.
func (h *Handle) Done() <-chan struct{} { return h.done }

func (h *Handle) resolve(msg *Envelope, err error) bool {
	resolved := false
	h.once.Do(func() {
		h.msg = msg
		h.err = err
		close(h.done)
		resolved = true
	})
	return resolved
}

func (h *Handle) abandon() {
	if h.release != nil {
		h.release()
	}
}
