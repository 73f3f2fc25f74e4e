package traffic

import (
	"github.com/dmdmdm-nz/trafficd/internal/runtime"
	"github.com/google/uuid"
)

// Endpoint is a notification recipient. Two endpoints with the same ID are the
// same recipient.
type Endpoint interface {
	ID() string
	Send(n Notification) error
}

// ChannelEndpoint buffers notifications for an in-process consumer.
type ChannelEndpoint struct {
	id    string
	queue *runtime.SubQueue[Notification]
}

func NewChannelEndpoint(outBuf int) *ChannelEndpoint {
	q := runtime.NewSubQueue[Notification](outBuf)
	q.SetPaused(false)
	return &ChannelEndpoint{
		id:    uuid.NewString(),
		queue: q,
	}
}

func (e *ChannelEndpoint) ID() string { return e.id }

// Send fails once the endpoint has been closed.
func (e *ChannelEndpoint) Send(n Notification) error {
	return e.queue.Enqueue(n)
}

func (e *ChannelEndpoint) C() <-chan Notification { return e.queue.Chan() }

func (e *ChannelEndpoint) Close() { e.queue.Close() }
