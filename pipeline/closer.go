package pipeline

import (
	"sync"
	"sync/atomic"
)

// BatchCloser tracks the channels used to maintain batch status and whether the batch is shutdown or not.
type BatchCloser struct {
	flagClosedChanStatusAndShutdown int32 // 0 = open; 1 = closed
	mu                              sync.Mutex
	chanStatus                      chan BatchStatus
	chanShutdown                    chan error
}

func NewBatchCloser(chanStatus chan BatchStatus, chanShutdown chan error) *BatchCloser {
	return &BatchCloser{chanStatus: chanStatus, chanShutdown: chanShutdown}
}

// CloseChannels closes chanStatus and chanShutdown inside a mutex.
// flagClosedChanStatusAndShutdown is set to 1 when the channels are closed.
func (c *BatchCloser) CloseChannels(statusToSend *BatchStatus) {
	// safely close chanStatus (send the BatchStatus message if there is one)
	c.mu.Lock()
	defer c.mu.Unlock()
	if atomic.AddInt32(&c.flagClosedChanStatusAndShutdown, 0) == 0 { // if the status channel is still open...
		if statusToSend != nil { // if we have something to send...
			c.chanStatus <- *statusToSend // send the message.
		}
		close(c.chanStatus) // close the channel - causes goroutine to exit.
		close(c.chanShutdown)
		atomic.AddInt32(&c.flagClosedChanStatusAndShutdown, 1) // save that the channel is closed.
	}
}

// ChannelsAreOpen inspects flagClosedChanStatusAndShutdown (0 = open; 1 = closed) and returns true if 0.
func (c *BatchCloser) ChannelsAreOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if atomic.AddInt32(&c.flagClosedChanStatusAndShutdown, 0) == 0 { // if the status and shutdown channels are still open...
		return true
	} else {
		return false
	}
}
