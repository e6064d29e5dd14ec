package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/lakepipe/lakepipe/components"
	"github.com/lakepipe/lakepipe/logger"
)

// GetCleanupHandlerWithChannelsFunc returns a function that waits for a CTRL-C etc and/or a stop signal on chanShutdown.
func GetCleanupHandlerWithChannelsFunc(log logger.Logger, batchGuid string, bc *BatchCloser) CleanupHandlerFunc {
	return func(log logger.Logger, batchGuid string, s StatsManager, cancelFunc context.CancelFunc) {
		var e error
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		select { // block until interrupt or shutdown request...
		case x := <-c: // wait for interrupt...
			fmt.Println()                   // add return char for a clean CLI look n feel.
			log.Info("Caught ", x.String()) // log the interrupt.
		case e = <-bc.chanShutdown: // OR wait for shutdown request (or channel closure)...
			// Continue to shutdown...
			if e != nil { // if there was an error...
				log.Error(e) // log it now!
			}
		}
		if bc.ChannelsAreOpen() { // if the batch is not already complete...
			// Shutdown the batch.
			log.Info("Shutting down ingest batch ", batchGuid, "...")
			cancelFunc()    // quit a looping repeating batch.
			s.StopDumping() // turn off status output.
			bc.CloseChannels(&BatchStatus{Status: StatusShutdown}) // send a status update to say that the batch was shutdown explicitly.
			log.Info("Shutdown complete for ingest batch ", batchGuid)
		}
		if e != nil && isatty.IsTerminal(os.Stdout.Fd()) { // if there was an error on chanShutdown AND the terminal is interactive...
			// Note that we could be running as a microservice via the serve command.
			log.Fatal(e) // exit(1) with the same error as above...
		}
	}
}

// GetPanicHandlerWithChannelsFunc will create a func that can be deferred to handle recovery
// and send the final BatchStatus{} error info to channel chanStatus.
func GetPanicHandlerWithChannelsFunc(bc *BatchCloser) components.PanicHandlerFunc {
	once := sync.Once{}
	return func() {
		if r := recover(); r != nil { // if there was a panic...
			// Extract the message only.
			var msg string
			var err error
			x, ok := r.(*logrus.Entry)
			if ok { // if we can cast to *logrus.Entry...
				msg = x.Message
			} else { // else assume a string...
				msg, ok = r.(string)
				if !ok {
					panic("unexpected type found during recovery")
				}
			}
			// Send the error info to chanStatus.
			bc.chanStatus <- BatchStatus{Status: StatusCompleteWithError, Error: msg}
			if msg != "" { // if there is an error message, create a new error...
				err = errors.New(msg)
			}
			once.Do(func() { bc.chanShutdown <- err }) // send shutdown signal only once!
		}
	}
}
