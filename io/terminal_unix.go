//go:build unix

package io

import (
	"syscall"
	"time"
)

// startReader sets stdin to non-blocking mode and reads it in a goroutine.
func (tm *Terminal) startReader() (err error) {
	err = syscall.SetNonblock(tm.fd, true)
	if err != nil {
		return
	}
	tm.nonblockSet = true

	go func() {
		defer close(tm.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-tm.stopCh:
				return
			default:
			}

			n, err := syscall.Read(tm.fd, buf)
			if n > 0 {
				tm.Feed(buf[0])
			}
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()

	return
}

// stopReader waits for the reader to exit, and restores blocking mode.
func (tm *Terminal) stopReader() {
	<-tm.done
	if tm.nonblockSet {
		_ = syscall.SetNonblock(tm.fd, false)
		tm.nonblockSet = false
	}
}
