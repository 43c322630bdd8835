//go:build !unix

package io

import (
	"os"
)

// startReader reads stdin in a goroutine.
func (tm *Terminal) startReader() (err error) {
	go func() {
		defer close(tm.done)
		buf := make([]byte, 1)

		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n > 0 {
				tm.Feed(buf[0])
			}

			select {
			case <-tm.stopCh:
				return
			default:
			}
		}
	}()

	return
}

// stopReader does not wait, as a blocking read can not be interrupted.
func (tm *Terminal) stopReader() {
}
