// Package safe runs callbacks behind a failure boundary so a panic inside an
// event handler is logged instead of taking the process down.
package safe

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog/log"
)

// Do runs fn and converts a panic into a returned error. Errors and panics are
// logged with the given operation name.
func Do(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", op, r)
			log.Error().Str("op", op).Str("stack", string(debug.Stack())).Msgf("recovered panic: %v", r)
		}
	}()

	if err = fn(); err != nil {
		log.Warn().Err(err).Str("op", op).Msg("operation failed")
	}
	return err
}

// Go runs fn in a new goroutine behind the same boundary as Do. When wg is
// not nil it is marked done once fn returns or panics.
func Go(wg *sync.WaitGroup, op string, fn func() error) {
	if wg != nil {
		wg.Add(1)
	}
	go func() {
		if wg != nil {
			defer wg.Done()
		}
		_ = Do(op, fn)
	}()
}
