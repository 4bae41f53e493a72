package logger

import (
	"fmt"
	"sync"
	"time"
)

type Spinner struct {
	Frames  []string
	Message string
	Console *Console

	once sync.Once
	done chan struct{}
	exit chan struct{}
}

// Start animates the spinner on the console status writer. Nothing is drawn
// when the console is not interactive.
func (s *Spinner) Start() {
	s.done = make(chan struct{})
	s.exit = make(chan struct{})

	if !s.Console.Interactive {
		close(s.exit)
		return
	}

	go func() {
		defer close(s.exit)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			fmt.Fprintf(s.Console.Status, "\r%s %s ", s.Frames[i%len(s.Frames)], s.Message)
			select {
			case <-s.done:
				fmt.Fprint(s.Console.Status, "\r\033[K")
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *Spinner) Stop(success bool, message string) {
	s.once.Do(func() {
		close(s.done)
		<-s.exit
	})

	if success {
		s.Console.Success("%s", message)
	} else {
		s.Console.Error("%s", message)
	}
}
