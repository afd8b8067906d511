// Package mailertest provides a recording mailer.Mailer for tests.
package mailertest

import (
	"context"
	"sync"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/mailer"
)

type Recorder struct {
	mu   sync.Mutex
	sent []mailer.Message

	// Err, when set, fails every Send without recording.
	Err error
}

func (r *Recorder) Send(_ context.Context, msg mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *Recorder) Sent() []mailer.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mailer.Message(nil), r.sent...)
}

// Last returns the most recent message, or the zero Message.
func (r *Recorder) Last() mailer.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return mailer.Message{}
	}
	return r.sent[len(r.sent)-1]
}
