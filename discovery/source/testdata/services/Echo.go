// Package services holds fixture services.
package services

// Echo repeats what it is told.
type Echo struct{}

// Message is a payload.
type Message struct {
	Text string
}

// Say returns text unchanged.
// @param string $text
// @return string
func (Echo) Say(text string) string { return text }

// Send delivers a message.
// @param Envelope $msg
// @param int $retries
// @return bool
func (e *Echo) Send(msg *Message, retries int, tags ...string) bool { return true }

func (Echo) reset() {}

// Ping has no parameters.
func (Echo) Ping() {}
