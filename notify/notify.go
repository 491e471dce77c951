// Package notify defines the outbound delivery boundary. The engine hands a
// Message to a Deliverer and does not care how it reaches the recipient;
// concrete transports live in subpackages.
package notify

import (
	"context"
	"log"
)

// Channel selects the transport class for a message.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Message is a single outbound notification.
type Message struct {
	Channel Channel
	To      string
	Subject string
	Body    string
}

// Deliverer sends a message. Implementations must be safe for concurrent
// use.
type Deliverer interface {
	Deliver(ctx context.Context, msg Message) error
}

// ConsoleDeliverer writes messages to the process log. Useful in development
// and as a placeholder until a real transport is wired.
type ConsoleDeliverer struct{}

func (ConsoleDeliverer) Deliver(_ context.Context, msg Message) error {
	log.Printf("notify [%s] to=%s subject=%q body=%q", msg.Channel, msg.To, msg.Subject, msg.Body)
	return nil
}

// DelivererFunc adapts a function to the Deliverer interface.
type DelivererFunc func(ctx context.Context, msg Message) error

func (f DelivererFunc) Deliver(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}
