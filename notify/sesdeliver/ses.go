// Package sesdeliver sends email notifications through AWS SES. SMS
// messages are rejected; route them to a different deliverer.
package sesdeliver

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/hallgard/authcore/notify"
)

var (
	// ErrSendFailed wraps SES API failures.
	ErrSendFailed = errors.New("ses send failed")
	// ErrUnsupportedChannel is returned for non-email messages.
	ErrUnsupportedChannel = errors.New("ses deliverer only handles email")
)

// Deliverer sends notify.Message emails via SES.
type Deliverer struct {
	client      *ses.Client
	fromAddress string
}

// New builds a Deliverer over an existing SES client.
func New(client *ses.Client, fromAddress string) *Deliverer {
	return &Deliverer{
		client:      client,
		fromAddress: fromAddress,
	}
}

// NewDefault builds a Deliverer using the default AWS credential chain.
func NewDefault(ctx context.Context, fromAddress string) (*Deliverer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return New(ses.NewFromConfig(cfg), fromAddress), nil
}

// Deliver implements notify.Deliverer.
func (d *Deliverer) Deliver(ctx context.Context, msg notify.Message) error {
	if msg.Channel != notify.ChannelEmail {
		return ErrUnsupportedChannel
	}

	input := &ses.SendEmailInput{
		Source: aws.String(d.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(msg.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(msg.Body),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := d.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}
