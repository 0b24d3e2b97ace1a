// Package delivery dispatches quotes and reminders to clients by email or
// SMS. When a channel is not configured outside production, sends are
// simulated and logged instead of failing.
package delivery

import (
	"context"
	"fmt"
	"strings"

	"github.com/facilidevis/facilidevis/internal/common"
	"github.com/facilidevis/facilidevis/internal/config"
	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/models"
)

// Attachment is a file sent along with an email.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is a channel-agnostic outgoing message. SMS ignores Subject, HTML
// and Attachments.
type Message struct {
	Channel     models.Channel
	To          string
	Subject     string
	Body        string
	HTML        string
	Attachments []Attachment
}

// Receipt describes an accepted message.
type Receipt struct {
	Channel    models.Channel `json:"channel"`
	ProviderID string         `json:"provider_id,omitempty"`
	Simulated  bool           `json:"simulated"`
}

// Sender delivers messages over one channel.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}

// ChannelStatus reports how a channel would behave if used now.
type ChannelStatus struct {
	Channel    models.Channel `json:"channel"`
	Configured bool           `json:"configured"`
	Simulated  bool           `json:"simulated"`
	Provider   string         `json:"provider"`
}

// Dispatcher routes messages to the sender of their channel.
type Dispatcher struct {
	senders   map[models.Channel]Sender
	providers map[models.Channel]string
	simulate  bool
	log       logging.Logger
}

// NewDispatcher returns a dispatcher with no senders. simulate enables the
// development fallback for unconfigured channels.
func NewDispatcher(simulate bool, log logging.Logger) *Dispatcher {
	return &Dispatcher{
		senders:   map[models.Channel]Sender{},
		providers: map[models.Channel]string{},
		simulate:  simulate,
		log:       log,
	}
}

// Register installs the sender for a channel.
func (d *Dispatcher) Register(ch models.Channel, provider string, s Sender) {
	d.senders[ch] = s
	d.providers[ch] = provider
}

// Send delivers msg. Errors wrap common.ErrNoRecipient, common.ErrConfigMissing
// or common.ErrDeliveryFailure.
func (d *Dispatcher) Send(ctx context.Context, msg Message) (Receipt, error) {
	if !msg.Channel.Valid() {
		return Receipt{}, fmt.Errorf("unknown channel %q: %w", msg.Channel, common.ErrDeliveryFailure)
	}
	if strings.TrimSpace(msg.To) == "" {
		return Receipt{}, fmt.Errorf("%s: %w: %w", msg.Channel, common.ErrNoRecipient, common.ErrDeliveryFailure)
	}

	s, ok := d.senders[msg.Channel]
	if !ok {
		if !d.simulate {
			return Receipt{}, fmt.Errorf("%s sender: %w", msg.Channel, common.ErrConfigMissing)
		}
		d.log.Info(ctx, "delivery simulated",
			"channel", msg.Channel,
			"to", msg.To,
			"subject", msg.Subject,
			"length", len([]rune(msg.Body)),
			"attachments", len(msg.Attachments),
		)
		return Receipt{Channel: msg.Channel, Simulated: true}, nil
	}

	rcpt, err := s.Send(ctx, msg)
	if err != nil {
		d.log.Error(ctx, "delivery failed", "channel", msg.Channel, "error", err)
		return Receipt{}, fmt.Errorf("%s via %s: %w: %w", msg.Channel, d.providers[msg.Channel], common.ErrDeliveryFailure, err)
	}
	rcpt.Channel = msg.Channel
	d.log.Info(ctx, "message delivered", "channel", msg.Channel, "provider_id", rcpt.ProviderID)
	return rcpt, nil
}

// Status lists both channels and how they are served.
func (d *Dispatcher) Status() []ChannelStatus {
	out := make([]ChannelStatus, 0, 2)
	for _, ch := range []models.Channel{models.ChannelEmail, models.ChannelSMS} {
		_, ok := d.senders[ch]
		st := ChannelStatus{Channel: ch, Configured: ok, Provider: "none"}
		if ok {
			st.Provider = d.providers[ch]
		} else {
			st.Simulated = d.simulate
		}
		out = append(out, st)
	}
	return out
}

// FromConfig builds a dispatcher with every configured channel registered.
// Unconfigured channels are simulated outside production.
func FromConfig(cfg *config.Config, log logging.Logger) (*Dispatcher, error) {
	d := NewDispatcher(!cfg.App.IsProduction(), log)

	email, err := NewEmailSender(cfg.Email)
	if err != nil {
		return nil, err
	}
	if email != nil {
		d.Register(models.ChannelEmail, emailProvider(cfg.Email), email)
	}
	if sms := NewSMSSender(cfg.SMS); sms != nil {
		d.Register(models.ChannelSMS, "twilio", sms)
	}
	return d, nil
}
