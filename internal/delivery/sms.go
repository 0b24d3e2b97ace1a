package delivery

import (
	"context"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/facilidevis/facilidevis/internal/config"
)

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// SMSSender sends text messages through Twilio.
type SMSSender struct {
	api  messageCreator
	from string
}

// NewSMSSender returns nil when SMS is not configured.
func NewSMSSender(cfg config.SMSConfig) *SMSSender {
	if !cfg.Configured() {
		return nil
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &SMSSender{api: client.Api, from: cfg.From}
}

// Send ignores ctx; the Twilio client has no context-aware call.
func (s *SMSSender) Send(_ context.Context, msg Message) (Receipt, error) {
	params := &openapi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(s.from)
	params.SetBody(msg.Body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return Receipt{}, err
	}
	var sid string
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	return Receipt{ProviderID: sid}, nil
}
