package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/facilidevis/facilidevis/internal/config"
)

type fakeTwilio struct {
	params *openapi.CreateMessageParams
	err    error
}

func (f *fakeTwilio) CreateMessage(p *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	f.params = p
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM0123456789"
	return &openapi.ApiV2010Message{Sid: &sid}, nil
}

func TestSMSSender_Send(t *testing.T) {
	api := &fakeTwilio{}
	s := &SMSSender{api: api, from: "+33700000000"}

	rcpt, err := s.Send(context.Background(), Message{To: "+33612345678", Body: "Bonjour Jean"})
	require.NoError(t, err)
	assert.Equal(t, "SM0123456789", rcpt.ProviderID)
	require.NotNil(t, api.params)
	assert.Equal(t, "+33612345678", *api.params.To)
	assert.Equal(t, "+33700000000", *api.params.From)
	assert.Equal(t, "Bonjour Jean", *api.params.Body)
}

func TestSMSSender_Error(t *testing.T) {
	s := &SMSSender{api: &fakeTwilio{err: errors.New("21211 invalid To")}, from: "+33700000000"}
	_, err := s.Send(context.Background(), Message{To: "+33612345678"})
	assert.Error(t, err)
}

func TestNewSMSSender_Unconfigured(t *testing.T) {
	assert.Nil(t, NewSMSSender(config.SMSConfig{AccountSID: "AC1"}))
}
