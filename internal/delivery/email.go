package delivery

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/facilidevis/facilidevis/internal/config"
)

const (
	resendHost = "smtp.resend.com"
	resendUser = "resend"
)

type mailClient interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailSender sends email over SMTP. A Resend API key alone selects the
// Resend SMTP relay.
type EmailSender struct {
	client mailClient
	from   string
}

// NewEmailSender returns nil, nil when email is not configured.
func NewEmailSender(cfg config.EmailConfig) (*EmailSender, error) {
	if !cfg.Configured() {
		return nil, nil
	}

	host, port, user, pass := cfg.Host, cfg.Port, cfg.Username, cfg.Password
	if host == "" && cfg.ResendKey != "" {
		host, port, user, pass = resendHost, 587, resendUser, cfg.ResendKey
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if user != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(user),
			mail.WithPassword(pass),
		)
	}
	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &EmailSender{client: client, from: cfg.From}, nil
}

func emailProvider(cfg config.EmailConfig) string {
	if cfg.Host == "" && cfg.ResendKey != "" {
		return "resend"
	}
	return "smtp"
}

func (s *EmailSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	m, err := s.build(msg)
	if err != nil {
		return Receipt{}, err
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return Receipt{}, err
	}
	var id string
	if ids := m.GetGenHeader(mail.HeaderMessageID); len(ids) > 0 {
		id = ids[0]
	}
	return Receipt{ProviderID: id}, nil
}

func (s *EmailSender) build(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetMessageID()

	switch {
	case msg.HTML != "" && msg.Body != "":
		m.SetBodyString(mail.TypeTextPlain, msg.Body)
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	case msg.HTML != "":
		m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	default:
		m.SetBodyString(mail.TypeTextPlain, msg.Body)
	}

	for _, a := range msg.Attachments {
		opts := []mail.FileOption{}
		if a.ContentType != "" {
			opts = append(opts, mail.WithFileContentType(mail.ContentType(a.ContentType)))
		}
		if err := m.AttachReader(a.Name, bytes.NewReader(a.Data), opts...); err != nil {
			return nil, fmt.Errorf("attach %s: %w", a.Name, err)
		}
	}
	return m, nil
}
