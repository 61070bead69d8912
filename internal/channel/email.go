package channel

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/cadence-tracker/cadence/internal/model"
)

// EmailSender delivers messages over SMTP as multipart/alternative MIME
// mail. An unconfigured sender fails every attempt on the normal retry
// path; it will exhaust retries until configuration changes.
type EmailSender struct {
	cfg model.SMTPConfig
}

// NewEmailSender creates an SMTP sender from configuration.
func NewEmailSender(cfg model.SMTPConfig) *EmailSender {
	return &EmailSender{cfg: cfg}
}

// Send delivers one message to a single recipient address.
func (s *EmailSender) Send(to, subject, body, bodyHTML string) Result {
	if s.cfg.Host == "" || s.cfg.Sender == "" {
		return ResultTransientFailure
	}

	msg, err := buildMessage(s.cfg.Sender, to, subject, body, bodyHTML)
	if err != nil {
		return ResultTransientFailure
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var client *smtp.Client
	switch {
	case s.cfg.Port == 465:
		client, err = smtp.DialTLS(addr, nil)
	case s.cfg.UseTLS:
		client, err = smtp.DialStartTLS(addr, nil)
	default:
		client, err = smtp.Dial(addr)
	}
	if err != nil {
		return ResultTransientFailure
	}
	defer client.Close()

	if s.cfg.Username != "" {
		auth := sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)
		if err := client.Auth(auth); err != nil {
			return ResultTransientFailure
		}
	}

	if err := client.SendMail(s.cfg.Sender, []string{to}, bytes.NewReader(msg)); err != nil {
		return ResultTransientFailure
	}

	_ = client.Quit()
	return ResultSent
}

// buildMessage assembles a multipart/alternative MIME message with a
// plain part and, when present, an HTML part.
func buildMessage(from, to, subject, body, bodyHTML string) ([]byte, error) {
	var buf bytes.Buffer

	var header mail.Header
	header.SetDate(time.Now())
	header.SetAddressList("From", []*mail.Address{{Address: from}})
	header.SetAddressList("To", []*mail.Address{{Address: to}})
	header.SetSubject(subject)

	writer, err := mail.CreateWriter(&buf, header)
	if err != nil {
		return nil, fmt.Errorf("creating mail writer: %w", err)
	}

	inline, err := writer.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("creating inline writer: %w", err)
	}

	var plainHeader mail.InlineHeader
	plainHeader.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	part, err := inline.CreatePart(plainHeader)
	if err != nil {
		return nil, fmt.Errorf("creating plain part: %w", err)
	}
	if _, err := io.WriteString(part, body); err != nil {
		return nil, fmt.Errorf("writing plain part: %w", err)
	}
	part.Close()

	if bodyHTML != "" {
		var htmlHeader mail.InlineHeader
		htmlHeader.SetContentType("text/html", map[string]string{"charset": "utf-8"})
		part, err := inline.CreatePart(htmlHeader)
		if err != nil {
			return nil, fmt.Errorf("creating html part: %w", err)
		}
		if _, err := io.WriteString(part, bodyHTML); err != nil {
			return nil, fmt.Errorf("writing html part: %w", err)
		}
		part.Close()
	}

	inline.Close()
	writer.Close()

	return buf.Bytes(), nil
}
