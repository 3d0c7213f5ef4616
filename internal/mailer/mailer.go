package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

type Config struct {
	Host     string
	Port     string
	From     string
	Password string
}

type Mailer struct {
	cfg Config
	log *zerolog.Logger
}

func New(cfg Config, log *zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

func (m *Mailer) SendRegistrationEmail(eventName, userName, recipient string) error {
	subject := "Registration confirmed: " + eventName
	body := fmt.Sprintf(
		"Hi %s,\n\nYou are registered for %s. See you there!\n\n— Potential Club",
		userName, eventName,
	)
	return m.send(recipient, subject, body)
}

func (m *Mailer) SendFeedbackEmail(eventName, recipient string, rating int) error {
	subject := "Thanks for your feedback on " + eventName
	body := fmt.Sprintf(
		"Hi,\n\nThanks for rating %s %s. Your feedback helps us run better events.\n\n— Potential Club",
		eventName, strings.Repeat("★", rating),
	)
	return m.send(recipient, subject, body)
}

func (m *Mailer) send(recipient, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.From, recipient, subject, body,
	)

	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{recipient}, []byte(msg)); err != nil {
		m.log.Warn().Msgf("failed to send e-mail to %s: %v", recipient, err)
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Msgf("e-mail sent to %s (%s)", recipient, subject)
	return nil
}
