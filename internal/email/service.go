package email

import (
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service handles email sending via SMTP
type Service struct {
	host     string
	port     string
	from     string
	auth     smtp.Auth
	sendMail sendMailFunc
}

// Option configures a Service
type Option func(*Service)

// WithPlainAuth authenticates with PLAIN auth against the SMTP host
func WithPlainAuth(username, password string) Option {
	return func(s *Service) {
		if username != "" {
			s.auth = smtp.PlainAuth("", username, password, s.host)
		}
	}
}

// NewService creates a new email service
func NewService(host, port, from string, opts ...Option) *Service {
	s := &Service{
		host:     host,
		port:     port,
		from:     from,
		sendMail: smtp.SendMail,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendOrderConfirmation sends an order confirmation email
func (s *Service) SendOrderConfirmation(to string, c Confirmation) error {
	if to == "" {
		return fmt.Errorf("send order confirmation: empty recipient")
	}
	body, err := BuildOrderConfirmationBody(c)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Order confirmation: thank you for your purchase (order %s)", shortID(c.OrderID))
	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("send mail: header contains a line break")
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := net.JoinHostPort(s.host, s.port)
	return s.sendMail(addr, s.auth, s.from, []string{to}, []byte(msg))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
