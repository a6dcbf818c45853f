package email

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newTestService(opts ...Option) (*Service, *[]sentMail) {
	var sent []sentMail
	s := NewService("smtp.example.com", "2525", "shop@example.com", opts...)
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, auth: a, from: from, to: to, msg: string(msg)})
		return nil
	}
	return s, &sent
}

func sampleConfirmation() Confirmation {
	return Confirmation{
		OrderID:   "5O190127TN364715T",
		CaptureID: "3C679366HH908993F",
		PayerName: "Ada Lovelace",
		Currency:  "USD",
		Total:     "25.00",
		Items:     []OrderItem{{Name: "E-commerce Purchase", Quantity: 1, Amount: "25.00"}},
	}
}

func TestService_SendOrderConfirmation(t *testing.T) {
	s, sent := newTestService()

	err := s.SendOrderConfirmation("ada@example.com", sampleConfirmation())

	require.NoError(t, err)
	require.Len(t, *sent, 1)
	mail := (*sent)[0]
	assert.Equal(t, "smtp.example.com:2525", mail.addr)
	assert.Nil(t, mail.auth)
	assert.Equal(t, "shop@example.com", mail.from)
	assert.Equal(t, []string{"ada@example.com"}, mail.to)
	assert.Contains(t, mail.msg, "To: ada@example.com\r\n")
	assert.Contains(t, mail.msg, "Subject: Order confirmation: thank you for your purchase (order 5O190127)\r\n")
	assert.Contains(t, mail.msg, "Content-Type: text/html; charset=UTF-8")
	assert.Contains(t, mail.msg, "3C679366HH908993F")
}

func TestService_WithPlainAuth(t *testing.T) {
	s, sent := newTestService(WithPlainAuth("mailer", "secret"))

	require.NoError(t, s.SendOrderConfirmation("ada@example.com", sampleConfirmation()))

	require.Len(t, *sent, 1)
	assert.NotNil(t, (*sent)[0].auth)
}

func TestService_RejectsBadRecipients(t *testing.T) {
	s, sent := newTestService()

	assert.Error(t, s.SendOrderConfirmation("", sampleConfirmation()))
	assert.Error(t, s.SendOrderConfirmation("ada@example.com\r\nBcc: all@example.com", sampleConfirmation()))
	assert.Empty(t, *sent)
}

func TestService_PropagatesSendErrors(t *testing.T) {
	s, _ := newTestService()
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := s.SendOrderConfirmation("ada@example.com", sampleConfirmation())

	assert.EqualError(t, err, "connection refused")
}

// ============================================
// Template Tests
// ============================================

func TestBuildOrderConfirmationBody(t *testing.T) {
	body, err := BuildOrderConfirmationBody(sampleConfirmation())

	require.NoError(t, err)
	assert.Contains(t, body, "Hi Ada Lovelace, your payment has been received.")
	assert.Contains(t, body, "5O190127TN364715T")
	assert.Contains(t, body, "E-commerce Purchase")
	assert.Contains(t, body, "$25.00 USD")
	assert.Equal(t, 1, strings.Count(body, "<td style=\"padding: 12px; border-bottom: 1px solid #eee;\">"))
}

func TestBuildOrderConfirmationBody_EscapesPayerName(t *testing.T) {
	c := sampleConfirmation()
	c.PayerName = `<script>alert("x")</script>`

	body, err := BuildOrderConfirmationBody(c)

	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestBuildOrderConfirmationBody_Anonymous(t *testing.T) {
	c := sampleConfirmation()
	c.PayerName = ""
	c.CaptureID = ""

	body, err := BuildOrderConfirmationBody(c)

	require.NoError(t, err)
	assert.Contains(t, body, "Your payment has been received.")
	assert.NotContains(t, body, "Transaction")
}

func TestCurrencySymbol(t *testing.T) {
	assert.Equal(t, "$", currencySymbol("usd"))
	assert.Equal(t, "€", currencySymbol("EUR"))
	assert.Equal(t, "", currencySymbol("JPY"))
}
