package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	texttemplate "text/template"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/algobasket/hissabbook-api-system/pkg/utils"
	"github.com/algobasket/hissabbook-api-system/pkg/xerrors"
)

const otpHTMLTpl = `
<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Your Verification Code</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
  <div style="max-width: 600px; margin: auto; background: #fff; padding: 20px; border-radius: 8px;">
    <h2 style="color: #2E86C1;">{{.Purpose}}</h2>
    <p>Hello,</p>
    <p>Your one-time verification code is:</p>
    <p style="font-size: 28px; letter-spacing: 4px;"><strong>{{.Code}}</strong></p>
    <p>This code expires in {{.TTLMinutes}} minutes. If you did not request it, you can ignore this email.</p>
    <br>
    <p>Regards,<br><strong>{{.FromName}}</strong></p>
  </div>
</body>
</html>
`

const otpTextTpl = `{{.Purpose}}

Your one-time verification code is: {{.Code}}

This code expires in {{.TTLMinutes}} minutes. If you did not request it, you can ignore this email.

Regards,
{{.FromName}}
`

var (
	htmlTmpl = template.Must(template.New("otpHTML").Parse(otpHTMLTpl))
	textTmpl = texttemplate.Must(texttemplate.New("otpText").Parse(otpTextTpl))
)

type otpTemplateData struct {
	Purpose    string
	Code       string
	TTLMinutes int
	FromName   string
}

// Client sends OTP emails over implicit-TLS SMTP. Like the SMS client it
// never retries; transport errors are wrapped and surfaced.
type Client struct {
	smtpHost string
	smtpPort int
	username string
	password string
	fromName string
}

func NewClient(host string, port int, user, pass, fromName string) *Client {
	return &Client{
		smtpHost: host,
		smtpPort: port,
		username: user,
		password: pass,
		fromName: fromName,
	}
}

// Send renders the fixed HTML+plaintext template and delivers it. Returns
// the generated message id.
func (c *Client) Send(ctx context.Context, destination, code string, ttl time.Duration) (string, error) {
	data := otpTemplateData{
		Purpose:    utils.FormatPurpose("login_verification"),
		Code:       code,
		TTLMinutes: int(ttl.Minutes()),
		FromName:   c.fromName,
	}

	var htmlBody, textBody bytes.Buffer
	if err := htmlTmpl.Execute(&htmlBody, data); err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	if err := textTmpl.Execute(&textBody, data); err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}

	msgID := fmt.Sprintf("<%s@%s>", ulid.Make().String(), c.smtpHost)
	boundary := "np" + ulid.Make().String()

	from := c.username
	msg := []byte(
		fmt.Sprintf("From: %s <%s>\r\n", c.fromName, from) +
			fmt.Sprintf("To: %s\r\n", destination) +
			fmt.Sprintf("Subject: Your %s Code\r\n", data.Purpose) +
			fmt.Sprintf("Message-ID: %s\r\n", msgID) +
			"MIME-Version: 1.0\r\n" +
			fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary) +
			"\r\n" +
			fmt.Sprintf("--%s\r\n", boundary) +
			"Content-Type: text/plain; charset=\"utf-8\"\r\n" +
			"\r\n" +
			textBody.String() + "\r\n" +
			fmt.Sprintf("--%s\r\n", boundary) +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			htmlBody.String() + "\r\n" +
			fmt.Sprintf("--%s--\r\n", boundary),
	)

	if err := c.deliver(destination, msg); err != nil {
		return "", fmt.Errorf("%w: %v", xerrors.ErrChannelSend, err)
	}
	return msgID, nil
}

func (c *Client) deliver(to string, msg []byte) error {
	serverAddr := fmt.Sprintf("%s:%d", c.smtpHost, c.smtpPort)

	// Implicit TLS for port 465, bounded dial so a dead provider cannot
	// hold the request.
	tlsConfig := &tls.Config{ServerName: c.smtpHost}
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: 10 * time.Second}, "tcp", serverAddr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, c.smtpHost)
	if err != nil {
		return err
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", c.username, c.password, c.smtpHost)
	if err := client.Auth(auth); err != nil {
		return err
	}

	if err := client.Mail(c.username); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}
