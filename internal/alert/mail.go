package alert

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

// MailConfig configures the SMTP alert sink.
type MailConfig struct {
	Host          string   `json:"host" yaml:"host"`
	Port          int      `json:"port" yaml:"port"`
	User          string   `json:"user" yaml:"user"`
	Password      string   `json:"password" yaml:"password"`
	SenderAddress string   `json:"senderAddress" yaml:"senderAddress"`
	SenderName    string   `json:"senderName" yaml:"senderName"`
	Receivers     []string `json:"receivers" yaml:"receivers"`
	// RetryCount bounds resend attempts per alert. Zero means 2.
	RetryCount int `json:"retryCount" yaml:"retryCount"`
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailNotifier emails high-risk audit events to the security distribution
// list.
type MailNotifier struct {
	dialer     dialer
	sender     string
	senderName string
	receivers  []string
	retryCount int
}

// NewMailNotifier builds the SMTP sink.
func NewMailNotifier(cfg MailConfig) (*MailNotifier, error) {
	if cfg.Host == "" || len(cfg.Receivers) == 0 {
		return nil, fmt.Errorf("alert: mail sink needs host and receivers")
	}
	sender := cfg.SenderAddress
	if sender == "" {
		sender = "noreply@lifebook.local"
	}
	senderName := cfg.SenderName
	if senderName == "" {
		senderName = "Lifebook Security"
	}
	retry := cfg.RetryCount
	if retry <= 0 {
		retry = 2
	}
	return &MailNotifier{
		dialer:     gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		sender:     sender,
		senderName: senderName,
		receivers:  cfg.Receivers,
		retryCount: retry,
	}, nil
}

func (n *MailNotifier) Notify(_ context.Context, ev Event) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", n.sender, n.senderName)
	msg.SetHeader("Bcc", n.receivers...)
	msg.SetHeader("Subject", fmt.Sprintf("[lifebook] high-risk audit event: %s", ev.Action))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Event:    %s\nTime:     %s\nUser:     %s\nAction:   %s\nResource: %s\nRisk:     %s\n",
		ev.ID,
		time.UnixMilli(ev.TimestampMs).UTC().Format(time.RFC3339),
		ev.UserID, ev.Action, ev.Resource, ev.Risk,
	))

	var lastErr error
	for attempt := 0; attempt <= n.retryCount; attempt++ {
		if lastErr = n.dialer.DialAndSend(msg); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("alert: mail send failed after %d attempts: %w", n.retryCount+1, lastErr)
}
