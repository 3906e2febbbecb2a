// Package mail 提供了 SMTP 发信能力，目前仅用于注册欢迎邮件。
package mail

import (
	"fmt"

	"mentorloop-go/internal/config"

	gomail "gopkg.in/gomail.v2"
)

// Sender 定义了发信接口，便于在测试中替换。
type Sender interface {
	Send(to, subject, body string) error
}

type smtpSender struct {
	cfg config.MailConfig
}

// NewSender 创建一个基于 SMTP 的发信器。
func NewSender(cfg config.MailConfig) Sender {
	return &smtpSender{cfg: cfg}
}

// Send 发送一封纯文本邮件。
func (s *smtpSender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件到 '%s' 失败: %w", to, err)
	}
	return nil
}
