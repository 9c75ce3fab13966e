package services

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendFraudAlert(phone, reason string) error
	SendPayoutSummary(email string, accepted int, total float64) error
}

type emailService struct {
	dialer  *gomail.Dialer
	from    string
	alertTo string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail, alertTo string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer:  dialer,
		from:    fromEmail,
		alertTo: alertTo,
	}
}

// SendFraudAlert - письмо админу про подозрительный аккаунт (не смогли
// установить мастер-пароль и т.п.).
func (s *emailService) SendFraudAlert(phone, reason string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.alertTo)
	m.SetHeader("Subject", fmt.Sprintf("Fraud alert: %s", phone))

	body := fmt.Sprintf(`
		<h3>Подозрительный аккаунт</h3>
		<p>Номер: <strong>%s</strong></p>
		<p>Причина: %s</p>
		<p>Время: %s</p>
	`, phone, reason, time.Now().Format(time.RFC3339))

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send fraud alert: %w", err)
	}
	return nil
}

func (s *emailService) SendPayoutSummary(email string, accepted int, total float64) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Payout summary")

	body := fmt.Sprintf(`
		<h3>Сводка по выплатам</h3>
		<p>Принятых аккаунтов: <strong>%d</strong></p>
		<p>Сумма к выплате: <strong>%.2f</strong></p>
	`, accepted, total)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send payout summary: %w", err)
	}
	return nil
}
