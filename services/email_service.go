package services

import (
	"fmt"
	"time"

	"bankcards/config"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"
)

// EmailService предоставляет методы для отправки email
type EmailService struct {
	dialer *gomail.Dialer
	from   string
	config *config.Config
}

// NewEmailService создает новый экземпляр EmailService
func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &EmailService{
		dialer: dialer,
		from:   cfg.SMTP.From,
		config: cfg,
	}
}

// SendEmail отправляет email
func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("ошибка отправки email: %v", err)
	}

	return nil
}

// SendBlockRequestNotification уведомляет администратора о запросе
// на блокировку карты
func (s *EmailService) SendBlockRequestNotification(maskedNumber, username string) error {
	subject := "Запрос на блокировку карты"
	body := fmt.Sprintf(`
		<h2>Запрос на блокировку карты</h2>
		<p>Карта: %s</p>
		<p>Пользователь: %s</p>
		<p>Дата: %s</p>
	`, maskedNumber, username, time.Now().Format("02.01.2006 15:04:05"))

	return s.SendEmail(s.config.SMTP.AdminEmail, subject, body)
}

// SendTransferNotification отправляет квитанцию о переводе средств
func (s *EmailService) SendTransferNotification(to, maskedOut, maskedIn string, amount decimal.Decimal) error {
	subject := "Уведомление о переводе"
	body := fmt.Sprintf(`
		<h2>Перевод выполнен</h2>
		<p>Карта списания: %s</p>
		<p>Карта зачисления: %s</p>
		<p>Сумма: %s</p>
		<p>Дата: %s</p>
	`, maskedOut, maskedIn, amount.StringFixed(2), time.Now().Format("02.01.2006 15:04:05"))

	return s.SendEmail(to, subject, body)
}
