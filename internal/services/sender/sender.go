// Package services отправляет письма из очереди уведомлений: напоминания
// об истекающем пробном периоде и подтверждения почты.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quizory/quiz-league/internal/lib/i18n"
	"github.com/quizory/quiz-league/internal/lib/sl"
	"github.com/quizory/quiz-league/internal/lib/smtp"
	"github.com/quizory/quiz-league/internal/models"
)

// SenderService отправляет локализованные письма через SMTP.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendTrialReminder отправляет владельцу напоминание об истекающем
// пробном периоде на его языке.
func (s *SenderService) SendTrialReminder(body []byte) error {
	var message models.TrialReminder
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject := i18n.T(message.Language, "TrialReminderSubject")
	var bodyText string
	if message.Language == i18n.LangEN {
		bodyText = fmt.Sprintf("Hello, %s!\n\nThe trial period for %s expires in %d day(s).\nAfter that the organization switches to the free plan.",
			message.OwnerName, message.OrganizationName, message.DaysLeft)
	} else {
		bodyText = fmt.Sprintf("Zdravo, %s!\n\nProbni period za %s ističe za %d dan(a).\nNakon toga organizacija prelazi na besplatan plan.",
			message.OwnerName, message.OrganizationName, message.DaysLeft)
	}

	return s.sendEmail([]string{message.OwnerEmail}, subject, bodyText)
}

// SendEmailVerification отправляет ссылку для подтверждения почты.
func (s *SenderService) SendEmailVerification(body []byte) error {
	var message models.EmailVerification
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	var subject, bodyText string
	if message.Language == i18n.LangEN {
		subject = "Confirm your email address"
		bodyText = fmt.Sprintf("Hello, %s!\n\nFollow the link to confirm your email address: %s",
			message.DisplayName, message.VerifyURL)
	} else {
		subject = "Potvrdite svoju email adresu"
		bodyText = fmt.Sprintf("Zdravo, %s!\n\nPratite link da potvrdite svoju email adresu: %s",
			message.DisplayName, message.VerifyURL)
	}

	return s.sendEmail([]string{message.Email}, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
