package services

import (
	"database/sql"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"ratacueva-backend/config"
	"ratacueva-backend/internal/models"
)

// EmailService sends transactional mail. Every send is best effort: a mail
// failure is logged and swallowed, it never fails the operation that
// triggered it.
type EmailService struct {
	db     *sql.DB
	cfg    *config.Config
	logger *zap.Logger
}

// NewEmailService creates a new email service
func NewEmailService(db *sql.DB, cfg *config.Config, logger *zap.Logger) *EmailService {
	return &EmailService{db: db, cfg: cfg, logger: logger}
}

// SendOrderConfirmation mails the order summary to the buyer
func (s *EmailService) SendOrderConfirmation(userID string, order *models.Order) {
	subject := fmt.Sprintf("Confirmación de tu orden %s", order.ID)
	body := fmt.Sprintf(
		"¡Gracias por tu compra!\n\nOrden: %s\nTotal: $%.2f %s\nArtículos: %d\n\nTe avisaremos cuando tu pedido sea enviado.",
		order.ID, order.TotalAmount, order.Currency, len(order.Items))
	s.sendToUser(userID, subject, body)
}

// SendVerificationEmail mails the account verification link
func (s *EmailService) SendVerificationEmail(email, token string) {
	subject := "Verifica tu cuenta de RataCueva"
	body := fmt.Sprintf(
		"Bienvenido a RataCueva.\n\nUsa este token para verificar tu cuenta: %s\n\nSi no creaste esta cuenta, ignora este correo.",
		token)
	s.send(email, subject, body)
}

// SendShipmentNotification mails the tracking number once the order ships
func (s *EmailService) SendShipmentNotification(userID, trackingNumber, provider string) {
	subject := "Tu pedido está en camino"
	body := fmt.Sprintf(
		"Tu pedido fue enviado con %s.\nNúmero de guía: %s\n\nPuedes rastrearlo desde tu cuenta.",
		provider, trackingNumber)
	s.sendToUser(userID, subject, body)
}

func (s *EmailService) sendToUser(userID, subject, body string) {
	var email string
	if err := s.db.QueryRow("SELECT email FROM users WHERE id = ?", userID).Scan(&email); err != nil {
		s.logger.Warn("email skipped: could not resolve recipient",
			zap.String("userId", userID), zap.Error(err))
		return
	}
	s.send(email, subject, body)
}

func (s *EmailService) send(to, subject, body string) {
	if s.cfg.SMTPUsername == "" || s.cfg.SMTPPassword == "" {
		s.logger.Debug("email skipped: SMTP not configured",
			zap.String("to", to), zap.String("subject", subject))
		return
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		s.cfg.EmailFrom, to, subject, body))

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := smtp.SendMail(addr, auth, s.cfg.EmailFrom, []string{to}, msg); err != nil {
		s.logger.Warn("email send failed",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return
	}
	s.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject))
}
