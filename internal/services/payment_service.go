package services

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"ratacueva-backend/config"
	"ratacueva-backend/internal/apperrors"
	"ratacueva-backend/internal/models"
)

// PaymentService charges orders through an external payment gateway. When no
// gateway URL is configured the charge is simulated locally, which keeps
// development and tests independent of the provider.
type PaymentService struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
	cfg     *config.Config
	logger  *zap.Logger
}

type chargeRequest struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Method   string  `json:"method"`
	Token    string  `json:"token"`
	OrderRef string  `json:"orderRef"`
}

type chargeResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

// NewPaymentService creates a payment service with a circuit breaker around
// the gateway client
func NewPaymentService(cfg *config.Config, logger *zap.Logger) *PaymentService {
	client := resty.New().
		SetBaseURL(cfg.PaymentGatewayURL).
		SetTimeout(cfg.PaymentGatewayTimeout).
		SetHeader("Authorization", "Bearer "+cfg.PaymentGatewayAPIKey)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &PaymentService{client: client, breaker: breaker, cfg: cfg, logger: logger}
}

// Charge attempts to capture the payment for an order and returns the gateway
// transaction id. A declined or unreachable gateway is reported as Conflict so
// the checkout can abort cleanly.
func (s *PaymentService) Charge(orderID string, amount float64, currency string, payment models.OrderPaymentInput) (string, error) {
	if s.cfg.PaymentGatewayURL == "" {
		return s.simulateCharge(orderID)
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		var out chargeResponse
		resp, err := s.client.R().
			SetBody(chargeRequest{
				Amount:   amount,
				Currency: currency,
				Method:   string(payment.Type),
				Token:    payment.PaymentGatewayToken,
				OrderRef: orderID,
			}).
			SetResult(&out).
			Post("/v1/charges")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode(), resp.String())
		}
		return &out, nil
	})
	if err != nil {
		s.logger.Error("payment charge failed",
			zap.String("orderId", orderID),
			zap.Error(err))
		return "", apperrors.Conflict("El pago no pudo ser procesado. Intenta de nuevo más tarde.")
	}

	out := result.(*chargeResponse)
	if out.Status != "approved" {
		s.logger.Warn("payment declined",
			zap.String("orderId", orderID),
			zap.String("status", out.Status))
		return "", apperrors.Conflict("El pago fue rechazado por el proveedor.")
	}
	return out.TransactionID, nil
}

// Refund asks the gateway to return the captured amount. Best effort: a
// failure is logged and reported, the caller decides whether to proceed.
func (s *PaymentService) Refund(orderID, transactionID string) error {
	if s.cfg.PaymentGatewayURL == "" {
		s.logger.Info("simulated refund",
			zap.String("orderId", orderID),
			zap.String("transactionId", transactionID))
		return nil
	}

	_, err := s.breaker.Execute(func() (interface{}, error) {
		resp, err := s.client.R().
			SetBody(map[string]string{"transactionId": transactionID, "orderRef": orderID}).
			Post("/v1/refunds")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode(), resp.String())
		}
		return nil, nil
	})
	if err != nil {
		s.logger.Error("payment refund failed",
			zap.String("orderId", orderID),
			zap.String("transactionId", transactionID),
			zap.Error(err))
		return apperrors.Conflict("El reembolso no pudo ser procesado.")
	}
	return nil
}

func (s *PaymentService) simulateCharge(orderID string) (string, error) {
	transactionID := fmt.Sprintf("txn_%d_%08d", time.Now().Unix(), rand.Intn(100000000))
	s.logger.Info("simulated payment approved",
		zap.String("orderId", orderID),
		zap.String("transactionId", transactionID))
	return transactionID, nil
}
