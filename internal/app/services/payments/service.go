// Package payments backs the payment modal: it initializes a payment with
// the provider behind the API and reports back a checkout link or, for
// crypto, the deposit details.
package payments

import (
	"context"
	"encoding/json"
	"net/mail"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/R3E-Network/storefront/internal/app/domain/payment"
	sferrors "github.com/R3E-Network/storefront/internal/errors"
	"github.com/R3E-Network/storefront/internal/httputil"
	"github.com/R3E-Network/storefront/pkg/logger"
)

// API is the subset of the HTTP client the payment service needs.
type API interface {
	Get(ctx context.Context, path string, query url.Values, token string, out any) error
	Post(ctx context.Context, path string, query url.Values, body any, token string, out any) error
}

// Service issues payment calls.
type Service struct {
	api API
	log *logger.Logger
}

// New constructs the payment service.
func New(api API, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("payments")
	}
	return &Service{api: api, log: log}
}

// Validate checks a request locally.
func Validate(req payment.Request) error {
	if req.Amount <= 0 {
		return sferrors.Validation("amount", "must be greater than zero")
	}
	if strings.TrimSpace(req.Customer.Name) == "" {
		return sferrors.Validation("customer.name", "is required")
	}
	if strings.TrimSpace(req.Customer.Email) == "" {
		return sferrors.Validation("customer.email", "is required")
	}
	if _, err := mail.ParseAddress(req.Customer.Email); err != nil {
		return sferrors.Validation("customer.email", "is not a valid address")
	}
	if !req.PaymentMethod.Valid() {
		return sferrors.Validation("payment_method", "is not supported")
	}
	if req.PaymentMethod == payment.MethodCrypto {
		if req.CryptoPayment == nil || !req.CryptoPayment.CryptoMethod.Valid() {
			return sferrors.Validation("crypto_payment.crypto_method", "is required for crypto payments")
		}
	}
	return nil
}

// Initialize validates req and asks the server to start a payment.
func (s *Service) Initialize(ctx context.Context, req payment.Request, token string) (payment.Response, error) {
	if strings.TrimSpace(req.Currency) == "" {
		req.Currency = "USD"
	}
	req.Currency = strings.ToUpper(req.Currency)
	if err := Validate(req); err != nil {
		return payment.Response{}, err
	}
	if req.PaymentMethod != payment.MethodCrypto {
		req.CryptoPayment = nil
	}

	var raw json.RawMessage
	if err := s.api.Post(ctx, "/api/payments/initialize", nil, req, token, &raw); err != nil {
		s.log.WithError(err).WithField("method", req.PaymentMethod).Warn("payment initialization failed")
		return payment.Response{}, err
	}

	var resp payment.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return payment.Response{}, sferrors.Internal("failed to decode payment response", err)
	}
	if resp.Status == payment.StatusFailed {
		return resp, sferrors.Server(402, resp.Message)
	}

	if req.PaymentMethod == payment.MethodCrypto {
		provider := gjson.GetBytes(raw, "provider_response")
		resp.CryptoAmount = provider.Get("crypto_amount").Float()
		resp.Network = provider.Get("network").String()
		resp.ConfirmationsRequired = int(provider.Get("confirmations_required").Int())
		if resp.CryptoAddress == "" {
			resp.CryptoAddress = provider.Get("wallet_address").String()
		}
	}

	s.log.WithField("payment_id", resp.ID).WithField("method", req.PaymentMethod).Info("payment initialized")
	return resp, nil
}

// Verify asks the server for the status of a transaction.
func (s *Service) Verify(ctx context.Context, transactionID string, method payment.Method) (payment.Verification, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return payment.Verification{}, sferrors.Validation("transaction_id", "is required")
	}

	query := url.Values{}
	if method == payment.MethodCrypto {
		query.Set("payment_method", "crypto")
	}

	var raw json.RawMessage
	if err := s.api.Get(ctx, "/api/payments/verify/"+httputil.PathEscape(transactionID), query, "", &raw); err != nil {
		return payment.Verification{}, err
	}

	body := gjson.ParseBytes(raw)
	if body.Get("status").String() == "error" {
		return payment.Verification{}, sferrors.Server(402, body.Get("message").String())
	}

	data := body.Get("data")
	v := payment.Verification{
		TransactionID:         firstString(data, "transaction_id", "id"),
		Status:                data.Get("status").String(),
		Message:               body.Get("message").String(),
		Amount:                data.Get("amount").Float(),
		Currency:              data.Get("currency").String(),
		Confirmations:         int(data.Get("confirmations").Int()),
		ConfirmationsRequired: int(data.Get("required_confirmations").Int()),
	}
	if v.TransactionID == "" {
		v.TransactionID = transactionID
	}
	return v, nil
}

// SupportedCrypto lists the accepted cryptocurrencies with current rates.
func (s *Service) SupportedCrypto(ctx context.Context) ([]payment.Crypto, error) {
	var list payment.CryptoList
	if err := s.api.Get(ctx, "/api/payments/crypto/supported", nil, "", &list); err != nil {
		return nil, err
	}
	return list.Cryptocurrencies, nil
}

func firstString(res gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := res.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
