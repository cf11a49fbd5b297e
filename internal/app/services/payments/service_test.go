package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/storefront/internal/app/domain/payment"
	"github.com/R3E-Network/storefront/internal/app/httpapi"
	sferrors "github.com/R3E-Network/storefront/internal/errors"
	"github.com/R3E-Network/storefront/internal/httputil"
	"github.com/R3E-Network/storefront/pkg/logger"
)

func newTestService(t *testing.T) (*Service, *httpapi.Server) {
	t.Helper()
	srv := httpapi.NewServer()
	t.Cleanup(srv.Close)
	client, err := httputil.New(httputil.Config{BaseURL: srv.URL, Logger: logger.NewDiscard()})
	require.NoError(t, err)
	return New(client, logger.NewDiscard()), srv
}

func cardRequest() payment.Request {
	return payment.Request{
		Amount:        199.99,
		Customer:      payment.Customer{Email: "buyer@example.com", Name: "Buyer"},
		PaymentMethod: payment.MethodCard,
	}
}

func TestInitialize_CardReturnsLink(t *testing.T) {
	svc, srv := newTestService(t)

	resp, err := svc.Initialize(context.Background(), cardRequest(), "")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, resp.Status)
	assert.Contains(t, resp.PaymentLink, resp.ID)
	assert.Empty(t, resp.CryptoAddress)

	reqs := srv.RequestsTo(httpapi.RoutePayInitialize)
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{
		"amount": 199.99,
		"currency": "USD",
		"customer": {"email": "buyer@example.com", "name": "Buyer"},
		"payment_method": "card"
	}`, string(reqs[0].Body))
}

func TestInitialize_CryptoLiftsProviderResponse(t *testing.T) {
	svc, _ := newTestService(t)
	req := cardRequest()
	req.Amount = 4500
	req.PaymentMethod = payment.MethodCrypto
	req.CryptoPayment = &payment.CryptoPayment{CryptoMethod: payment.Bitcoin}

	resp, err := svc.Initialize(context.Background(), req, "")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.CryptoAddress)
	assert.InDelta(t, 0.1, resp.CryptoAmount, 1e-9)
	assert.Equal(t, "testnet", resp.Network)
	assert.Equal(t, 1, resp.ConfirmationsRequired)
}

func TestInitialize_ValidatesLocally(t *testing.T) {
	svc, srv := newTestService(t)

	cases := map[string]func(*payment.Request){
		"zero amount":      func(r *payment.Request) { r.Amount = 0 },
		"missing name":     func(r *payment.Request) { r.Customer.Name = "" },
		"bad email":        func(r *payment.Request) { r.Customer.Email = "nope" },
		"unknown method":   func(r *payment.Request) { r.PaymentMethod = "cheque" },
		"crypto sans coin": func(r *payment.Request) { r.PaymentMethod = payment.MethodCrypto },
	}
	for name, mutate := range cases {
		req := cardRequest()
		mutate(&req)
		_, err := svc.Initialize(context.Background(), req, "")
		assert.True(t, sferrors.IsKind(err, sferrors.KindValidation), name)
	}
	assert.Empty(t, srv.Requests())
}

func TestVerify(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	card, err := svc.Initialize(ctx, cardRequest(), "")
	require.NoError(t, err)
	v, err := svc.Verify(ctx, card.ID, payment.MethodCard)
	require.NoError(t, err)
	assert.True(t, v.Settled())
	assert.Equal(t, card.ID, v.TransactionID)
	assert.InDelta(t, 199.99, v.Amount, 1e-9)

	crypto := cardRequest()
	crypto.PaymentMethod = payment.MethodCrypto
	crypto.CryptoPayment = &payment.CryptoPayment{CryptoMethod: payment.USDT}
	cr, err := svc.Initialize(ctx, crypto, "")
	require.NoError(t, err)
	v, err = svc.Verify(ctx, cr.ID, payment.MethodCrypto)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", v.Status)
	assert.Equal(t, 3, v.ConfirmationsRequired)

	_, err = svc.Verify(ctx, "tx_unknown", payment.MethodCard)
	assert.True(t, sferrors.IsKind(err, sferrors.KindServer))
}

func TestSupportedCrypto(t *testing.T) {
	svc, _ := newTestService(t)
	list, err := svc.SupportedCrypto(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "BITCOIN", list[0].Symbol)
	assert.Equal(t, 3, list[0].MinConfirmations)
}
