package payment

// Method is a payment channel.
type Method string

const (
	MethodCard         Method = "card"
	MethodBankTransfer Method = "bank_transfer"
	MethodMobileMoney  Method = "mobile_money"
	MethodUSSD         Method = "ussd"
	MethodCrypto       Method = "crypto"
)

// Valid reports whether m is a supported method.
func (m Method) Valid() bool {
	switch m {
	case MethodCard, MethodBankTransfer, MethodMobileMoney, MethodUSSD, MethodCrypto:
		return true
	}
	return false
}

// CryptoMethod is a supported cryptocurrency.
type CryptoMethod string

const (
	Bitcoin  CryptoMethod = "bitcoin"
	Ethereum CryptoMethod = "ethereum"
	USDT     CryptoMethod = "usdt"
	USDC     CryptoMethod = "usdc"
)

// Valid reports whether c is a supported cryptocurrency.
func (c CryptoMethod) Valid() bool {
	switch c {
	case Bitcoin, Ethereum, USDT, USDC:
		return true
	}
	return false
}

// Status is the provider-reported payment state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// Customer identifies the payer.
type Customer struct {
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Name  string `json:"name"`
}

// CryptoPayment selects the coin for a crypto payment.
type CryptoPayment struct {
	CryptoMethod  CryptoMethod `json:"crypto_method"`
	WalletAddress string       `json:"wallet_address,omitempty"`
	Network       string       `json:"network,omitempty"`
}

// Request initializes a payment.
type Request struct {
	Amount        float64        `json:"amount"`
	Currency      string         `json:"currency"`
	Customer      Customer       `json:"customer"`
	PaymentMethod Method         `json:"payment_method"`
	Description   string         `json:"description,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CryptoPayment *CryptoPayment `json:"crypto_payment,omitempty"`
}

// Response is the provider's answer to initialization. For crypto payments
// the deposit details are lifted out of the provider response.
type Response struct {
	ID            string `json:"id"`
	Status        Status `json:"status"`
	PaymentLink   string `json:"payment_link,omitempty"`
	CryptoAddress string `json:"crypto_address,omitempty"`
	QRCode        string `json:"qr_code,omitempty"`
	Message       string `json:"message"`

	CryptoAmount          float64 `json:"-"`
	Network               string  `json:"-"`
	ConfirmationsRequired int     `json:"-"`
}

// Verification is the outcome of a payment status check.
type Verification struct {
	TransactionID         string
	Status                string
	Message               string
	Amount                float64
	Currency              string
	Confirmations         int
	ConfirmationsRequired int
}

// Settled reports whether the payment reached a final successful state.
func (v Verification) Settled() bool {
	return v.Status == string(StatusSuccessful) || v.Status == "confirmed"
}

// Crypto describes a supported cryptocurrency and its current rate.
type Crypto struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	RateUSD          float64 `json:"rate_usd"`
	Network          string  `json:"network"`
	MinConfirmations int     `json:"min_confirmations"`
}

// CryptoList is returned by the supported-crypto endpoint.
type CryptoList struct {
	Cryptocurrencies []Crypto `json:"cryptocurrencies"`
}
