package session

// AmountRequest is the body of PUT /api/sessions/:id/amount.
type AmountRequest struct {
	Amount *float64 `json:"amount" validate:"required,gte=0"`
}

// CurrencyRequest is the body of PUT /api/sessions/:id/currency.
type CurrencyRequest struct {
	Code string `json:"code" validate:"required,len=3,alpha"`
}
