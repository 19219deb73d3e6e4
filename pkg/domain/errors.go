package domain

import "errors"

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when a unique record is written twice
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrFetchFailed is returned when the remote rate source could not deliver rates
	ErrFetchFailed = errors.New("exchange rate fetch failed")
	// ErrInvalidAmount is returned for negative or non-finite amounts
	ErrInvalidAmount = errors.New("amount must be a non-negative number")
	// ErrInvalidCurrencyCode is returned when a currency code is not a valid ISO 4217 code
	ErrInvalidCurrencyCode = errors.New("invalid currency code")
	// ErrBaseCurrencyNotFound is returned by strict conversion when the base has no rate
	ErrBaseCurrencyNotFound = errors.New("base currency not found in rates")
	// ErrSessionNotFound is returned when a conversion session does not exist
	ErrSessionNotFound = errors.New("session not found")
)
