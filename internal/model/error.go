package model

import "errors"

// Validation errors
var (
	ErrWeakPassword         = errors.New("password does not meet the minimum policy")
	ErrInvalidSeed          = errors.New("invalid seed phrase")
	ErrInvalidPrivateKey    = errors.New("invalid private key")
	ErrInvalidRecipient     = errors.New("invalid recipient address")
	ErrInvalidAmount        = errors.New("amount must be non-negative")
	ErrInvalidNetworkConfig = errors.New("network config is missing required fields")
)

// State errors
var (
	ErrLocked             = errors.New("wallet is locked")
	ErrNoSeed             = errors.New("wallet has no seed (import-only)")
	ErrUninitialized      = errors.New("wallet is not initialized")
	ErrUnknownNetwork     = errors.New("unknown network")
	ErrBuiltInNetwork     = errors.New("built-in networks cannot be removed")
	ErrActiveNetwork      = errors.New("the active network cannot be removed")
	ErrUnknownAccount     = errors.New("unknown account")
	ErrWalletExists       = errors.New("a wallet already exists")
	ErrAccountExists      = errors.New("account already exists")
	ErrUnknownTransaction = errors.New("unknown transaction")
	ErrWrongNetwork       = errors.New("transaction belongs to a different network")
)

// Authorization errors
var (
	ErrUnauthorizedReplacement = errors.New("caller is not the original sender")
)

// Conflict errors
var (
	ErrDuplicateChainID = errors.New("a network with this chain id already exists")
	ErrAlreadyConfirmed = errors.New("transaction is already confirmed")
)

// I/O and decryption errors
var (
	ErrSecretDecryption         = errors.New("failed to decrypt secret (wrong password?)")
	ErrInsufficientTokenBalance = errors.New("insufficient token balance")
	ErrNoConnection             = errors.New("no active network connection")
)

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
