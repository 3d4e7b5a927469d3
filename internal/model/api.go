package model

// Request/response bodies for the HTTP facade. The facade owns no engine
// state; these only shuttle manager inputs and outputs.

type CreateWalletRequest struct {
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type CreateWalletResponse struct {
	Account    Account `json:"account"`
	SeedPhrase string  `json:"seedPhrase"`
}

type ImportWalletRequest struct {
	Password   string `json:"password"`
	SeedPhrase string `json:"seedPhrase"`
	Name       string `json:"name,omitempty"`
}

type ImportKeyRequest struct {
	PrivateKey string `json:"privateKey"`
	Name       string `json:"name,omitempty"`
}

type UnlockRequest struct {
	Password string `json:"password"`
}

type AccountsResponse struct {
	State       WalletState `json:"state"`
	ActiveIndex int         `json:"activeIndex"`
	Accounts    []Account   `json:"accounts"`
}

type DeriveAccountRequest struct {
	Name string `json:"name,omitempty"`
}

type SwitchAccountRequest struct {
	Index int `json:"index"`
}

type ExportKeyRequest struct {
	Index    int    `json:"index"`
	Password string `json:"password"`
}

type ExportKeyResponse struct {
	PrivateKey string `json:"privateKey"`
}

type BalanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
	Symbol  string `json:"symbol"`
}

type NetworkIDRequest struct {
	ID string `json:"id"`
}

type AddTokenRequest struct {
	NetworkID string `json:"networkId,omitempty"`
	Token     Token  `json:"token"`
}

type SendRequest struct {
	To       string  `json:"to"`
	Value    string  `json:"value"` // decimal, native units
	Data     string  `json:"data,omitempty"`
	GasLimit uint64  `json:"gasLimit,omitempty"`
	Nonce    *uint64 `json:"nonce,omitempty"`
}

type TokenTransferRequest struct {
	Token    string `json:"token"`
	To       string `json:"to"`
	Amount   string `json:"amount"` // decimal, token units
	Decimals int    `json:"decimals"`
}

type ReplaceRequest struct {
	Hash       string  `json:"hash"`
	Multiplier float64 `json:"multiplier,omitempty"`
}

type SubmitResponse struct {
	Transaction *Transaction `json:"transaction"`
	ExplorerURL string       `json:"explorerUrl,omitempty"`
}
