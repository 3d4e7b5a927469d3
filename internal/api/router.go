package api

import (
	"net/http"

	"ewt/internal/handler"
	"ewt/internal/keyring"
	"ewt/internal/netmgr"
	"ewt/internal/storage"
	"ewt/internal/txmgr"

	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up router with handlers
func SetupRouter(keys *keyring.Manager, networks *netmgr.Manager, txs *txmgr.Manager, store *storage.Manager) http.Handler {
	walletHandler := handler.NewWalletHandler(keys, networks, txs)
	networkHandler := handler.NewNetworkHandler(networks, store)
	txHandler := handler.NewTransactionHandler(txs, keys, networks)

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Wallet endpoints
	mux.HandleFunc("/wallet/create", walletHandler.Create)
	mux.HandleFunc("/wallet/import", walletHandler.Import)
	mux.HandleFunc("/wallet/import-key", walletHandler.ImportKey)
	mux.HandleFunc("/wallet/unlock", walletHandler.Unlock)
	mux.HandleFunc("/wallet/lock", walletHandler.Lock)
	mux.HandleFunc("/wallet/reset", walletHandler.Reset)
	mux.HandleFunc("/wallet/accounts", walletHandler.Accounts)
	mux.HandleFunc("/wallet/derive", walletHandler.Derive)
	mux.HandleFunc("/wallet/switch", walletHandler.Switch)
	mux.HandleFunc("/wallet/export", walletHandler.Export)
	mux.HandleFunc("/wallet/qr", walletHandler.QR)
	mux.HandleFunc("/wallet/balance", walletHandler.Balance)

	// Network endpoints
	mux.HandleFunc("/network/list", networkHandler.List)
	mux.HandleFunc("/network/remove", networkHandler.Remove)
	mux.HandleFunc("/network/switch", networkHandler.Switch)
	mux.HandleFunc("/network/status", networkHandler.Status)
	mux.HandleFunc("/network/tokens", networkHandler.Tokens)

	// Transaction endpoints
	mux.HandleFunc("/tx/estimate", txHandler.Estimate)
	mux.HandleFunc("/tx/send", txHandler.Send)
	mux.HandleFunc("/tx/token", txHandler.TokenTransfer)
	mux.HandleFunc("/tx/speedup", txHandler.SpeedUp)
	mux.HandleFunc("/tx/cancel", txHandler.Cancel)
	mux.HandleFunc("/tx/pending", txHandler.Pending)
	mux.HandleFunc("/tx/history", txHandler.History)
	mux.HandleFunc("/tx/status", txHandler.Status)
	mux.HandleFunc("/tx/clear", txHandler.Clear)

	// Storage diagnostics
	mux.HandleFunc("/storage/stats", networkHandler.CacheStats)

	return mux
}
