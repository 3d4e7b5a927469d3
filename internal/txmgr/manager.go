// Package txmgr implements the Transaction Manager: the transaction
// lifecycle state machine, from build and submit through confirmation,
// failure or same-nonce replacement.
package txmgr

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"go.uber.org/zap"

	"ewt/internal/chain"
	"ewt/internal/common"
	"ewt/internal/events"
	"ewt/internal/model"
	"ewt/internal/netmgr"
	"ewt/internal/storage"
)

const (
	// gasMarginPercent is the safety margin added on top of the endpoint's
	// gas estimate.
	gasMarginPercent = 20

	// minTransferGas is the canonical minimal-transfer gas limit, used as
	// the fallback when estimation fails.
	minTransferGas = 21000

	// DefaultFeeMultiplier is the fee bump applied by speed-up and cancel
	// when the caller does not override it.
	DefaultFeeMultiplier = 1.1

	defaultPollInterval   = 5 * time.Second
	defaultConfirmTimeout = 10 * time.Minute
	callTimeout           = 15 * time.Second
)

// Signer is the signing capability produced by the keyring. The manager
// never sees key material.
type Signer interface {
	Address() string
	SignTransaction(tx *model.Transaction, chainID uint64) ([]byte, error)
}

// Config tunes the monitoring loop. Zero values get defaults.
type Config struct {
	PollInterval   time.Duration
	ConfirmTimeout time.Duration
}

// Manager owns every tracked transaction record. Records are created on
// submit, mutated only by the monitoring routine or an explicit replacement,
// and never deleted while pending.
type Manager struct {
	mu       sync.Mutex
	networks *netmgr.Manager
	store    *storage.Manager
	bus      *events.Bus
	log      *zap.Logger
	clk      clock.Clock

	records    map[string]*model.Transaction
	order      []string // submission order, oldest first
	pending    map[string]struct{}
	monitoring map[string]struct{} // single monitor owner per hash

	pollInterval   time.Duration
	confirmTimeout time.Duration
	wg             sync.WaitGroup
}

// NewManager creates a Transaction Manager bound to the given collaborators.
func NewManager(networks *netmgr.Manager, store *storage.Manager, bus *events.Bus, clk clock.Clock, cfg Config, log *zap.Logger) *Manager {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.ConfirmTimeout == 0 {
		cfg.ConfirmTimeout = defaultConfirmTimeout
	}
	return &Manager{
		networks:       networks,
		store:          store,
		bus:            bus,
		log:            log,
		clk:            clk,
		records:        map[string]*model.Transaction{},
		pending:        map[string]struct{}{},
		monitoring:     map[string]struct{}{},
		pollInterval:   cfg.PollInterval,
		confirmTimeout: cfg.ConfirmTimeout,
	}
}

// EstimateFee queries the active connection for a gas estimate (plus the
// safety margin) and current fee levels, choosing the fee model from the
// active network's configuration.
func (m *Manager) EstimateFee(ctx context.Context, params model.TxParams, from string) (*model.FeeEstimate, error) {
	client, err := m.networks.ActiveClient()
	if err != nil {
		return nil, err
	}
	cfg, err := m.networks.Active()
	if err != nil {
		return nil, err
	}

	gasLimit := params.GasLimit
	if gasLimit == 0 {
		gasLimit = m.estimateGasLimit(ctx, client, params, from)
	}

	fees, err := client.GetFeeLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fee levels: %w", err)
	}

	estimate := &model.FeeEstimate{GasLimit: gasLimit}
	if cfg.SupportsPriorityFees {
		estimate.FeeModel = model.FeeModelPriority
		estimate.MaxFeePerGas = fees.MaxFeePerGas
		estimate.MaxPriorityFeePerGas = fees.MaxPriorityFeePerGas
	} else {
		estimate.FeeModel = model.FeeModelLegacy
		estimate.GasPrice = fees.GasPrice
	}
	return estimate, nil
}

// estimateGasLimit resolves a gas limit with margin, falling back to the
// canonical minimal-transfer limit when estimation fails.
func (m *Manager) estimateGasLimit(ctx context.Context, client chain.Client, params model.TxParams, from string) uint64 {
	data, _ := common.HexToBytes(params.InputData)
	estimated, err := client.EstimateGas(ctx, chain.CallMsg{
		From:  from,
		To:    params.To,
		Value: params.Value,
		Data:  data,
	})
	if err != nil {
		m.log.Warn("gas estimation failed, using minimal-transfer fallback", zap.Error(err))
		return minTransferGas
	}
	return estimated + estimated*gasMarginPercent/100
}

// Send validates, prices, signs and submits a transaction, records it as
// pending and starts its monitor.
func (m *Manager) Send(ctx context.Context, params model.TxParams, signer Signer) (*model.Transaction, error) {
	if !common.IsHexAddress(params.To) {
		return nil, model.ErrInvalidRecipient
	}
	if params.Value != nil && params.Value.Sign() < 0 {
		return nil, model.ErrInvalidAmount
	}

	client, err := m.networks.ActiveClient()
	if err != nil {
		return nil, err
	}
	cfg, err := m.networks.Active()
	if err != nil {
		return nil, err
	}

	tx, err := m.buildTransaction(ctx, client, cfg, params, signer.Address())
	if err != nil {
		return nil, err
	}

	return m.submit(ctx, client, cfg, tx, signer)
}

// buildTransaction resolves gas limit, fee fields and nonce for the params.
func (m *Manager) buildTransaction(ctx context.Context, client chain.Client, cfg model.NetworkConfig, params model.TxParams, from string) (*model.Transaction, error) {
	value := params.Value
	if value == nil {
		value = new(big.Int)
	}

	gasLimit := params.GasLimit
	if gasLimit == 0 {
		gasLimit = m.estimateGasLimit(ctx, client, params, from)
	}

	tx := &model.Transaction{
		From:      from,
		To:        params.To,
		Value:     value,
		InputData: params.InputData,
		GasLimit:  gasLimit,
		Status:    model.TxStatusPending,
		Timestamp: m.clk.Now().UTC(),
		NetworkID: cfg.ID,
	}

	// Fee fields per the network's fee model, unless explicitly overridden.
	if cfg.SupportsPriorityFees {
		tx.FeeModel = model.FeeModelPriority
		tx.MaxFeePerGas = params.MaxFeePerGas
		tx.MaxPriorityFeePerGas = params.MaxPriorityFeePerGas
		if tx.MaxFeePerGas == nil || tx.MaxPriorityFeePerGas == nil {
			fees, err := client.GetFeeLevels(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch fee levels: %w", err)
			}
			if tx.MaxFeePerGas == nil {
				tx.MaxFeePerGas = fees.MaxFeePerGas
			}
			if tx.MaxPriorityFeePerGas == nil {
				tx.MaxPriorityFeePerGas = fees.MaxPriorityFeePerGas
			}
		}
	} else {
		tx.FeeModel = model.FeeModelLegacy
		tx.GasPrice = params.GasPrice
		if tx.GasPrice == nil {
			fees, err := client.GetFeeLevels(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch fee levels: %w", err)
			}
			tx.GasPrice = fees.GasPrice
		}
	}

	if params.Nonce != nil {
		tx.Nonce = *params.Nonce
	} else {
		nonce, err := client.PendingNonce(ctx, from)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve nonce: %w", err)
		}
		tx.Nonce = nonce
	}

	return tx, nil
}

// submit signs and broadcasts tx, records it and begins monitoring.
func (m *Manager) submit(ctx context.Context, client chain.Client, cfg model.NetworkConfig, tx *model.Transaction, signer Signer) (*model.Transaction, error) {
	raw, err := signer.SignTransaction(tx, cfg.ChainID)
	if err != nil {
		return nil, err
	}

	hash, err := client.SendRawTransaction(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to submit transaction: %w", err)
	}
	tx.Hash = hash

	m.mu.Lock()
	m.records[hash] = tx
	m.order = append(m.order, hash)
	m.pending[hash] = struct{}{}
	m.mu.Unlock()

	m.persistHistory(ctx, tx.NetworkID, tx.From)

	m.log.Info("transaction submitted",
		zap.String("hash", hash),
		zap.Uint64("nonce", tx.Nonce),
		zap.String("explorer", explorerLink(cfg.ExplorerURLPrefix, hash)))
	m.bus.Publish(model.Event{Type: model.EventTransactionSubmitted, Payload: m.snapshot(hash)})

	m.wg.Add(1)
	go m.monitor(hash)

	return m.snapshot(hash), nil
}

// SendTokenTransfer encodes a fungible-token transfer, checks the sender's
// token balance and delegates to Send with zero native value.
func (m *Manager) SendTokenTransfer(ctx context.Context, tokenAddress, to string, amount *big.Int, decimals int, signer Signer) (*model.Transaction, error) {
	if !common.IsHexAddress(tokenAddress) || !common.IsHexAddress(to) {
		return nil, model.ErrInvalidRecipient
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, model.ErrInvalidAmount
	}

	client, err := m.networks.ActiveClient()
	if err != nil {
		return nil, err
	}

	balance, err := client.GetTokenBalance(ctx, tokenAddress, signer.Address())
	if err != nil {
		return nil, fmt.Errorf("failed to check token balance: %w", err)
	}
	if balance.Cmp(amount) < 0 {
		return nil, fmt.Errorf("have %s, need %s: %w",
			common.FormatUnits(balance, decimals), common.FormatUnits(amount, decimals),
			model.ErrInsufficientTokenBalance)
	}

	data, err := transferCallData(to, amount)
	if err != nil {
		return nil, err
	}

	return m.Send(ctx, model.TxParams{
		To:        tokenAddress,
		Value:     new(big.Int),
		InputData: common.BytesToHex(data),
	}, signer)
}

// monitor awaits network confirmation for one hash. Exactly one monitor
// runs per hash; it transitions the record to confirmed or failed, or exits
// quietly when a replacement superseded the record.
func (m *Manager) monitor(hash string) {
	defer m.wg.Done()

	m.mu.Lock()
	if _, taken := m.monitoring[hash]; taken {
		m.mu.Unlock()
		return
	}
	m.monitoring[hash] = struct{}{}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.monitoring, hash)
		m.mu.Unlock()
	}()

	deadline := m.clk.Now().Add(m.confirmTimeout)
	for {
		<-m.clk.TickAfter(m.pollInterval)

		m.mu.Lock()
		record, ok := m.records[hash]
		stillPending := ok && record.Status == model.TxStatusPending
		m.mu.Unlock()
		if !stillPending {
			// Replaced (or cleared) while we slept; the replacement owns
			// the lifecycle now.
			return
		}

		client, err := m.networks.ActiveClient()
		if err != nil {
			m.log.Warn("monitor has no connection", zap.String("hash", hash), zap.Error(err))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		receipt, err := client.GetTransactionReceipt(ctx, hash)
		cancel()
		if err != nil {
			m.log.Debug("receipt poll failed", zap.String("hash", hash), zap.Error(err))
		} else if receipt != nil {
			if receipt.Status == 1 {
				m.transition(hash, model.TxStatusConfirmed, receipt.BlockNumber, "")
			} else {
				m.transition(hash, model.TxStatusFailed, receipt.BlockNumber, "execution reverted")
			}
			return
		}

		if m.clk.Now().After(deadline) {
			m.transition(hash, model.TxStatusFailed, 0, "confirmation timeout")
			return
		}
	}
}

// transition moves a pending record to a terminal state and emits the
// ordered lifecycle notifications. No-op if the record already left pending.
func (m *Manager) transition(hash string, status model.TxStatus, blockNumber uint64, errMsg string) {
	m.mu.Lock()
	record, ok := m.records[hash]
	if !ok || record.Status != model.TxStatusPending {
		m.mu.Unlock()
		return
	}
	record.Status = status
	record.BlockNumber = blockNumber
	record.Error = errMsg
	if status == model.TxStatusConfirmed {
		now := m.clk.Now().UTC()
		record.ConfirmedAt = &now
	}
	delete(m.pending, hash)
	networkID, from := record.NetworkID, record.From
	m.mu.Unlock()

	m.persistHistory(context.Background(), networkID, from)

	m.log.Info("transaction finished",
		zap.String("hash", hash), zap.String("status", string(status)), zap.String("error", errMsg))

	m.bus.Publish(model.Event{Type: model.EventTransactionUpdated, Payload: m.snapshot(hash)})
	switch status {
	case model.TxStatusConfirmed:
		m.bus.Publish(model.Event{Type: model.EventTransactionConfirmed, Payload: m.snapshot(hash)})
	case model.TxStatusFailed:
		m.bus.Publish(model.Event{Type: model.EventTransactionFailed, Payload: m.snapshot(hash)})
	}
}

// SpeedUp resubmits a still-pending transaction at the same nonce with fee
// fields multiplied by feeMultiplier, superseding the original.
func (m *Manager) SpeedUp(ctx context.Context, hash string, signer Signer, feeMultiplier float64) (*model.Transaction, error) {
	return m.replace(ctx, hash, signer, feeMultiplier, false)
}

// Cancel resubmits a still-pending transaction's nonce as a zero-value
// self-transfer with bumped fees, nullifying its effect.
func (m *Manager) Cancel(ctx context.Context, hash string, signer Signer, feeMultiplier float64) (*model.Transaction, error) {
	return m.replace(ctx, hash, signer, feeMultiplier, true)
}

// replace implements the shared speed-up/cancel flow.
func (m *Manager) replace(ctx context.Context, hash string, signer Signer, feeMultiplier float64, cancel bool) (*model.Transaction, error) {
	if feeMultiplier <= 1 {
		feeMultiplier = DefaultFeeMultiplier
	}

	m.mu.Lock()
	record, ok := m.records[hash]
	if !ok {
		m.mu.Unlock()
		return nil, model.ErrUnknownTransaction
	}
	if record.Status != model.TxStatusPending || record.ReplacedByHash != "" {
		m.mu.Unlock()
		return nil, model.ErrAlreadyConfirmed
	}
	original := *record
	m.mu.Unlock()

	if !common.SameAddress(original.From, signer.Address()) {
		return nil, model.ErrUnauthorizedReplacement
	}

	client, err := m.networks.ActiveClient()
	if err != nil {
		return nil, err
	}
	cfg, err := m.networks.Active()
	if err != nil {
		return nil, err
	}
	// A replacement must go to the chain the original was broadcast on;
	// signing it for the current network would rebroadcast the transfer
	// (and reuse a possibly live nonce) on the wrong chain.
	if original.NetworkID != cfg.ID {
		return nil, model.ErrWrongNetwork
	}

	// Confirm the original is still unmined before racing it.
	onchain, err := client.GetTransaction(ctx, hash)
	if err == nil && onchain != nil && onchain.BlockNumber != nil {
		return nil, model.ErrAlreadyConfirmed
	}

	replacement := &model.Transaction{
		From:         original.From,
		To:           original.To,
		Value:        original.Value,
		InputData:    original.InputData,
		Nonce:        original.Nonce, // same nonce displaces the original
		FeeModel:     original.FeeModel,
		GasLimit:     original.GasLimit,
		Status:       model.TxStatusPending,
		Timestamp:    m.clk.Now().UTC(),
		OriginalHash: hash,
		NetworkID:    original.NetworkID,
	}
	if cancel {
		replacement.To = signer.Address()
		replacement.Value = new(big.Int)
		replacement.InputData = ""
		replacement.GasLimit = minTransferGas
	}

	switch original.FeeModel {
	case model.FeeModelPriority:
		replacement.MaxFeePerGas = bumpFee(original.MaxFeePerGas, feeMultiplier)
		replacement.MaxPriorityFeePerGas = bumpFee(original.MaxPriorityFeePerGas, feeMultiplier)
	default:
		replacement.GasPrice = bumpFee(original.GasPrice, feeMultiplier)
	}

	raw, err := signer.SignTransaction(replacement, cfg.ChainID)
	if err != nil {
		return nil, err
	}
	newHash, err := client.SendRawTransaction(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to submit replacement: %w", err)
	}
	replacement.Hash = newHash

	m.mu.Lock()
	record, ok = m.records[hash]
	if !ok || record.Status != model.TxStatusPending {
		// The monitor beat us to a terminal state after broadcast; keep
		// both records, the replacement will simply fail to mine.
		m.mu.Unlock()
		return nil, model.ErrAlreadyConfirmed
	}
	record.Status = model.TxStatusReplaced
	record.ReplacedByHash = newHash
	delete(m.pending, hash)

	m.records[newHash] = replacement
	m.order = append(m.order, newHash)
	m.pending[newHash] = struct{}{}
	m.mu.Unlock()

	m.persistHistory(ctx, replacement.NetworkID, replacement.From)

	m.log.Info("transaction replaced",
		zap.String("original", hash), zap.String("replacement", newHash),
		zap.Bool("cancel", cancel), zap.Float64("multiplier", feeMultiplier))

	m.bus.Publish(model.Event{Type: model.EventTransactionReplaced, Payload: m.snapshot(hash)})
	m.bus.Publish(model.Event{Type: model.EventTransactionSubmitted, Payload: m.snapshot(newHash)})

	m.wg.Add(1)
	go m.monitor(newHash)

	return m.snapshot(newHash), nil
}

// GetPending returns all records still awaiting confirmation.
func (m *Manager) GetPending() []model.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Transaction, 0, len(m.pending))
	for _, hash := range m.order {
		if _, ok := m.pending[hash]; ok {
			out = append(out, *m.records[hash])
		}
	}
	return out
}

// GetHistory returns records newest-first, optionally filtered, with
// limit/offset paging. Superseded records are retained for audit.
func (m *Manager) GetHistory(filter *model.HistoryFilter, limit, offset int) []model.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]model.Transaction, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		tx := m.records[m.order[i]]
		if filter != nil {
			if filter.Status != nil && tx.Status != *filter.Status {
				continue
			}
			if filter.From != nil && !common.SameAddress(tx.From, *filter.From) {
				continue
			}
			if filter.To != nil && !common.SameAddress(tx.To, *filter.To) {
				continue
			}
		}
		matched = append(matched, *tx)
	}

	if offset >= len(matched) {
		return nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched
}

// GetStatus merges the local record with a fresh on-chain lookup.
func (m *Manager) GetStatus(ctx context.Context, hash string) (*model.Transaction, error) {
	m.mu.Lock()
	_, ok := m.records[hash]
	m.mu.Unlock()
	if !ok {
		return nil, model.ErrUnknownTransaction
	}

	if client, err := m.networks.ActiveClient(); err == nil {
		receipt, err := client.GetTransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			if receipt.Status == 1 {
				m.transition(hash, model.TxStatusConfirmed, receipt.BlockNumber, "")
			} else {
				m.transition(hash, model.TxStatusFailed, receipt.BlockNumber, "execution reverted")
			}
		}
	}

	return m.snapshot(hash), nil
}

// ClearHistory drops terminal records. Pending records stay tracked so
// their monitors keep ownership of the lifecycle.
func (m *Manager) ClearHistory(ctx context.Context) {
	m.mu.Lock()
	groups := map[[2]string]struct{}{}
	kept := m.order[:0]
	for _, hash := range m.order {
		tx := m.records[hash]
		if tx.Status == model.TxStatusPending {
			kept = append(kept, hash)
			continue
		}
		groups[[2]string{tx.NetworkID, tx.From}] = struct{}{}
		delete(m.records, hash)
	}
	m.order = kept
	m.mu.Unlock()

	for g := range groups {
		m.persistHistory(ctx, g[0], g[1])
	}
}

// Hydrate loads persisted history for one network and address into memory.
// Already-tracked hashes win over stored ones.
func (m *Manager) Hydrate(ctx context.Context, networkID, address string) {
	stored := m.store.TransactionHistory(ctx, networkID, address)

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range stored {
		tx := stored[i]
		if _, ok := m.records[tx.Hash]; ok {
			continue
		}
		m.records[tx.Hash] = &tx
		m.order = append(m.order, tx.Hash)
		if tx.Status == model.TxStatusPending {
			m.pending[tx.Hash] = struct{}{}
		}
	}
}

// Wait blocks until every monitor goroutine has finished. Test helper and
// shutdown hook.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// snapshot returns a copy of one record, or nil if unknown.
func (m *Manager) snapshot(hash string) *model.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[hash]
	if !ok {
		return nil
	}
	out := *record
	return &out
}

// persistHistory writes one (network, address) history group to storage.
func (m *Manager) persistHistory(ctx context.Context, networkID, from string) {
	m.mu.Lock()
	var txs []model.Transaction
	for _, hash := range m.order {
		tx := m.records[hash]
		if tx.NetworkID == networkID && common.SameAddress(tx.From, from) {
			txs = append(txs, *tx)
		}
	}
	m.mu.Unlock()

	if err := m.store.SaveTransactionHistory(ctx, networkID, from, txs); err != nil {
		m.log.Warn("failed to persist history",
			zap.String("network", networkID), zap.Error(err))
	}
}
