package netmgr

import "ewt/internal/model"

// builtinNetworks are the registry defaults. Built-in entries cannot be
// removed; custom entries layer on top of them.
func builtinNetworks() []model.NetworkConfig {
	return []model.NetworkConfig{
		{
			ID:                   "ethereum",
			DisplayName:          "Ethereum",
			EndpointURL:          "https://eth.llamarpc.com",
			ChainID:              1,
			NativeSymbol:         "ETH",
			ExplorerURLPrefix:    "https://etherscan.io/tx/",
			SupportsPriorityFees: true,
		},
		{
			ID:                   "polygon",
			DisplayName:          "Polygon",
			EndpointURL:          "https://polygon-rpc.com",
			ChainID:              137,
			NativeSymbol:         "POL",
			ExplorerURLPrefix:    "https://polygonscan.com/tx/",
			SupportsPriorityFees: true,
		},
		{
			ID:                "bsc",
			DisplayName:       "BNB Smart Chain",
			EndpointURL:       "https://bsc-dataseed.binance.org",
			ChainID:           56,
			NativeSymbol:      "BNB",
			ExplorerURLPrefix: "https://bscscan.com/tx/",
		},
		{
			ID:                   "sepolia",
			DisplayName:          "Sepolia Testnet",
			EndpointURL:          "https://rpc.sepolia.org",
			ChainID:              11155111,
			NativeSymbol:         "ETH",
			ExplorerURLPrefix:    "https://sepolia.etherscan.io/tx/",
			IsTestnet:            true,
			SupportsPriorityFees: true,
		},
	}
}
