package config

import "time"

// Config holds all tokendesk configuration.
type Config struct {
	Token             TokenConfig `json:"token"               mapstructure:"token"`
	RPCURL            string      `json:"rpc_url"             mapstructure:"rpc_url"`
	WalletRPCURL      string      `json:"wallet_rpc_url"      mapstructure:"wallet_rpc_url"` // EIP-1193 style signer endpoint
	Provider          string      `json:"provider"            mapstructure:"provider"`       // "auto" | "rpc" | "keystore"
	DefaultWallet     string      `json:"default_wallet"      mapstructure:"default_wallet"`
	DetectTimeoutMS   int         `json:"detect_timeout_ms"   mapstructure:"detect_timeout_ms"`
	ConfirmTimeoutSec int         `json:"confirm_timeout_sec" mapstructure:"confirm_timeout_sec"`
	Auth              AuthConfig  `json:"auth"                mapstructure:"auth"`
	HistoryDB         string      `json:"history_db"          mapstructure:"history_db"`
	DisplayUnits      bool        `json:"display_units"       mapstructure:"display_units"` // render amounts in token units instead of base units

	// internal: config dir path used for Save()
	configDir string
}

// TokenConfig identifies the bound contract.
type TokenConfig struct {
	Address    string `json:"address"    mapstructure:"address"`
	Descriptor string `json:"descriptor" mapstructure:"descriptor"` // built-in interface ID
	ABIFile    string `json:"abi_file"   mapstructure:"abi_file"`   // overrides Descriptor when set
}

// AuthConfig controls account authorization.
type AuthConfig struct {
	// ReuseGrant skips the authorization prompt when a previous grant for
	// the same provider is cached on disk.
	ReuseGrant bool `json:"reuse_grant" mapstructure:"reuse_grant"`
}

// DetectTimeout returns the provider detection bound.
func (c *Config) DetectTimeout() time.Duration {
	if c.DetectTimeoutMS <= 0 {
		return DetectTimeout
	}
	return time.Duration(c.DetectTimeoutMS) * time.Millisecond
}

// ConfirmTimeout returns how long a single write may wait for its receipt.
func (c *Config) ConfirmTimeout() time.Duration {
	if c.ConfirmTimeoutSec <= 0 {
		return TxConfirmTimeout
	}
	return time.Duration(c.ConfirmTimeoutSec) * time.Second
}
