package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultProvider   = "auto"
	defaultRPC        = "http://127.0.0.1:8545"
	defaultDescriptor = "theodores"

	configFile  = "config.json"
	walletsFile = "wallets.json"
	grantsFile  = "grants.json"
	historyFile = "history.db"

	envPrefix = "TOKENDESK"
)

// Load reads config from dir (or creates defaults). dir defaults to
// ~/.tokendesk. Values resolve in order: defaults, config.json, then
// TOKENDESK_* environment variables (e.g. TOKENDESK_TOKEN_ADDRESS).
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".tokendesk")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(dir, configFile)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.configDir = dir
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is the wallet registry file.
func (c *Config) WalletsPath() string { return filepath.Join(c.configDir, walletsFile) }

// GrantsPath is the cached account-authorization file.
func (c *Config) GrantsPath() string { return filepath.Join(c.configDir, grantsFile) }

// HistoryPath is the activity journal database.
func (c *Config) HistoryPath() string {
	if c.HistoryDB != "" {
		return c.HistoryDB
	}
	return filepath.Join(c.configDir, historyFile)
}

// setters maps each settable key to a function applying a string value.
var setters = map[string]func(c *Config, v string) error{
	"token.address":    func(c *Config, v string) error { c.Token.Address = v; return nil },
	"token.descriptor": func(c *Config, v string) error { c.Token.Descriptor = v; return nil },
	"token.abi_file":   func(c *Config, v string) error { c.Token.ABIFile = v; return nil },
	"rpc_url":          func(c *Config, v string) error { c.RPCURL = v; return nil },
	"wallet_rpc_url":   func(c *Config, v string) error { c.WalletRPCURL = v; return nil },
	"default_wallet":   func(c *Config, v string) error { c.DefaultWallet = v; return nil },
	"history_db":       func(c *Config, v string) error { c.HistoryDB = v; return nil },
	"provider": func(c *Config, v string) error {
		switch v {
		case "auto", "rpc", "keystore":
			c.Provider = v
			return nil
		}
		return fmt.Errorf("provider must be auto, rpc or keystore (got %q)", v)
	},
	"detect_timeout_ms":   intSetter(func(c *Config, n int) { c.DetectTimeoutMS = n }),
	"confirm_timeout_sec": intSetter(func(c *Config, n int) { c.ConfirmTimeoutSec = n }),
	"auth.reuse_grant":    boolSetter(func(c *Config, b bool) { c.Auth.ReuseGrant = b }),
	"display_units":       boolSetter(func(c *Config, b bool) { c.DisplayUnits = b }),
}

// Set assigns a value by its dotted key name.
func (c *Config) Set(key, value string) error {
	fn, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	return fn(c, value)
}

// Keys lists the settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// --- helpers ---

func setDefaults(v *viper.Viper) {
	v.SetDefault("token.address", DefaultTokenAddress)
	v.SetDefault("token.descriptor", defaultDescriptor)
	v.SetDefault("token.abi_file", "")
	v.SetDefault("rpc_url", defaultRPC)
	v.SetDefault("wallet_rpc_url", "")
	v.SetDefault("provider", defaultProvider)
	v.SetDefault("default_wallet", "")
	v.SetDefault("detect_timeout_ms", int(DetectTimeout.Milliseconds()))
	v.SetDefault("confirm_timeout_sec", int(TxConfirmTimeout.Seconds()))
	v.SetDefault("auth.reuse_grant", false)
	v.SetDefault("history_db", "")
	v.SetDefault("display_units", true)
}

func intSetter(apply func(*Config, int)) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("expected a non-negative integer, got %q", v)
		}
		apply(c, n)
		return nil
	}
}

func boolSetter(apply func(*Config, bool)) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", v)
		}
		apply(c, b)
		return nil
	}
}
