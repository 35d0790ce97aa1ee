package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

type WalletConfig struct {
	ServerBin      string `toml:"server_bin"`
	WalletFile     string `toml:"wallet_file"`
	DaemonAddress  string `toml:"daemon_address"`
	RPCPort        int    `toml:"rpc_port"`
	CacheCeilingMB int64  `toml:"cache_ceiling_mb"`
}

type MonitorConfig struct {
	Confirmations   uint64 `toml:"confirmations"`
	OrderTTLMinutes int64  `toml:"order_ttl_minutes"`
	OperatorID      string `toml:"operator_id"`
}

type CommissionConfig struct {
	Percent      string `toml:"percent"`
	MinAmount    string `toml:"min_amount"`
	Address      string `toml:"address"`
	AutoSend     bool   `toml:"auto_send"`
	RetryMinutes int64  `toml:"retry_minutes"`
}

type Config struct {
	LogFile    string           `toml:"log_file"`
	Subsystems []string         `toml:"subsystems"`
	Wallet     WalletConfig     `toml:"wallet"`
	Monitor    MonitorConfig    `toml:"monitor"`
	Commission CommissionConfig `toml:"commission"`
}

// CommissionPolicy is the parsed, validated form of CommissionConfig. Loaded
// once at startup, immutable afterwards.
type CommissionPolicy struct {
	Percent       decimal.Decimal
	MinAmount     decimal.Decimal
	Address       string
	AutoSend      bool
	RetryInterval time.Duration
}

var (
	cfg             *Config
	policy          *CommissionPolicy
	localSubsystems sync.Map
)

func Load(file string) error {
	c := &Config{}
	if _, err := toml.DecodeFile(file, c); err != nil {
		return fmt.Errorf("decode %v: %w", file, err)
	}
	p, err := validate(c)
	if err != nil {
		return err
	}
	cfg = c
	policy = p
	return nil
}

func validate(c *Config) (*CommissionPolicy, error) {
	if c.Wallet.ServerBin == "" {
		return nil, fmt.Errorf("invalid wallet server binary")
	}
	if c.Wallet.WalletFile == "" {
		return nil, fmt.Errorf("invalid wallet file")
	}
	if c.Wallet.DaemonAddress == "" {
		return nil, fmt.Errorf("invalid daemon address")
	}
	if c.Wallet.RPCPort <= 0 || c.Wallet.RPCPort > 65535 {
		return nil, fmt.Errorf("invalid rpc port %v", c.Wallet.RPCPort)
	}
	if c.Monitor.Confirmations == 0 {
		c.Monitor.Confirmations = 10
	}
	if c.Monitor.OrderTTLMinutes == 0 {
		c.Monitor.OrderTTLMinutes = 60
	}
	if c.Wallet.CacheCeilingMB == 0 {
		c.Wallet.CacheCeilingMB = 50
	}

	percent, err := decimal.NewFromString(c.Commission.Percent)
	if err != nil {
		return nil, fmt.Errorf("invalid commission percent: %w", err)
	}
	if percent.IsNegative() || percent.Cmp(decimal.NewFromInt(100)) > 0 {
		return nil, fmt.Errorf("commission percent %v out of range", percent)
	}
	minAmount := decimal.Zero
	if c.Commission.MinAmount != "" {
		if minAmount, err = decimal.NewFromString(c.Commission.MinAmount); err != nil {
			return nil, fmt.Errorf("invalid commission min amount: %w", err)
		}
	}
	if c.Commission.AutoSend && c.Commission.Address == "" {
		return nil, fmt.Errorf("commission auto send without destination address")
	}
	retry := time.Duration(c.Commission.RetryMinutes) * time.Minute
	if retry == 0 {
		retry = time.Hour
	}
	return &CommissionPolicy{
		Percent:       percent,
		MinAmount:     minAmount,
		Address:       c.Commission.Address,
		AutoSend:      c.Commission.AutoSend,
		RetryInterval: retry,
	}, nil
}

func GetConfig() *Config {
	return cfg
}

func GetCommissionPolicy() *CommissionPolicy {
	return policy
}

// SetForTest installs a config without touching the filesystem.
func SetForTest(c *Config, p *CommissionPolicy) {
	cfg = c
	policy = p
}

func SupportSubsystem(system string) bool {
	if val, ok := localSubsystems.Load(system); ok {
		return val.(bool)
	}
	if cfg == nil {
		return false
	}
	for _, subsystem := range cfg.Subsystems {
		if system == subsystem {
			return true
		}
	}
	return false
}

func Subsystems() []string {
	if cfg == nil {
		return nil
	}
	return cfg.Subsystems
}

func EnableSubsystem(system string) {
	localSubsystems.Store(system, true)
}

func DisableSubsystem(system string) {
	localSubsystems.Store(system, false)
}
