package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
log_file = "/var/log/wallet-scheduler.log"
subsystems = ["orderpaymentwait", "orderexpiry", "ordercommission"]

[wallet]
server_bin = "/usr/bin/monero-wallet-rpc"
wallet_file = "/var/lib/wallet/shopwallet"
daemon_address = "node.example.com:18081"
rpc_port = 28088

[monitor]
operator_id = "operator1"

[commission]
percent = "5"
min_amount = "0.001"
address = "45commissionDestination"
auto_send = true
`

func writeConfig(t *testing.T, body string) string {
	file := filepath.Join(t.TempDir(), "wallet-scheduler.toml")
	require.NoError(t, os.WriteFile(file, []byte(body), 0o600))
	return file
}

func TestLoadAppliesDefaults(t *testing.T) {
	require.NoError(t, Load(writeConfig(t, sampleConfig)))

	cfg := GetConfig()
	assert.Equal(t, uint64(10), cfg.Monitor.Confirmations)
	assert.Equal(t, int64(60), cfg.Monitor.OrderTTLMinutes)
	assert.Equal(t, int64(50), cfg.Wallet.CacheCeilingMB)

	policy := GetCommissionPolicy()
	assert.True(t, policy.Percent.Equal(decimal.RequireFromString("5")))
	assert.True(t, policy.MinAmount.Equal(decimal.RequireFromString("0.001")))
	assert.True(t, policy.AutoSend)
	assert.Equal(t, time.Hour, policy.RetryInterval)

	assert.True(t, SupportSubsystem("orderpaymentwait"))
	assert.False(t, SupportSubsystem("unknown"))
}

func TestLoadRejectsBadPercent(t *testing.T) {
	body := sampleConfig + "\n"
	require.NoError(t, Load(writeConfig(t, body)))

	bad := writeConfig(t, `
[wallet]
server_bin = "/usr/bin/monero-wallet-rpc"
wallet_file = "/var/lib/wallet/shopwallet"
daemon_address = "node.example.com:18081"
rpc_port = 28088

[commission]
percent = "150"
`)
	err := Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestLoadRejectsAutoSendWithoutAddress(t *testing.T) {
	bad := writeConfig(t, `
[wallet]
server_bin = "/usr/bin/monero-wallet-rpc"
wallet_file = "/var/lib/wallet/shopwallet"
daemon_address = "node.example.com:18081"
rpc_port = 28088

[commission]
percent = "5"
auto_send = true
`)
	err := Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "destination address")
}

func TestSubsystemToggle(t *testing.T) {
	require.NoError(t, Load(writeConfig(t, sampleConfig)))

	DisableSubsystem("orderexpiry")
	assert.False(t, SupportSubsystem("orderexpiry"))
	EnableSubsystem("orderexpiry")
	assert.True(t, SupportSubsystem("orderexpiry"))
}
