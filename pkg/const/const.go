package constant

import "time"

const (
	DefaultRowLimit = int32(100)

	// PaymentScanInterval is how often the settlement monitor walks open orders.
	PaymentScanInterval = 30 * time.Second
	ExpiryScanInterval  = time.Minute
	CommissionInterval  = 10 * time.Minute

	DefaultConfirmations   = uint64(10)
	DefaultOrderTTLMinutes = 60

	// RPCTimeout bounds every routine wallet RPC call so a hung server
	// cannot freeze a scan tick.
	RPCTimeout    = 5 * time.Second
	StatusProbeTO = 5 * time.Second

	ReadyPollInterval = 2 * time.Second
	// A wallet that has synced before answers quickly. A freshly generated
	// wallet pulls initial chain data first, so it gets a much longer leash.
	ReadyTimeoutSynced = time.Minute
	ReadyTimeoutFresh  = 5 * time.Minute
)
