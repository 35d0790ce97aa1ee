package walletrpc

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// atomicUnits is the number of atomic units per coin (piconero).
const atomicUnits = 12

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("wallet rpc error %v: %v", e.Code, e.Message)
}

type Balance struct {
	Balance         uint64 `json:"balance"`
	UnlockedBalance uint64 `json:"unlocked_balance"`
}

type Subaddress struct {
	Address      string `json:"address"`
	AddressIndex uint32 `json:"address_index"`
}

type SubaddrIndex struct {
	Major uint32 `json:"major"`
	Minor uint32 `json:"minor"`
}

type Transfer struct {
	Amount        uint64       `json:"amount"`
	Confirmations uint64       `json:"confirmations"`
	TxID          string       `json:"txid"`
	SubaddrIndex  SubaddrIndex `json:"subaddr_index"`
	Timestamp     uint64       `json:"timestamp"`
	Type          string       `json:"type"`
}

// SubaddressIndex reports the minor index the transfer landed on.
func (t *Transfer) SubaddressIndex() uint32 {
	return t.SubaddrIndex.Minor
}

type TransferResult struct {
	TxHash string `json:"tx_hash"`
	Fee    uint64 `json:"fee"`
}

// AmountFromAtomic converts atomic units to whole-coin decimal.
func AmountFromAtomic(v uint64) decimal.Decimal {
	return decimal.New(int64(v), -atomicUnits) //nolint
}

// AmountToAtomic converts a whole-coin decimal to atomic units, truncating
// anything below one atomic unit.
func AmountToAtomic(d decimal.Decimal) uint64 {
	return uint64(d.Shift(atomicUnits).IntPart())
}
