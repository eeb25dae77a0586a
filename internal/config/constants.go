package config

import "time"

// DefaultTokenAddress is the deployed token this desk operates on unless
// token.address is overridden.
const DefaultTokenAddress = "0x3Bc99db296a6317A4DDC3a9B31d315bb261d62bB"

// Gas limits used as EstimateGas fallbacks when the node cannot simulate the tx.
// These are conservative upper bounds; actual gas used will be lower.
const (
	GasLimitERC20Transfer = uint64(60_000)  // transfer, approve, burn
	GasLimitERC20Mint     = uint64(80_000)  // mint
	GasLimitContractCall  = uint64(200_000) // stake, unstake, pause, anything else
)

// Timeout constants.
const (
	DetectTimeout       = 3 * time.Second // wallet provider detection
	TxConfirmTimeout    = 3 * time.Minute // receipt wait per write
	ReceiptPollInterval = 2 * time.Second
	AccessTimeout       = 2 * time.Minute // account authorization, human in the loop
)
