package contract

// Theodores is the token the desk was built for: an ERC-20 with owner mint,
// holder burn, staking and pausing.
//
// Function selectors:
//
//	name()              → 0x06fdde03
//	symbol()            → 0x95d89b41
//	decimals()          → 0x313ce567
//	totalSupply()       → 0x18160ddd
//	balanceOf(address)  → 0x70a08231
//	allowance(a,a)      → 0xdd62ed3e
//	paused()            → 0x5c975abb
//	transfer(a,u256)    → 0xa9059cbb
//	approve(a,u256)     → 0x095ea7b3
//	mint(a,u256)        → 0x40c10f19
//	burn(u256)          → 0x42966c68
//	stake(u256)         → 0xa694fc3a
//	unstake(u256)       → 0x2e17de78
//	pause()             → 0x8456cb59
//	unpause()           → 0x3f4ba83a
func init() {
	RegisterBuiltin(BuiltinKind{
		ID:          "theodores",
		Name:        "Theodores Token",
		Description: "ERC-20 with mint, burn, stake/unstake and pause.",
		ABI:         theodoresABI,
	})
}

var theodoresABI = append(append([]ABIEntry{}, erc20ABI...), []ABIEntry{
	{
		Name: "paused", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "bool"}},
		StateMutability: "view",
	},
	{
		Name: "mint", Type: "function",
		Inputs:          []ABIParam{{Name: "to", Type: "address"}, {Name: "amount", Type: "uint256"}},
		StateMutability: "nonpayable",
	},
	{
		Name: "burn", Type: "function",
		Inputs:          []ABIParam{{Name: "amount", Type: "uint256"}},
		StateMutability: "nonpayable",
	},
	{
		Name: "stake", Type: "function",
		Inputs:          []ABIParam{{Name: "amount", Type: "uint256"}},
		StateMutability: "nonpayable",
	},
	{
		Name: "unstake", Type: "function",
		Inputs:          []ABIParam{{Name: "amount", Type: "uint256"}},
		StateMutability: "nonpayable",
	},
	{Name: "pause", Type: "function", StateMutability: "nonpayable"},
	{Name: "unpause", Type: "function", StateMutability: "nonpayable"},
}...)
