package contract

// Standard ERC-20. Enough for metadata, balances, transfer and approve; the
// desk's other actions need the theodores descriptor.
func init() {
	RegisterBuiltin(BuiltinKind{
		ID:          "erc20",
		Name:        "ERC-20",
		Description: "Standard ERC-20 token interface.",
		ABI:         erc20ABI,
	})
}

var erc20ABI = []ABIEntry{
	{
		Name: "name", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "string"}},
		StateMutability: "view",
	},
	{
		Name: "symbol", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "string"}},
		StateMutability: "view",
	},
	{
		Name: "decimals", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "uint8"}},
		StateMutability: "view",
	},
	{
		Name: "totalSupply", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "uint256"}},
		StateMutability: "view",
	},
	{
		Name: "balanceOf", Type: "function",
		Inputs:          []ABIParam{{Name: "account", Type: "address"}},
		Outputs:         []ABIParam{{Name: "", Type: "uint256"}},
		StateMutability: "view",
	},
	{
		Name: "allowance", Type: "function",
		Inputs:          []ABIParam{{Name: "owner", Type: "address"}, {Name: "spender", Type: "address"}},
		Outputs:         []ABIParam{{Name: "", Type: "uint256"}},
		StateMutability: "view",
	},
	{
		Name: "transfer", Type: "function",
		Inputs:          []ABIParam{{Name: "to", Type: "address"}, {Name: "value", Type: "uint256"}},
		Outputs:         []ABIParam{{Name: "", Type: "bool"}},
		StateMutability: "nonpayable",
	},
	{
		Name: "approve", Type: "function",
		Inputs:          []ABIParam{{Name: "spender", Type: "address"}, {Name: "value", Type: "uint256"}},
		Outputs:         []ABIParam{{Name: "", Type: "bool"}},
		StateMutability: "nonpayable",
	},
}
