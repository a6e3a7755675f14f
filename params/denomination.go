package params

// TUR is the number of minimal units in one token.
// Example: To get the minimal-unit value of an amount in TUR, use
//
//	new(big.Int).Mul(value, big.NewInt(params.TUR))
const TUR = 1e18

// Decimals is the number of fractional digits of the TUR display unit.
const Decimals = 18

// Symbol is the ticker shown next to formatted balances.
const Symbol = "TUR"
