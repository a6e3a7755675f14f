package flags

import "github.com/urfave/cli/v2"

const (
	WalletCategory      = "WALLET"
	ContractCategory    = "CONTRACT"
	TransactionCategory = "TRANSACTION"
	PerfCategory        = "PERFORMANCE TUNING"
	LoggingCategory     = "LOGGING AND DEBUGGING"
	MetricsCategory     = "METRICS AND STATS"
	MiscCategory        = "MISC"
)

func init() {
	cli.HelpFlag.(*cli.BoolFlag).Category = MiscCategory
	cli.VersionFlag.(*cli.BoolFlag).Category = MiscCategory
}
