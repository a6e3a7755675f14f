// Contains the metrics collected by the orchestrator.

package orchestrator

import (
	"github.com/ethereum/go-ethereum/metrics"
)

var (
	submittedMeter = metrics.NewRegisteredMeter("turing/tx/submitted", nil)
	rejectedMeter  = metrics.NewRegisteredMeter("turing/tx/rejected", nil)
	confirmedMeter = metrics.NewRegisteredMeter("turing/tx/confirmed", nil)
	revertedMeter  = metrics.NewRegisteredMeter("turing/tx/reverted", nil)
	droppedMeter   = metrics.NewRegisteredMeter("turing/tx/dropped", nil)
	abandonedMeter = metrics.NewRegisteredMeter("turing/tx/abandoned", nil)

	invalidMeter = metrics.NewRegisteredMeter("turing/tx/invalid", nil)

	confirmTimer = metrics.NewRegisteredTimer("turing/tx/confirm", nil)
)
