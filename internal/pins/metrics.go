package pins

import (
	"github.com/sweeney/pinscan/internal/metrics"
)

const (
	subSystem = "pins"
)

var (
	// Sensor metrics
	sensorStateGauge = metrics.MustRegisterGaugeVec(subSystem,
		"sensor_state",
		"Debounced state of a sensor",
		"name")
	sensorTransitionsTotal = metrics.MustRegisterCounterVec(subSystem,
		"sensor_transitions_total",
		"Number of confirmed (debounced) transitions of a sensor",
		"name")

	// Output metrics
	outputValueGauge = metrics.MustRegisterGaugeVec(subSystem,
		"output_value",
		"Committed value of an output",
		"name")
	outputTriggersTotal = metrics.MustRegisterCounterVec(subSystem,
		"output_triggers_total",
		"Number of times an output was triggered",
		"name")

	// Channel errors, op is read, write or commit
	ioErrorsTotal = metrics.MustRegisterCounterVec(subSystem,
		"io_errors_total",
		"Number of failed channel operations",
		"name", "op")
)
