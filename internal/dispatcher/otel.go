package dispatcher

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/vexlab/svr-debug/internal/dispatcher"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
