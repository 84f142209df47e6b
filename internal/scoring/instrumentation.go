package scoring

import (
	"go.opentelemetry.io/otel"

	"github.com/speech-steps/backend/internal/telemetry"
)

const scopeName = "github.com/speech-steps/backend/internal/scoring"

var (
	tracer = otel.Tracer(scopeName)
	logger = telemetry.Logger(scopeName)
)
