package content

import (
	"go.opentelemetry.io/otel"

	"github.com/speech-steps/backend/internal/telemetry"
)

const scopeName = "github.com/speech-steps/backend/internal/content"

var (
	tracer = otel.Tracer(scopeName)
	logger = telemetry.Logger(scopeName)
)
