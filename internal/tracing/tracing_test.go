package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestStartAndRecordWithNoopProvider(t *testing.T) {
	ctx, span := Start(context.Background(), "test.op", attribute.Int("n", 1))
	defer span.End()
	assert.NotNil(t, ctx)
	assert.False(t, span.IsRecording())
	// must not panic on a non-recording span or a nil error
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
}
