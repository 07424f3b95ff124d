package tracing

import (
	"testing"

	"example.com/backstage/services/distribution/config"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestDisabledTracerIsNoOp(t *testing.T) {
	tracer := Disabled()

	require.Nil(t, tracer.App())
	require.Nil(t, tracer.StartTransaction("test"))
	require.NotPanics(t, func() {
		txn := tracer.StartTransaction("test")
		tracer.AddAttribute(txn, "key", "value")
		tracer.RecordError(txn, errors.New("boom"))
		tracer.EndTransaction(txn)
		tracer.Close()
	})
}

func TestNewTracerWithoutLicenseKeyIsDisabled(t *testing.T) {
	tracer, err := NewTracer(config.TracingConfig{})

	require.NoError(t, err)
	require.Nil(t, tracer.App())
	require.Nil(t, tracer.StartTransaction("test"))
}
