package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitInstruments(t *testing.T) {
	require.NoError(t, InitInstruments())
	require.NoError(t, InitInstruments())
	assert.NotNil(t, FacetCalls)
	assert.NotNil(t, FacetCallDuration)

	// without a meter provider the global no-op provider is used
	RecordFacetCall(context.Background(), "0x01", "ok", 0.01)
}
