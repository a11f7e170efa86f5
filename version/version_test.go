package version

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	assert.Contains(t, Version(), VERSION)
	assert.NotEmpty(t, VersionInfo().GoVersion)
}

func TestRegisterMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterMetric("diamondd", reg)

	n, err := promtest.GatherAndCount(reg, "build_info")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
