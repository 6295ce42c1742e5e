package telemetry

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Submission("ok")
	m.Submission("ok")
	m.Submission("empty")
	m.ObserveRecognition("ok", 120*time.Millisecond, 3)
	m.AnnotationsShown(1)
	m.AnnotationsShown(1)
	m.Variables(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("empty")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.items))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.annotations))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.variables))

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP mathboard_variables Variables currently bound
# TYPE mathboard_variables gauge
mathboard_variables 2
`), "mathboard_variables")
	require.NoError(t, err)
}

func TestUnregistered(t *testing.T) {
	m := New(nil)
	m.Variables(4)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.variables))
}
