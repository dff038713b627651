package metrics

import (
	"strings"
	"testing"

	"handyman-auth/internal/auth/controller"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMetrics_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	var r controller.Recorder = m
	r.AttemptStarted(controller.MethodFederated)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InProgress))

	r.AttemptRejected(controller.MethodEmailSignIn)
	r.AttemptFinished(controller.MethodFederated, controller.ResultSuccess)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InProgress))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues("federated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttemptsRejectedTotal.WithLabelValues("email_sign_in")))

	expected := `
# HELP handyman_auth_outcomes_total Sign-in attempts finished, by method and result
# TYPE handyman_auth_outcomes_total counter
handyman_auth_outcomes_total{method="federated",result="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "handyman_auth_outcomes_total"))
}

func TestNew_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New(reg)
	require.NoError(t, err)
	second, err := New(reg)
	require.NoError(t, err)

	second.AttemptStarted("social")
	assert.Equal(t, 1.0, testutil.ToFloat64(first.AttemptsTotal.WithLabelValues("social")))
}

func TestAuthMetrics_NilSafe(t *testing.T) {
	var m *AuthMetrics
	assert.NotPanics(t, func() {
		m.AttemptStarted("social")
		m.AttemptRejected("social")
		m.AttemptFinished("social", "cancelled")
	})
}
