package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveOp(t *testing.T) {
	m := New()

	for _, op := range []string{"mint", "burn", "burn_from", "authorize", "deauthorize", "sweep_expired", "transfer"} {
		m.ObserveOp(op, time.Now())
	}
	m.ObserveOp("mint", time.Now())

	// One series per operation label.
	assert.Equal(t, 7, testutil.CollectAndCount(m.OpDuration, "pdtoken_operation_duration_seconds"))
}
