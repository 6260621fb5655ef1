package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics_IsolatedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.CacheGapFetches.Inc()
	m.CacheSlotLookups.WithLabelValues("hit").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheGapFetches))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheSlotLookups.WithLabelValues("hit")))

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRecordHelpers(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.BackendFetchErrors)
	RecordBackendFetch(3600, 0.036, errors.New("boom"))
	RecordBackendFetch(60, 0.0006, nil)
	assert.Equal(t, before+1, testutil.ToFloat64(DefaultMetrics.BackendFetchErrors))

	evictions := testutil.ToFloat64(DefaultMetrics.CacheEvictions)
	RecordEviction()
	assert.Equal(t, evictions+1, testutil.ToFloat64(DefaultMetrics.CacheEvictions))

	UpdateBucketCount(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(DefaultMetrics.CacheBuckets))
}
