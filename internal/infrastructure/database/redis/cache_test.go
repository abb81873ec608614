package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testCache(opts ...CacheOption) *AssessmentCache {
	client := &Client{config: Config{KeyPrefix: "climarisk:"}}
	return NewAssessmentCache(client, opts...)
}

func TestNewAssessmentCache_PrefixFromClient(t *testing.T) {
	c := testCache()
	assert.Equal(t, "climarisk:assessment:p1", c.fullKey("assessment:p1"))
	assert.Equal(t, 15*time.Minute, c.defaultTTL)
}

func TestCacheOptions(t *testing.T) {
	c := testCache(WithPrefix("other:"), WithDefaultTTL(time.Minute))
	assert.Equal(t, "other:k", c.fullKey("k"))
	assert.Equal(t, time.Minute, c.defaultTTL)
}

func TestJitterTTL_StaysWithinTenPercent(t *testing.T) {
	c := testCache()
	ttl := time.Hour
	for i := 0; i < 200; i++ {
		jittered := c.jitterTTL(ttl)
		assert.GreaterOrEqual(t, jittered, time.Duration(float64(ttl)*0.9))
		assert.LessOrEqual(t, jittered, time.Duration(float64(ttl)*1.1))
	}
}

func TestJitterTTL_ZeroMeansNoExpiry(t *testing.T) {
	assert.Equal(t, time.Duration(0), testCache().jitterTTL(0))
}
