// Package keys derives cache keys for values that are recomputed on a schedule.
package keys

import (
	"strings"
	"time"
)

const layout = "20060102_1504"

// TimeBucket returns prefix + "_" + yyyyMMdd_HHmm of t truncated to bucket,
// so every caller inside the same bucket shares one cache entry.
// Buckets below a minute collapse to a minute; t is taken in UTC.
func TimeBucket(prefix string, t time.Time, bucket time.Duration) string {
	if bucket < time.Minute {
		bucket = time.Minute
	}
	ts := t.UTC().Truncate(bucket).Format(layout)

	var b strings.Builder
	b.Grow(len(prefix) + 1 + len(layout))
	b.WriteString(prefix)
	b.WriteByte('_')
	b.WriteString(ts)
	return b.String()
}
