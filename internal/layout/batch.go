package layout

import (
	"fmt"
	"sort"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

// DefaultBucketWidthMs is the spawn-batch bucket width when none is
// configured.
const DefaultBucketWidthMs = 5000

// GroupIntoBatches clusters spans into spawn batches by flooring each start
// time to the bucket width. Batches come back sorted ascending by bucket
// timestamp with 1-based chronological batch numbers, and each member span's
// BatchID is set in place. Membership is a pure function of StartTime and
// bucketWidthMs: the same input always yields the same grouping and
// numbering. Empty input yields an empty slice.
func GroupIntoBatches(spans []*timeline.AgentSpan, bucketWidthMs int64) []timeline.SpawnBatch {
	if bucketWidthMs <= 0 {
		bucketWidthMs = DefaultBucketWidthMs
	}

	byBucket := make(map[int64][]*timeline.AgentSpan)
	for _, s := range spans {
		if s == nil {
			continue
		}
		bucket := floorDiv(s.StartTime, bucketWidthMs) * bucketWidthMs
		byBucket[bucket] = append(byBucket[bucket], s)
	}

	buckets := make([]int64, 0, len(byBucket))
	for b := range byBucket {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i] < buckets[j] })

	batches := make([]timeline.SpawnBatch, 0, len(buckets))
	for i, bucket := range buckets {
		members := byBucket[bucket]
		sort.Slice(members, func(a, b int) bool {
			if members[a].StartTime != members[b].StartTime {
				return members[a].StartTime < members[b].StartTime
			}
			return members[a].ID < members[b].ID
		})

		batch := timeline.SpawnBatch{
			ID:              fmt.Sprintf("batch-%d", bucket),
			BucketTimestamp: bucket,
			BatchNumber:     i + 1,
			Agents:          members,
		}
		for _, s := range members {
			s.BatchID = batch.ID
		}
		batches = append(batches, batch)
	}
	return batches
}

// floorDiv floors toward negative infinity so pre-epoch timestamps bucket
// consistently.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
