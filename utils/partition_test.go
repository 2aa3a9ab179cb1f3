package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionMap(t *testing.T) {
	pm := NewPartitionMap(4, 10)
	assert.Equal(t, [][2]int{{0, 3}, {3, 6}, {6, 8}, {8, 10}}, pm.Partitions)

	// Buckets cover the range without gaps
	for _, tc := range [][2]int{{1, 7}, {3, 3}, {8, 1000}, {16, 5}} {
		pm = NewPartitionMap(tc[0], tc[1])
		next := 0
		for bn := 0; bn < pm.ParallelDegree; bn++ {
			kMin, kMax := pm.GetBucketRange(bn)
			assert.Equal(t, next, kMin)
			assert.True(t, kMax > kMin)
			next = kMax
		}
		assert.Equal(t, tc[1], next)
	}

	pm = NewPartitionMap(4, 0)
	assert.Equal(t, 1, pm.ParallelDegree)
	kMin, kMax := pm.GetBucketRange(0)
	assert.Equal(t, 0, kMin)
	assert.Equal(t, 0, kMax)
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 3, Workers(3))
	assert.True(t, Workers(0) >= 1)
}
