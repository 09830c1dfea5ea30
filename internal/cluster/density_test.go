package cluster

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func blob(center float64, count int, spread float64) [][]float64 {
	points := make([][]float64, count)
	for i := range points {
		points[i] = []float64{center + float64(i)*spread, 0}
	}
	return points
}

func TestDensityClusterEmptyInput(t *testing.T) {
	t.Parallel()

	labels, err := densityCluster(nil, 2, 2)
	require.NoError(t, err)
	require.Empty(t, labels)
}

func TestDensityClusterSingleBlob(t *testing.T) {
	t.Parallel()

	labels, err := densityCluster(blob(0, 5, 0.01), 2, 2)
	require.NoError(t, err)
	require.Len(t, labels, 5)
	for _, l := range labels {
		require.Equal(t, 0, l)
	}
}

func TestDensityClusterSeparatesTwoBlobs(t *testing.T) {
	t.Parallel()

	points := append(blob(0, 4, 0.01), blob(10, 4, 0.01)...)
	labels, err := densityCluster(points, 2, 2)
	require.NoError(t, err)

	// The first blob gets label 0, the second label 1 (lowest member
	// index order).
	for i := 0; i < 4; i++ {
		require.Equal(t, 0, labels[i])
	}
	for i := 4; i < 8; i++ {
		require.Equal(t, 1, labels[i])
	}
}

func TestDensityClusterOutlierIsNoise(t *testing.T) {
	t.Parallel()

	points := append(blob(0, 5, 0.01), []float64{1000, 0})
	labels, err := densityCluster(points, 2, 2)
	require.NoError(t, err)
	require.Equal(t, noiseLabel, labels[5])
	for i := 0; i < 5; i++ {
		require.Equal(t, 0, labels[i])
	}
}

func TestDensityClusterBatchBelowMinimumIsAllNoise(t *testing.T) {
	t.Parallel()

	labels, err := densityCluster(blob(0, 2, 0.01), 3, 2)
	require.NoError(t, err)
	require.Equal(t, []int{noiseLabel, noiseLabel}, labels)
}

func TestDensityClusterDimensionMismatch(t *testing.T) {
	t.Parallel()

	points := [][]float64{{1, 2}, {1, 2, 3}}
	_, err := densityCluster(points, 2, 2)
	require.Error(t, err)
}

func TestDensityClusterDeterministic(t *testing.T) {
	t.Parallel()

	points := append(blob(0, 6, 0.02), blob(50, 6, 0.02)...)
	first, err := densityCluster(points, 2, 2)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := densityCluster(points, 2, 2)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}
