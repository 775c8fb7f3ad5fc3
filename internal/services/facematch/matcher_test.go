package facematch

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicMatcher_PicksClosestCandidate(t *testing.T) {
	m := &HeuristicMatcher{}
	probe := bytes.Repeat([]byte{1}, 1000)

	verdict, err := m.MatchFace(context.Background(), probe, []Candidate{
		{StudentID: 1, Image: bytes.Repeat([]byte{1}, 1080)},
		{StudentID: 2, Image: bytes.Repeat([]byte{1}, 1010)},
		{StudentID: 3, Image: bytes.Repeat([]byte{1}, 2000)},
	})
	require.NoError(t, err)

	assert.True(t, verdict.Matched)
	assert.Equal(t, uint(2), verdict.StudentID)
	assert.Greater(t, verdict.Confidence, 0.8)
}

func TestHeuristicMatcher_NoCandidateWithinTolerance(t *testing.T) {
	m := &HeuristicMatcher{Tolerance: 0.05}
	probe := bytes.Repeat([]byte{1}, 1000)

	verdict, err := m.MatchFace(context.Background(), probe, []Candidate{
		{StudentID: 1, Image: bytes.Repeat([]byte{1}, 1500)},
		{StudentID: 2, Image: nil},
	})
	require.NoError(t, err)
	assert.False(t, verdict.Matched)
	assert.Zero(t, verdict.StudentID)
}
