package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-worktime/internal/core/model"
	"github.com/penwyp/go-worktime/internal/util"
)

func commit(author, id string, ts time.Time) model.CommitRecord {
	return model.CommitRecord{Author: author, ID: id, Timestamp: ts, Message: "change " + id}
}

func TestAggregateCommitLog(t *testing.T) {
	tp := util.MustTimeProvider("UTC")
	day1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		commits       []model.CommitRecord
		expectedDays  []string
		expectedHours []float64
		expectedTotal float64
	}{
		{
			name:          "single_commit_yields_zero_hours",
			commits:       []model.CommitRecord{commit("ana", "a1", day1)},
			expectedDays:  []string{"2024-03-01"},
			expectedHours: []float64{0},
			expectedTotal: 0,
		},
		{
			name: "two_commits_ninety_minutes_apart",
			commits: []model.CommitRecord{
				commit("ana", "a1", day1),
				commit("ana", "a2", day1.Add(90*time.Minute)),
			},
			expectedDays:  []string{"2024-03-01"},
			expectedHours: []float64{1.5},
			expectedTotal: 1.5,
		},
		{
			name: "two_days_split_and_summed",
			commits: []model.CommitRecord{
				commit("ana", "b2", day2.Add(30*time.Minute)),
				commit("ana", "a1", day1),
				commit("ana", "b1", day2),
				commit("ana", "a2", day1.Add(2*time.Hour)),
			},
			expectedDays:  []string{"2024-03-01", "2024-03-02"},
			expectedHours: []float64{2, 0.5},
			expectedTotal: 2.5,
		},
		{
			name: "unordered_input_sorted_within_day",
			commits: []model.CommitRecord{
				commit("ana", "a3", day1.Add(3*time.Hour)),
				commit("ana", "a1", day1),
				commit("ana", "a2", day1.Add(time.Hour)),
			},
			expectedDays:  []string{"2024-03-01"},
			expectedHours: []float64{3},
			expectedTotal: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, invalid := AggregateCommitLog(tt.commits, tp)
			assert.Empty(t, invalid)
			require.Len(t, records, 1)

			r := records[0]
			assert.Equal(t, "ana", r.Author)
			assert.Len(t, r.Commits, len(tt.commits))
			require.Len(t, r.DailyWork, len(tt.expectedDays))

			var sum float64
			for i, d := range r.DailyWork {
				assert.Equal(t, tt.expectedDays[i], d.DayKey)
				assert.InDelta(t, tt.expectedHours[i], d.Hours, 1e-9)
				for j := 1; j < len(d.Commits); j++ {
					assert.False(t, d.Commits[j].Timestamp.Before(d.Commits[j-1].Timestamp))
				}
				assert.Equal(t, d.Commits[0].Timestamp, d.FirstTimestamp)
				assert.Equal(t, d.Commits[len(d.Commits)-1].Timestamp, d.LastTimestamp)
				sum += d.Hours
			}
			assert.InDelta(t, tt.expectedTotal, r.TotalHours, 1e-9)
			assert.InDelta(t, sum, r.TotalHours, 1e-9)
		})
	}
}

func TestAggregateCommitLogAuthorOrder(t *testing.T) {
	tp := util.MustTimeProvider("UTC")
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	records, _ := AggregateCommitLog([]model.CommitRecord{
		commit("zoe", "z1", base.Add(time.Hour)),
		commit("ana", "a1", base),
		commit("zoe", "z2", base.Add(2*time.Hour)),
		commit("max", "m1", base.Add(3*time.Hour)),
	}, tp)

	require.Len(t, records, 3)
	assert.Equal(t, "zoe", records[0].Author)
	assert.Equal(t, "ana", records[1].Author)
	assert.Equal(t, "max", records[2].Author)
	assert.InDelta(t, 1.0, records[0].TotalHours, 1e-9)
	assert.InDelta(t, 1.0, TotalHours(records), 1e-9)
}

func TestAggregateCommitLogSkipsInvalid(t *testing.T) {
	tp := util.MustTimeProvider("UTC")
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	records, invalid := AggregateCommitLog([]model.CommitRecord{
		commit("ana", "a1", base),
		{ID: "x1", Timestamp: base},
		commit("ana", "a2", time.Time{}),
		commit("ana", "a3", base.Add(time.Hour)),
	}, tp)

	require.Len(t, invalid, 2)
	assert.Equal(t, 1, invalid[0].Index)
	assert.Equal(t, "author", invalid[0].Field)
	assert.Equal(t, 2, invalid[1].Index)
	assert.Equal(t, "timestamp", invalid[1].Field)

	require.Len(t, records, 1)
	assert.Len(t, records[0].Commits, 2)
	assert.InDelta(t, 1.0, records[0].TotalHours, 1e-9)
}

func TestAggregateCommitLogDayKeyUsesTimezone(t *testing.T) {
	tp := util.MustTimeProvider("America/New_York")
	// 02:00 UTC on March 2 is still March 1 in New York.
	ts := time.Date(2024, 3, 2, 2, 0, 0, 0, time.UTC)

	records, _ := AggregateCommitLog([]model.CommitRecord{commit("ana", "a1", ts)}, tp)
	require.Len(t, records, 1)
	assert.Equal(t, "2024-03-01", records[0].DailyWork[0].DayKey)
	assert.True(t, records[0].DailyWork[0].SingleCommit())
}

func TestAggregateCommitLogDoesNotMutateInput(t *testing.T) {
	tp := util.MustTimeProvider("UTC")
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	input := []model.CommitRecord{
		commit("ana", "a2", base.Add(time.Hour)),
		commit("ana", "a1", base),
	}

	AggregateCommitLog(input, tp)
	assert.Equal(t, "a2", input[0].ID)
	assert.Equal(t, "a1", input[1].ID)
}

func TestAggregateCommitLogEmpty(t *testing.T) {
	records, invalid := AggregateCommitLog(nil, util.MustTimeProvider("UTC"))
	assert.Empty(t, records)
	assert.Empty(t, invalid)
}

func TestFilterSince(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	commits := []model.CommitRecord{
		commit("ana", "a1", base.Add(-time.Hour)),
		commit("ana", "a2", base),
		commit("ana", "a3", base.Add(time.Hour)),
	}

	assert.Len(t, FilterSince(commits, time.Time{}), 3)

	filtered := FilterSince(commits, base)
	require.Len(t, filtered, 2)
	assert.Equal(t, "a2", filtered[0].ID)
}

func TestFilterSinceKeepsUndatedCommitsForValidation(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	commits := []model.CommitRecord{
		commit("ana", "a1", base.Add(-time.Hour)),
		commit("ana", "a2", time.Time{}),
		commit("ana", "a3", base.Add(time.Hour)),
	}

	filtered := FilterSince(commits, base)
	require.Len(t, filtered, 2)
	assert.Equal(t, "a2", filtered[0].ID)

	records, invalid := AggregateCommitLog(filtered, util.MustTimeProvider("UTC"))
	require.Len(t, invalid, 1)
	assert.Equal(t, "a2", invalid[0].ID)
	require.Len(t, records, 1)
}
