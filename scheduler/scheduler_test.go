package scheduler

import (
	"testing"

	"github.com/reactiveflow/tsgraph/engtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleReplacesPriorTimeForTag(t *testing.T) {
	s := New()
	s.Schedule(engtime.Time(10), "poll")
	s.Schedule(engtime.Time(20), "poll")

	when, ok := s.PopTag("poll")
	require.True(t, ok)
	assert.Equal(t, engtime.Time(20), when)
}

func TestFiredTagsAtExactTime(t *testing.T) {
	s := New()
	s.Schedule(engtime.Time(5), "a")
	s.Schedule(engtime.Time(7), "b")

	assert.ElementsMatch(t, []string{"a"}, s.FiredTags(engtime.Time(5)))
	assert.ElementsMatch(t, []string{"b"}, s.FiredTags(engtime.Time(7)))
	assert.Empty(t, s.FiredTags(engtime.Time(6)))
}

func TestNextScheduledTimeIsMinimum(t *testing.T) {
	s := New()
	s.Schedule(engtime.Time(30), "a")
	s.Schedule(engtime.Time(10), "b")
	s.Schedule(engtime.Time(20), "c")

	when, ok := s.NextScheduledTime()
	require.True(t, ok)
	assert.Equal(t, engtime.Time(10), when)
}

func TestUnScheduleTagRemovesOnlyThatTag(t *testing.T) {
	s := New()
	s.Schedule(engtime.Time(1), "a")
	s.Schedule(engtime.Time(2), "b")

	s.UnSchedule("a")

	assert.False(t, s.HasTag("a"))
	assert.True(t, s.HasTag("b"))
}

func TestUnScheduleEmptyTagClearsAll(t *testing.T) {
	s := New()
	s.Schedule(engtime.Time(1), "a")
	s.Schedule(engtime.Time(2), "b")

	s.UnSchedule("")

	assert.False(t, s.IsScheduled())
}

func TestScheduleOnceUsesUntaggedSlot(t *testing.T) {
	s := New()
	s.ScheduleOnce(engtime.Time(42))

	assert.True(t, s.HasTag(""))
	when, ok := s.PopTag("")
	require.True(t, ok)
	assert.Equal(t, engtime.Time(42), when)
}
