package blackout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holidayguard/internal/types"
)

func TestNationalDayInterval(t *testing.T) {
	iv := NationalDay().Interval(context.Background(), 2026)
	assert.Equal(t, LabelNationalDay, iv.Label)
	assert.True(t, iv.Start.Equal(time.Date(2026, 9, 30, 16, 0, 0, 0, time.UTC)))
	assert.True(t, iv.End.Equal(time.Date(2026, 10, 8, 15, 59, 59, 0, time.UTC)))
}

func TestCatalogueCheck(t *testing.T) {
	cat := DefaultCatalogue(testResolver(nil, false))

	t.Run("spring festival conflict", func(t *testing.T) {
		w := mustWindow(t, "2026-02-18T02:00:00Z", "2026-02-18T06:00:00Z")
		c := cat.Check(context.Background(), w)
		assert.True(t, c.Overlaps)
		assert.Equal(t, 2026, c.Year)
		require.Len(t, c.Matched, 1)
		assert.Equal(t, LabelSpringFestival, c.Matched[0].Label)
		assert.Len(t, c.Checked, 2)
	})

	t.Run("national day conflict", func(t *testing.T) {
		w := mustWindow(t, "2026-10-03T00:00:00Z", "2026-10-03T04:00:00Z")
		c := cat.Check(context.Background(), w)
		assert.True(t, c.Overlaps)
		require.Len(t, c.Matched, 1)
		assert.Equal(t, LabelNationalDay, c.Matched[0].Label)
	})

	t.Run("ordinary week", func(t *testing.T) {
		w := mustWindow(t, "2026-06-10T00:00:00Z", "2026-06-10T04:00:00Z")
		c := cat.Check(context.Background(), w)
		assert.False(t, c.Overlaps)
		assert.Empty(t, c.Matched)
	})

	t.Run("year keyed on civil start", func(t *testing.T) {
		w := mustWindow(t, "2027-02-07T00:00:00Z", "2027-02-07T01:00:00Z")
		c := cat.Check(context.Background(), w)
		assert.Equal(t, 2027, c.Year)
		assert.True(t, c.Overlaps)
	})
}

func TestCatalogueIsExtensible(t *testing.T) {
	cat := NewCatalogue()
	cat.Add(FixedAnnual{Name: "labour-day", StartMonth: time.May, StartDay: 1, EndMonth: time.May, EndDay: 5})

	w := mustWindow(t, "2026-05-02T00:00:00Z", "2026-05-02T01:00:00Z")
	c := cat.Check(context.Background(), w)
	assert.True(t, c.Overlaps)
	assert.Equal(t, []types.BlackoutInterval{cat.Intervals(context.Background(), 2026)[0]}, c.Matched)
}

func TestMovableUsesResolverAndLabel(t *testing.T) {
	store := newMockStore()
	store.values["/ecs-phd-restart/spring-festival/2026"] = `{"start":"2026-03-01","end":"2026-03-02T23:59:59"}`

	m := Movable{Name: "lunar-new-year", Resolver: testResolver(store, false)}
	iv := m.Interval(context.Background(), 2026)

	assert.Equal(t, "lunar-new-year", iv.Label)
	assert.True(t, iv.Start.Equal(time.Date(2026, 2, 28, 16, 0, 0, 0, time.UTC)))
}
