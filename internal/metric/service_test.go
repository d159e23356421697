package metric_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/missionhq/missionctl/internal/metric"
	"github.com/missionhq/missionctl/internal/metric/repositoryimpl"
	"github.com/missionhq/missionctl/pkg/cerr"
	"github.com/missionhq/missionctl/pkg/storage"
)

func newService(t *testing.T) *metric.Service {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return metric.NewService(repositoryimpl.NewYAMLRepository(store))
}

func dateDaysAgo(n int) string {
	return time.Now().Add(-time.Duration(n) * 24 * time.Hour).UTC().Format(metric.DateFormat)
}

func TestRecordValidates(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Record(ctx, metric.RecordInput{Type: "hourly", Date: dateDaysAgo(0)})
	require.True(t, cerr.IsCode(err, cerr.InvalidArgument))

	_, err = svc.Record(ctx, metric.RecordInput{Type: metric.TypeSession, Date: "today"})
	require.True(t, cerr.IsCode(err, cerr.InvalidArgument))

	m, err := svc.Record(ctx, metric.RecordInput{
		Type: metric.TypeSession, Date: dateDaysAgo(0), SessionKey: "s1", TotalTokens: 500,
	})
	require.NoError(t, err)
	require.EqualValues(t, 500, m.TotalTokens)
}

func TestUpsertDailyReplacesByDate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	today := dateDaysAgo(0)

	first, err := svc.UpsertDaily(ctx, today, 1000, 0.5, 10)
	require.NoError(t, err)
	second, err := svc.UpsertDaily(ctx, today, 2000, 1.0, 20)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	rows, err := svc.List(ctx, metric.TypeDaily, 10, "", "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.EqualValues(t, 2000, rows[0].TotalTokens)
}

func TestListFiltersAndOrders(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.UpsertDaily(ctx, dateDaysAgo(i), int64(1000*(i+1)), 0, 0)
		require.NoError(t, err)
	}
	_, err := svc.Record(ctx, metric.RecordInput{Type: metric.TypeSession, Date: dateDaysAgo(1), SessionKey: "s1"})
	require.NoError(t, err)

	daily, err := svc.List(ctx, metric.TypeDaily, 10, "", "")
	require.NoError(t, err)
	require.Len(t, daily, 3)
	require.Equal(t, dateDaysAgo(0), daily[0].Date)
	require.Equal(t, dateDaysAgo(2), daily[2].Date)

	ranged, err := svc.List(ctx, metric.TypeDaily, 10, dateDaysAgo(1), dateDaysAgo(1))
	require.NoError(t, err)
	require.Len(t, ranged, 1)

	limited, err := svc.List(ctx, "", 2, "", "")
	require.NoError(t, err)
	require.Len(t, limited, 2)
}

func TestBySession(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Record(ctx, metric.RecordInput{Type: metric.TypeSession, Date: dateDaysAgo(0), SessionKey: "s1", AgentID: "ag1"})
	require.NoError(t, err)
	_, err = svc.Record(ctx, metric.RecordInput{Type: metric.TypeSession, Date: dateDaysAgo(0), SessionKey: "s2", AgentID: "ag2"})
	require.NoError(t, err)

	byKey, err := svc.BySession(ctx, "s1", "", 10)
	require.NoError(t, err)
	require.Len(t, byKey, 1)

	byAgent, err := svc.BySession(ctx, "", "ag2", 10)
	require.NoError(t, err)
	require.Len(t, byAgent, 1)
	require.Equal(t, "s2", byAgent[0].SessionKey)

	all, err := svc.BySession(ctx, "", "", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestGetSummaryTrend(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	// Older half 1000+1000, newer half 2000+2000: +100% trend.
	tokens := []int64{2000, 2000, 1000, 1000}
	for i, n := range tokens {
		_, err := svc.UpsertDaily(ctx, dateDaysAgo(i), n, 1.0, 5)
		require.NoError(t, err)
	}

	summary, err := svc.GetSummary(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 4, summary.DataPoints)
	require.EqualValues(t, 6000, summary.TotalTokens)
	require.InDelta(t, 4.0, summary.TotalCost, 1e-9)
	require.EqualValues(t, 1500, summary.AvgDailyTokens)
	require.InDelta(t, 1.0, summary.AvgDailyCost, 1e-9)
	require.Equal(t, 100, summary.TrendPercent)
	require.Equal(t, dateDaysAgo(0), summary.LatestDate)
}

func TestGetSummaryEmpty(t *testing.T) {
	svc := newService(t)

	summary, err := svc.GetSummary(context.Background(), 7)
	require.NoError(t, err)
	require.Zero(t, summary.DataPoints)
	require.Zero(t, summary.TrendPercent)
	require.Empty(t, summary.LatestDate)
}

func TestCleanup(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	old := fmt.Sprintf("%d-01-01", time.Now().Year()-1)
	_, err := svc.UpsertDaily(ctx, old, 100, 0, 0)
	require.NoError(t, err)
	_, err = svc.UpsertDaily(ctx, dateDaysAgo(0), 200, 0, 0)
	require.NoError(t, err)

	deleted, err := svc.Cleanup(ctx, 90)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	rows, err := svc.List(ctx, metric.TypeDaily, 10, "", "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.EqualValues(t, 200, rows[0].TotalTokens)
}
