package service_test

import (
	"context"
	"testing"

	"github.com/dutch3883/th-stray-sub000/internal/auth"
	"github.com/dutch3883/th-stray-sub000/internal/model"
	"github.com/dutch3883/th-stray-sub000/internal/report"
	"github.com/dutch3883/th-stray-sub000/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queryEnv struct {
	*serviceEnv
	query service.QueryService
}

func setupQuery(t *testing.T) *queryEnv {
	t.Helper()
	env := setupService(t)
	return &queryEnv{
		serviceEnv: env,
		query:      service.NewQueryService(env.reportRepo, env.historyRepo),
	}
}

func (env *queryEnv) create(t *testing.T, caller service.Caller, reportType string) *report.Report {
	t.Helper()
	r, err := env.svc.Create(context.Background(), caller, &service.CreateReportRequest{
		NumberOfCats: 1,
		Type:         reportType,
		ContactPhone: "+66811234567",
		Location:     service.LocationPayload{Lat: 13.75, Long: 100.50},
	})
	require.NoError(t, err)
	return r
}

func statusOf(s report.Status) *report.Status        { return &s }
func typeOf(rt report.ReportType) *report.ReportType { return &rt }

func TestQueryService_ListReports_FilterByStatusAndType(t *testing.T) {
	env := setupQuery(t)
	ctx := context.Background()

	stray1 := env.create(t, reporter, "stray")
	env.create(t, reporter, "injured")
	stray2 := env.create(t, otherReporter, "stray")
	require.NoError(t, env.svc.Complete(ctx, rescuer, stray2.ID, ""))

	// status only
	reports, err := env.query.ListReports(ctx, &service.ListReportsFilter{
		Status: statusOf(report.StatusPending),
	})
	require.NoError(t, err)
	assert.Len(t, reports, 2)

	// type only
	reports, err = env.query.ListReports(ctx, &service.ListReportsFilter{
		Type: typeOf(report.TypeStray),
	})
	require.NoError(t, err)
	assert.Len(t, reports, 2)

	// both compose by AND
	reports, err = env.query.ListReports(ctx, &service.ListReportsFilter{
		Status: statusOf(report.StatusPending),
		Type:   typeOf(report.TypeStray),
	})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, stray1.ID, reports[0].ID)

	// no filter returns everything
	reports, err = env.query.ListReports(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, reports, 3)
}

func TestQueryService_ListReports_CarriesHistory(t *testing.T) {
	env := setupQuery(t)
	ctx := context.Background()

	r := env.create(t, reporter, "stray")
	require.NoError(t, env.svc.PutOnHold(ctx, rescuer, r.ID, "vet closed"))
	require.NoError(t, env.svc.Resume(ctx, rescuer, r.ID, ""))
	env.create(t, reporter, "injured")

	reports, err := env.query.ListReports(ctx, nil)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	byID := map[string]*report.Report{}
	for _, item := range reports {
		byID[item.ID] = item
	}
	require.Len(t, byID[r.ID].StatusHistory, 2)
	assert.Equal(t, report.StatusOnHold, byID[r.ID].StatusHistory[0].To)
}

func TestQueryService_ListReports_Sorting(t *testing.T) {
	env := setupQuery(t)
	ctx := context.Background()

	// The fake clock strictly increases, so creation order is
	// chronological order.
	first := env.create(t, reporter, "stray")
	second := env.create(t, reporter, "stray")
	third := env.create(t, reporter, "stray")

	reports, err := env.query.ListReports(ctx, &service.ListReportsFilter{
		SortBy: "createdAt", SortOrder: "asc",
	})
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, first.ID, reports[0].ID)
	assert.Equal(t, second.ID, reports[1].ID)
	assert.Equal(t, third.ID, reports[2].ID)

	reports, err = env.query.ListReports(ctx, &service.ListReportsFilter{
		SortBy: "createdAt", SortOrder: "desc",
	})
	require.NoError(t, err)
	assert.Equal(t, third.ID, reports[0].ID)
	assert.Equal(t, first.ID, reports[2].ID)

	// Move two reports so each carries a distinct status. Ascending
	// lexical order is completed < onHold < pending.
	require.NoError(t, env.svc.Complete(ctx, rescuer, first.ID, ""))
	require.NoError(t, env.svc.PutOnHold(ctx, rescuer, second.ID, ""))

	reports, err = env.query.ListReports(ctx, &service.ListReportsFilter{
		SortBy: "status", SortOrder: "asc",
	})
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, report.StatusCompleted, reports[0].Status)
	assert.Equal(t, report.StatusOnHold, reports[1].Status)
	assert.Equal(t, report.StatusPending, reports[2].Status)

	reports, err = env.query.ListReports(ctx, &service.ListReportsFilter{
		SortBy: "status", SortOrder: "desc",
	})
	require.NoError(t, err)
	assert.Equal(t, report.StatusPending, reports[0].Status)
	assert.Equal(t, report.StatusCompleted, reports[2].Status)
}

func TestQueryService_ListReports_SortByType(t *testing.T) {
	env := setupQuery(t)
	ctx := context.Background()

	injured := env.create(t, reporter, "injured")
	stray := env.create(t, reporter, "stray")

	reports, err := env.query.ListReports(ctx, &service.ListReportsFilter{
		SortBy: "type", SortOrder: "asc",
	})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, injured.ID, reports[0].ID)
	assert.Equal(t, stray.ID, reports[1].ID)

	reports, err = env.query.ListReports(ctx, &service.ListReportsFilter{
		SortBy: "type", SortOrder: "desc",
	})
	require.NoError(t, err)
	assert.Equal(t, stray.ID, reports[0].ID)
}

func TestQueryService_ListReports_CorruptRowFailsLoudly(t *testing.T) {
	env := setupQuery(t)
	ctx := context.Background()

	r := env.create(t, reporter, "stray")
	env.create(t, reporter, "injured")

	// Break the stored image list so the row no longer decodes.
	require.NoError(t, env.db.Model(&model.ReportModel{}).
		Where("id = ?", r.ID).
		Update("images", []byte("{not json")).Error)

	_, err := env.query.ListReports(ctx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), r.ID)

	// The count side still sees both rows; listing must not silently
	// return fewer.
	total, err := env.query.CountAllReports(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestQueryService_ListReports_RejectsBadParameters(t *testing.T) {
	env := setupQuery(t)
	ctx := context.Background()

	_, err := env.query.ListReports(ctx, &service.ListReportsFilter{
		Status: statusOf(report.Status("nonsense")),
	})
	assert.ErrorIs(t, err, report.ErrValidation)

	_, err = env.query.ListReports(ctx, &service.ListReportsFilter{
		Type: typeOf(report.ReportType("dog")),
	})
	assert.ErrorIs(t, err, report.ErrValidation)

	_, err = env.query.ListReports(ctx, &service.ListReportsFilter{SortBy: "ownerId"})
	assert.ErrorIs(t, err, report.ErrValidation)

	_, err = env.query.ListReports(ctx, &service.ListReportsFilter{SortOrder: "sideways"})
	assert.ErrorIs(t, err, report.ErrValidation)
}

func TestQueryService_ListMyReports(t *testing.T) {
	env := setupQuery(t)
	ctx := context.Background()

	mine1 := env.create(t, reporter, "stray")
	mine2 := env.create(t, reporter, "injured")
	env.create(t, otherReporter, "stray")

	reports, err := env.query.ListMyReports(ctx, reporter)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	// Newest first.
	assert.Equal(t, mine2.ID, reports[0].ID)
	assert.Equal(t, mine1.ID, reports[1].ID)
	for _, item := range reports {
		assert.Equal(t, reporter.Subject, item.OwnerID)
	}
}

func TestQueryService_Counts(t *testing.T) {
	env := setupQuery(t)
	ctx := context.Background()

	env.create(t, reporter, "stray")
	env.create(t, reporter, "injured")
	r := env.create(t, otherReporter, "stray")
	require.NoError(t, env.svc.Cancel(ctx, otherReporter, r.ID, ""))

	total, err := env.query.CountAllReports(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	total, err = env.query.CountAllReports(ctx, &service.CountReportsFilter{
		Status: statusOf(report.StatusPending),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	total, err = env.query.CountAllReports(ctx, &service.CountReportsFilter{
		Status: statusOf(report.StatusPending),
		Type:   typeOf(report.TypeStray),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	// Counting is scoped per caller for the personal variant.
	total, err = env.query.CountMyReports(ctx, reporter)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	total, err = env.query.CountMyReports(ctx, otherReporter)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, err = env.query.CountAllReports(ctx, &service.CountReportsFilter{
		Status: statusOf(report.Status("nonsense")),
	})
	assert.ErrorIs(t, err, report.ErrValidation)
}

func TestQueryService_GetHistory(t *testing.T) {
	env := setupQuery(t)
	ctx := context.Background()

	r := env.create(t, reporter, "stray")
	require.NoError(t, env.svc.PutOnHold(ctx, rescuer, r.ID, "vet closed"))
	require.NoError(t, env.svc.Resume(ctx, rescuer, r.ID, "vet open"))

	history, err := env.query.GetHistory(ctx, reporter, r.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, report.StatusPending, history[0].From)
	assert.Equal(t, report.StatusOnHold, history[0].To)
	assert.Equal(t, report.StatusOnHold, history[1].From)
	assert.Equal(t, report.StatusPending, history[1].To)

	// Another reporter may not read it; operators may.
	_, err = env.query.GetHistory(ctx, otherReporter, r.ID)
	var permErr *auth.PermissionDeniedError
	assert.ErrorAs(t, err, &permErr)

	_, err = env.query.GetHistory(ctx, rescuer, r.ID)
	assert.NoError(t, err)

	_, err = env.query.GetHistory(ctx, rescuer, "missing")
	assert.ErrorIs(t, err, report.ErrNotFound)
}
