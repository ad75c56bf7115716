package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/schedule"
)

type recordingNotifier struct {
	events    []schedule.DueEvent
	receivers int64
	err       error
}

func (n *recordingNotifier) NotifyDue(_ context.Context, ev schedule.DueEvent) (int64, error) {
	if n.err != nil {
		return 0, n.err
	}
	n.events = append(n.events, ev)
	return n.receivers, nil
}

func checkDueTask(t *testing.T, auctionID, nextCheck string) *asynq.Task {
	t.Helper()
	at, err := time.Parse(time.RFC3339, nextCheck)
	require.NoError(t, err)
	task, _, err := NewCheckDueTask(auctionID, at, nextCheck)
	require.NoError(t, err)
	return task
}

func TestCheckDueNotifiesCurrentSchedule(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, schedule.Entry{AuctionID: "a1", NextCheck: "2021-03-10T10:00:00+02:00"}))

	notifier := &recordingNotifier{receivers: 1}
	job := NewCheckDueJob(store, notifier, discardLogger(), nil)

	require.NoError(t, job.Handle(ctx, checkDueTask(t, "a1", "2021-03-10T10:00:00+02:00")))
	assert.Equal(t, []schedule.DueEvent{{AuctionID: "a1", NextCheck: "2021-03-10T10:00:00+02:00"}}, notifier.events)
}

func TestCheckDueSkipsSupersededAndRemoved(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, schedule.Entry{AuctionID: "a1", NextCheck: "2021-03-12T10:00:00+02:00"}))

	notifier := &recordingNotifier{receivers: 1}
	job := NewCheckDueJob(store, notifier, discardLogger(), nil)

	require.NoError(t, job.Handle(ctx, checkDueTask(t, "a1", "2021-03-10T10:00:00+02:00")))
	require.NoError(t, job.Handle(ctx, checkDueTask(t, "gone", "2021-03-10T10:00:00+02:00")))
	assert.Empty(t, notifier.events)
}

func TestCheckDueFailuresRetry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, schedule.Entry{AuctionID: "a1", NextCheck: "2021-03-10T10:00:00+02:00"}))

	job := NewCheckDueJob(store, &recordingNotifier{err: errors.New("publish failed")}, discardLogger(), nil)
	err := job.Handle(ctx, checkDueTask(t, "a1", "2021-03-10T10:00:00+02:00"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)

	err = job.Handle(ctx, asynq.NewTask(TaskCheckDue, []byte(`{"auction_id":""}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestScheduleSweepRepublishesOverdue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, schedule.Entry{AuctionID: "overdue", NextCheck: "2021-03-10T10:00:00+02:00"}))
	require.NoError(t, store.Save(ctx, schedule.Entry{AuctionID: "fresh", NextCheck: "2021-03-10T11:58:00+02:00"}))
	require.NoError(t, store.Save(ctx, schedule.Entry{AuctionID: "future", NextCheck: "2021-03-11T10:00:00+02:00"}))

	notifier := &recordingNotifier{}
	job := NewCheckDueJob(store, notifier, discardLogger(), nil)
	job.clock = func() time.Time { return time.Date(2021, 3, 10, 12, 0, 0, 0, kyiv) }

	task, err := NewScheduleSweepTask(5*time.Minute, 50)
	require.NoError(t, err)
	require.NoError(t, job.HandleSweep(ctx, task))
	assert.Equal(t, []schedule.DueEvent{{AuctionID: "overdue", NextCheck: "2021-03-10T10:00:00+02:00"}}, notifier.events)
}

func TestDeliveredCheckIsNotSweptAgain(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, schedule.Entry{AuctionID: "a1", NextCheck: "2021-03-10T10:00:00+02:00"}))

	notifier := &recordingNotifier{}
	job := NewCheckDueJob(store, notifier, discardLogger(), nil)
	now := time.Date(2021, 3, 10, 10, 0, 0, 0, kyiv)
	job.clock = func() time.Time { return now }

	require.NoError(t, job.Handle(ctx, checkDueTask(t, "a1", "2021-03-10T10:00:00+02:00")))
	require.Len(t, notifier.events, 1)

	task, err := NewScheduleSweepTask(5*time.Minute, 50)
	require.NoError(t, err)
	for _, minutes := range []int{10, 15, 20} {
		now = time.Date(2021, 3, 10, 10, minutes, 0, 0, kyiv)
		require.NoError(t, job.HandleSweep(ctx, task))
	}
	assert.Len(t, notifier.events, 1)

	require.NoError(t, job.Handle(ctx, checkDueTask(t, "a1", "2021-03-10T10:00:00+02:00")))
	assert.Len(t, notifier.events, 1, "redelivered task is dropped")

	entry, err := store.Load(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, entry.DeliveredAt.Equal(time.Date(2021, 3, 10, 10, 0, 0, 0, kyiv)))
}

func TestSweepDeliversOverdueOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, schedule.Entry{AuctionID: "a1", NextCheck: "2021-03-10T10:00:00+02:00"}))

	notifier := &recordingNotifier{}
	job := NewCheckDueJob(store, notifier, discardLogger(), nil)
	job.clock = func() time.Time { return time.Date(2021, 3, 10, 12, 0, 0, 0, kyiv) }

	task, err := NewScheduleSweepTask(5*time.Minute, 50)
	require.NoError(t, err)
	require.NoError(t, job.HandleSweep(ctx, task))
	require.NoError(t, job.HandleSweep(ctx, task))
	assert.Len(t, notifier.events, 1)
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return f.info, f.err
}

func TestJobsHealthHandler(t *testing.T) {
	serve := func(inspector QueueInspector) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		NewHandler(inspector, discardLogger()).MountRoutes(r)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		return rr
	}

	rr := serve(nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"scheduled":0,"retry":0}`, rr.Body.String())

	rr = serve(fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 2, Scheduled: 7}})
	var body queueHealth
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, queueHealth{Queue: "default", Pending: 2, Scheduled: 7}, body)

	rr = serve(fakeInspector{err: errors.New("redis down")})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestClientEnqueuesNextCheck(t *testing.T) {
	queue := &fakeEnqueuer{}
	client := NewClientWith(queue)
	_, err := client.EnqueueNextCheck(context.Background(), tenderingAuction(), nil)
	require.NoError(t, err)
	require.Len(t, queue.calls, 1)
	assert.Equal(t, TaskNextCheck, queue.calls[0].task.Type())
	assert.NoError(t, client.Close())
}
