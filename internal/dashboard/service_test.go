package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlarosConsulting/atena-client/internal/atena"
	"github.com/GlarosConsulting/atena-client/internal/session"
	"github.com/GlarosConsulting/atena-client/internal/warnings"
	"github.com/GlarosConsulting/atena-client/models"
)

// fakeAPI answers searches by city. A city listed in gates blocks until its
// channel is closed.
type fakeAPI struct {
	mu       sync.Mutex
	gates    map[string]chan struct{}
	calls    atomic.Int32
	posts    atomic.Int32
	checks   atomic.Int32
	lastCard string
	err      error
}

func (f *fakeAPI) answer(ctx context.Context, p atena.Params) (*models.AgreementsResponse, error) {
	f.calls.Add(1)
	f.mu.Lock()
	gate := f.gates[p.City]
	f.lastCard = p.CustomFilter
	err := f.err
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &models.AgreementsResponse{
		Statistics: models.Statistics{Total: models.StatisticsItem{Count: 2}},
		Agreements: []models.Agreement{
			{ID: p.City + "-1", Name: p.City},
			{
				ID: p.City + "-2",
				ConvenientExecution: &models.ConvenientExecution{ExecutionProcesses: []models.ExecutionProcess{
					{Accepted: "Rejeitado", Details: models.ExecutionProcessDetails{ExecutionProcess: "Licitação"}},
				}},
			},
		},
	}, nil
}

func (f *fakeAPI) Agreements(ctx context.Context, _ string, p atena.Params) (*models.AgreementsResponse, error) {
	return f.answer(ctx, p)
}

func (f *fakeAPI) SearchAgreements(ctx context.Context, _ string, p atena.Params, _ models.Filters) (*models.AgreementsResponse, error) {
	f.posts.Add(1)
	return f.answer(ctx, p)
}

func (f *fakeAPI) CheckFilters(ctx context.Context, _ string, p atena.Params, _ models.Filters) (*models.AgreementsResponse, error) {
	f.checks.Add(1)
	return f.answer(ctx, p)
}

func anySession(userID string) *models.Session {
	return &models.Session{
		User:        models.User{ID: userID, Group: &models.Group{Access: models.AccessAny}},
		AccessToken: "tok",
	}
}

func newService(t *testing.T, api API) *Service {
	t.Helper()
	ev, err := warnings.NewEvaluator(nil)
	require.NoError(t, err)
	return NewService(api, ev)
}

func TestSearchDecoratesWithWarnings(t *testing.T) {
	api := &fakeAPI{}
	svc := newService(t, api)

	res, err := svc.Search(context.Background(), "s1", anySession("u1"), Query{Params: atena.Params{City: "Maceió"}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, []string{"Maceió-2"}, res.Warnings.BiddingRejected)
	assert.Equal(t, int32(0), api.posts.Load())

	last, ok := svc.Last("s1")
	require.True(t, ok)
	assert.Same(t, res, last)
}

func TestSearchWithFiltersPosts(t *testing.T) {
	api := &fakeAPI{}
	svc := newService(t, api)

	q := Query{Params: atena.Params{City: "Maceió"}, Filters: models.Filters{"celebration": {"agreementId": "1"}}}
	_, err := svc.Search(context.Background(), "s1", anySession("u1"), q)
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.posts.Load())
}

func TestSearchOnlyAlerts(t *testing.T) {
	svc := newService(t, &fakeAPI{})

	res, err := svc.Search(context.Background(), "s1", anySession("u1"), Query{Params: atena.Params{City: "Maceió"}, OnlyAlerts: true})
	require.NoError(t, err)
	require.Len(t, res.Agreements, 1)
	assert.Equal(t, "Maceió-2", res.Agreements[0].ID)
	assert.Equal(t, 1, res.Count)
}

func TestSearchChecksScope(t *testing.T) {
	api := &fakeAPI{}
	svc := newService(t, api)
	sess := &models.Session{User: models.User{ID: "u1", Group: &models.Group{Access: models.AccessStateSphere}}}

	_, err := svc.Search(context.Background(), "s1", sess, Query{Params: atena.Params{Sphere: "municipal", City: "Maceió"}})
	assert.ErrorIs(t, err, session.ErrScopeDenied)
	assert.Equal(t, int32(0), api.calls.Load())
}

func TestSearchReturnsAPIError(t *testing.T) {
	svc := newService(t, &fakeAPI{err: errors.New("boom")})

	_, err := svc.Search(context.Background(), "s1", anySession("u1"), Query{})
	assert.EqualError(t, err, "boom")
	_, ok := svc.Last("s1")
	assert.False(t, ok)
}

func TestNewerSearchSupersedesOlder(t *testing.T) {
	slow := make(chan struct{})
	api := &fakeAPI{gates: map[string]chan struct{}{"Slow": slow}}
	svc := newService(t, api)
	sess := anySession("u1")

	type outcome struct {
		res *Result
		err error
	}
	older := make(chan outcome, 1)
	go func() {
		res, err := svc.Search(context.Background(), "s1", sess, Query{Params: atena.Params{City: "Slow"}})
		older <- outcome{res, err}
	}()

	require.Eventually(t, func() bool { return api.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	newer, err := svc.Search(context.Background(), "s1", sess, Query{Params: atena.Params{City: "Fast"}})
	require.NoError(t, err)
	assert.Equal(t, "Fast", newer.Agreements[0].Name)

	close(slow)
	got := <-older
	assert.ErrorIs(t, got.err, ErrSuperseded)
	assert.Nil(t, got.res)

	last, ok := svc.Last("s1")
	require.True(t, ok)
	assert.Equal(t, "Fast", last.Agreements[0].Name)
}

func TestSessionsAndLanesDoNotSupersedeEachOther(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{gates: map[string]chan struct{}{"Slow": gate}}
	svc := newService(t, api)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Search(context.Background(), "s1", anySession("u1"), Query{Params: atena.Params{City: "Slow"}})
		done <- err
	}()
	require.Eventually(t, func() bool { return api.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	_, err := svc.Search(context.Background(), "s2", anySession("u2"), Query{Params: atena.Params{City: "Fast"}})
	require.NoError(t, err)
	_, err = svc.Check(context.Background(), "s1", anySession("u1"), Query{Params: atena.Params{City: "Fast"}})
	require.NoError(t, err)

	close(gate)
	assert.NoError(t, <-done)
}

func TestIdenticalSearchesShareOneCall(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{gates: map[string]chan struct{}{"Shared": gate}}
	svc := newService(t, api)
	q := Query{Params: atena.Params{City: "Shared"}}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, sid := range []string{"tab-1", "tab-2"} {
		wg.Add(1)
		go func(sid string) {
			defer wg.Done()
			_, err := svc.Search(context.Background(), sid, anySession("u1"), q)
			errs <- err
		}(sid)
	}

	// give both callers time to join the same flight
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), api.calls.Load())
}

func TestCard(t *testing.T) {
	api := &fakeAPI{}
	svc := newService(t, api)

	_, err := svc.Card(context.Background(), "s1", anySession("u1"), Query{}, "execucao")
	require.NoError(t, err)
	assert.Equal(t, "execucao", api.lastCard)

	_, err = svc.Card(context.Background(), "s1", anySession("u1"), Query{}, "bogus")
	assert.ErrorIs(t, err, ErrUnknownCard)

	_, ok := svc.Last("s1")
	assert.False(t, ok, "card searches do not replace the main search")
}

func TestCheckUsesFiltersEndpoint(t *testing.T) {
	api := &fakeAPI{}
	svc := newService(t, api)

	res, err := svc.Check(context.Background(), "s1", anySession("u1"), Query{Filters: models.Filters{"execution": {"accepted": "Rejeitado"}}})
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.checks.Load())
	assert.Equal(t, 2, res.Count)
}

func TestForget(t *testing.T) {
	svc := newService(t, &fakeAPI{})
	_, err := svc.Search(context.Background(), "s1", anySession("u1"), Query{})
	require.NoError(t, err)

	svc.Forget("s1")
	_, ok := svc.Last("s1")
	assert.False(t, ok)
}

func TestSweepDropsIdleLanes(t *testing.T) {
	svc := newService(t, &fakeAPI{})
	clock := time.Date(2021, 6, 15, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	for _, sid := range []string{"s1", "s2", "s3"} {
		_, err := svc.Search(context.Background(), sid, anySession("u-"+sid), Query{})
		require.NoError(t, err)
	}
	_, err := svc.Check(context.Background(), "s1", anySession("u-s1"), Query{})
	require.NoError(t, err)
	require.Len(t, svc.lanes, 4)

	clock = clock.Add(2 * time.Hour)
	_, err = svc.Search(context.Background(), "s2", anySession("u-s2"), Query{})
	require.NoError(t, err)

	clock = clock.Add(30 * time.Minute)
	assert.Equal(t, 3, svc.Sweep(time.Hour))
	assert.Len(t, svc.lanes, 1)

	_, ok := svc.Last("s1")
	assert.False(t, ok)
	_, ok = svc.Last("s2")
	assert.True(t, ok)
}

func TestSweepKeepsSearchesInFlight(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{gates: map[string]chan struct{}{"Slow": gate}}
	svc := newService(t, api)
	clock := time.Date(2021, 6, 15, 10, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Search(context.Background(), "s1", anySession("u1"), Query{Params: atena.Params{City: "Slow"}})
		done <- err
	}()
	require.Eventually(t, func() bool { return api.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	mu.Lock()
	clock = clock.Add(24 * time.Hour)
	mu.Unlock()
	assert.Equal(t, 0, svc.Sweep(time.Hour))

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, svc.Sweep(time.Hour))
}
