package session

import (
	"context"
	"sort"
	"testing"
	"time"

	"heartmon-svc/src/internal/clock"
	"heartmon-svc/src/internal/models"
	"heartmon-svc/src/internal/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var serviceToday = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

type fakeRepo struct {
	sessions  map[string]*Session
	signings  map[string]map[string]bool // sessionID -> usernames
	summaries map[string]map[string]*Summary
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		sessions:  make(map[string]*Session),
		signings:  make(map[string]map[string]bool),
		summaries: make(map[string]map[string]*Summary),
	}
}

func (r *fakeRepo) add(sess *Session) *fakeRepo {
	r.sessions[sess.ID] = sess
	return r
}

func (r *fakeRepo) GetByID(_ context.Context, sessionID string) (*Session, error) {
	sess, ok := r.sessions[sessionID]
	if !ok || sess.IsActive == StatusCanceled {
		return nil, models.ErrSessionNotFound
	}
	copied := *sess
	copied.FilledSpots = len(r.signings[sessionID])
	return &copied, nil
}

func (r *fakeRepo) Create(_ context.Context, sess *Session) error {
	r.sessions[sess.ID] = sess
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, sessionID string) error {
	delete(r.sessions, sessionID)
	return nil
}

func (r *fakeRepo) SetStatus(_ context.Context, sessionID string, status int) error {
	sess, ok := r.sessions[sessionID]
	if !ok {
		return models.ErrSessionNotFound
	}
	sess.IsActive = status
	return nil
}

func (r *fakeRepo) ExistsWithTeacher(_ context.Context, teacherName, sessionID string) (bool, error) {
	sess, ok := r.sessions[sessionID]
	return ok && sess.Teacher == teacherName && sess.IsActive != StatusCanceled, nil
}

func (r *fakeRepo) AllSessionIDs(_ context.Context) ([]string, error) {
	var ids []string
	for id, sess := range r.sessions {
		if sess.IsActive != StatusCanceled {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeRepo) TeacherSessionIDs(_ context.Context, teacherName string) ([]string, error) {
	var ids []string
	for id, sess := range r.sessions {
		if sess.Teacher == teacherName && sess.IsActive == StatusScheduled {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeRepo) SignIn(_ context.Context, sessionID, username string) error {
	if r.signings[sessionID][username] {
		return models.ErrAlreadySigned
	}
	if r.signings[sessionID] == nil {
		r.signings[sessionID] = make(map[string]bool)
	}
	r.signings[sessionID][username] = true
	return nil
}

func (r *fakeRepo) SignOut(_ context.Context, sessionID, username string) error {
	if !r.signings[sessionID][username] {
		return models.ErrNotSigned
	}
	delete(r.signings[sessionID], username)
	return nil
}

func (r *fakeRepo) SigningExists(_ context.Context, sessionID, username string) (bool, error) {
	return r.signings[sessionID][username], nil
}

func (r *fakeRepo) SignedSessionIDs(_ context.Context, username string) ([]string, error) {
	var ids []string
	for id, users := range r.signings {
		if users[username] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeRepo) UsersInSession(_ context.Context, sessionID string) ([]string, error) {
	var usernames []string
	for username := range r.signings[sessionID] {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	return usernames, nil
}

func (r *fakeRepo) SaveSummary(_ context.Context, summary *Summary) error {
	if r.summaries[summary.Username] == nil {
		r.summaries[summary.Username] = make(map[string]*Summary)
	}
	r.summaries[summary.Username][summary.SessionID] = summary
	return nil
}

func (r *fakeRepo) GetSummary(_ context.Context, username, sessionID string) (*Summary, error) {
	summary, ok := r.summaries[username][sessionID]
	if !ok {
		return nil, models.ErrSummaryNotFound
	}
	return summary, nil
}

func (r *fakeRepo) SummaryExists(_ context.Context, username, sessionID string) (bool, error) {
	_, ok := r.summaries[username][sessionID]
	return ok, nil
}

type fakeDirectory struct {
	members map[string]*Member
}

func (d *fakeDirectory) Member(_ context.Context, username string) (*Member, error) {
	member, ok := d.members[username]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return member, nil
}

type recordingBus struct {
	events []stream.Event
}

func (b *recordingBus) Publish(event stream.Event) {
	b.events = append(b.events, event)
}

type sentEmail struct {
	kind string
	to   string
}

type fakeMailer struct {
	sent []sentEmail
	fail bool
}

func (m *fakeMailer) SendCancellationEmail(to, _, _, _, _ string) error {
	if m.fail {
		return models.ErrEmailPublish
	}
	m.sent = append(m.sent, sentEmail{kind: "cancel", to: to})
	return nil
}

func (m *fakeMailer) SendSessionStartEmail(to, _, _, _, _ string) error {
	if m.fail {
		return models.ErrEmailPublish
	}
	m.sent = append(m.sent, sentEmail{kind: "start", to: to})
	return nil
}

type serviceFixture struct {
	repo   *fakeRepo
	dir    *fakeDirectory
	bus    *recordingBus
	mailer *fakeMailer
	svc    Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		repo:   newFakeRepo(),
		dir:    &fakeDirectory{members: make(map[string]*Member)},
		bus:    &recordingBus{},
		mailer: &fakeMailer{},
	}
	f.svc = NewService(f.repo, nil, f.dir, f.bus, f.mailer, clock.NewMock(serviceToday))
	return f
}

func TestSignableSessionsExcludesSignedAndPast(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.add(&Session{ID: "upcoming", Date: "11-03-2026"}).
		add(&Session{ID: "today", Date: "10-03-2026"}).
		add(&Session{ID: "past", Date: "09-03-2026"}).
		add(&Session{ID: "signed", Date: "12-03-2026"})
	require.NoError(t, f.repo.SignIn(context.Background(), "signed", "dana"))

	sessions, err := f.svc.SignableSessions(context.Background(), "dana")
	require.NoError(t, err)

	var ids []string
	for _, sess := range sessions {
		ids = append(ids, sess.ID)
	}
	assert.ElementsMatch(t, []string{"upcoming", "today"}, ids)
}

func TestUserSessionsClassifiesByViewType(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.repo.add(&Session{ID: "today", Date: "10-03-2026", IsActive: StatusActive}).
		add(&Session{ID: "done", Date: "09-03-2026"}).
		add(&Session{ID: "future", Date: "12-03-2026"})
	for _, id := range []string{"today", "done", "future"} {
		require.NoError(t, f.repo.SignIn(ctx, id, "dana"))
	}
	require.NoError(t, f.repo.SaveSummary(ctx, &Summary{SessionID: "done", Username: "dana"}))

	cases := []struct {
		viewType string
		want     []string
	}{
		{ViewJoinable, []string{"today"}},
		{ViewPrevious, []string{"done"}},
		{ViewSigned, []string{"future"}},
	}
	for _, tc := range cases {
		sessions, err := f.svc.UserSessions(ctx, "dana", tc.viewType)
		require.NoError(t, err)

		var ids []string
		for _, sess := range sessions {
			ids = append(ids, sess.ID)
		}
		assert.ElementsMatch(t, tc.want, ids, "view type %s", tc.viewType)
	}
}

func TestSignInRecordsSigningOnce(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.repo.add(&Session{ID: "s1", Date: "11-03-2026"})

	require.NoError(t, f.svc.SignIn(ctx, "s1", "dana"))
	assert.ErrorIs(t, f.svc.SignIn(ctx, "s1", "dana"), models.ErrAlreadySigned)

	sess, err := f.repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, sess.FilledSpots)
}

func TestSignInUnknownSession(t *testing.T) {
	f := newServiceFixture(t)
	assert.ErrorIs(t, f.svc.SignIn(context.Background(), "missing", "dana"), models.ErrSessionNotFound)
}

func TestSignOutRequiresSigning(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.repo.add(&Session{ID: "s1", Date: "11-03-2026"})

	assert.ErrorIs(t, f.svc.SignOut(ctx, "s1", "dana"), models.ErrNotSigned)

	require.NoError(t, f.svc.SignIn(ctx, "s1", "dana"))
	require.NoError(t, f.svc.SignOut(ctx, "s1", "dana"))
}

func TestCanEnterOnlyWhileActive(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.repo.add(&Session{ID: "scheduled", Date: "10-03-2026", IsActive: StatusScheduled}).
		add(&Session{ID: "running", Date: "10-03-2026", IsActive: StatusActive})

	assert.False(t, f.svc.CanEnter(ctx, "scheduled"))
	assert.True(t, f.svc.CanEnter(ctx, "running"))
	assert.False(t, f.svc.CanEnter(ctx, "missing"))
}

func TestEnterPublishesFirstName(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.repo.add(&Session{ID: "s1", Date: "10-03-2026", IsActive: StatusActive})
	f.dir.members["dana"] = &Member{Username: "dana", FirstName: "Dana", Email: "dana@example.com"}

	require.NoError(t, f.svc.Enter(ctx, "s1", "dana"))

	require.Len(t, f.bus.events, 1)
	event := f.bus.events[0]
	assert.Equal(t, "s1", event.SessionID)
	assert.Equal(t, "dana", event.Username)
	assert.Equal(t, stream.EventEnterSession, event.Event)
	assert.Equal(t, "Dana", event.Value)
}

func TestEnterRejectedWhenInactive(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.add(&Session{ID: "s1", Date: "10-03-2026", IsActive: StatusScheduled})
	f.dir.members["dana"] = &Member{Username: "dana", FirstName: "Dana"}

	assert.ErrorIs(t, f.svc.Enter(context.Background(), "s1", "dana"), models.ErrSessionInactive)
	assert.Empty(t, f.bus.events)
}

func TestEnterRejectedForUnknownUser(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.add(&Session{ID: "s1", Date: "10-03-2026", IsActive: StatusActive})

	assert.ErrorIs(t, f.svc.Enter(context.Background(), "s1", "ghost"), models.ErrUserNotFound)
	assert.Empty(t, f.bus.events)
}

func TestLeaveRequiresSigningAndPublishes(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.repo.add(&Session{ID: "s1", Date: "10-03-2026", IsActive: StatusActive})

	assert.ErrorIs(t, f.svc.Leave(ctx, "s1", "dana"), models.ErrNotSigned)

	require.NoError(t, f.repo.SignIn(ctx, "s1", "dana"))
	require.NoError(t, f.svc.Leave(ctx, "s1", "dana"))

	require.Len(t, f.bus.events, 1)
	event := f.bus.events[0]
	assert.Equal(t, stream.EventLeaveSession, event.Event)
	assert.Equal(t, "", event.Value)
}

func TestCreateAssignsIDAndScheduledStatus(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	err := f.svc.Create(ctx, &CreateRequest{
		Teacher:    "miriam",
		Name:       "Morning Flow",
		Date:       "12-03-2026",
		Hour:       "08:00",
		TotalSpots: 12,
	})
	require.NoError(t, err)

	ids, err := f.repo.AllSessionIDs(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	sess, err := f.repo.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "miriam", sess.Teacher)
	assert.Equal(t, StatusScheduled, sess.IsActive)
}

func TestCancelNotifiesSignedUsersAndDeletes(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.repo.add(&Session{ID: "s1", Name: "Flow", Date: "12-03-2026", Teacher: "miriam"})
	require.NoError(t, f.repo.SignIn(ctx, "s1", "dana"))
	require.NoError(t, f.repo.SignIn(ctx, "s1", "noa"))
	f.dir.members["dana"] = &Member{Username: "dana", FirstName: "Dana", Email: "dana@example.com"}
	f.dir.members["noa"] = &Member{Username: "noa", FirstName: "Noa", Email: "noa@example.com"}

	require.NoError(t, f.svc.Cancel(ctx, "miriam", "s1"))

	assert.ElementsMatch(t, []sentEmail{
		{kind: "cancel", to: "dana@example.com"},
		{kind: "cancel", to: "noa@example.com"},
	}, f.mailer.sent)

	_, err := f.repo.GetByID(ctx, "s1")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestCancelRejectedForWrongTeacher(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.add(&Session{ID: "s1", Date: "12-03-2026", Teacher: "miriam"})

	assert.ErrorIs(t, f.svc.Cancel(context.Background(), "other", "s1"), models.ErrSessionNotFound)

	_, err := f.repo.GetByID(context.Background(), "s1")
	assert.NoError(t, err)
}

func TestCancelSurvivesEmailFailure(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.repo.add(&Session{ID: "s1", Date: "12-03-2026", Teacher: "miriam"})
	require.NoError(t, f.repo.SignIn(ctx, "s1", "dana"))
	f.dir.members["dana"] = &Member{Username: "dana", Email: "dana@example.com"}
	f.mailer.fail = true

	require.NoError(t, f.svc.Cancel(ctx, "miriam", "s1"))

	_, err := f.repo.GetByID(ctx, "s1")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestStartActivatesTodaySessionAndMailsCredentials(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.repo.add(&Session{ID: "s1", Name: "Flow", Date: "10-03-2026", Teacher: "miriam"})
	require.NoError(t, f.repo.SignIn(ctx, "s1", "dana"))
	f.dir.members["dana"] = &Member{Username: "dana", Email: "dana@example.com"}

	err := f.svc.Start(ctx, &StartRequest{SessionID: "s1", ZoomID: "987", ZoomPassword: "pw"})
	require.NoError(t, err)

	sess, err := f.repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, sess.IsActive)
	assert.Equal(t, []sentEmail{{kind: "start", to: "dana@example.com"}}, f.mailer.sent)
}

func TestStartRejectedWhenNotToday(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.add(&Session{ID: "s1", Date: "11-03-2026", Teacher: "miriam"})

	err := f.svc.Start(context.Background(), &StartRequest{SessionID: "s1"})
	assert.ErrorIs(t, err, models.ErrSessionNotToday)
	assert.Empty(t, f.mailer.sent)
}

func TestCloseHidesSessionFromLookups(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.repo.add(&Session{ID: "s1", Date: "10-03-2026", IsActive: StatusActive})

	require.NoError(t, f.svc.Close(ctx, "s1"))

	_, err := f.repo.GetByID(ctx, "s1")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestCloseRejectedWhenNotToday(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.add(&Session{ID: "s1", Date: "12-03-2026", IsActive: StatusActive})

	assert.ErrorIs(t, f.svc.Close(context.Background(), "s1"), models.ErrSessionNotToday)
}

func TestSaveSummaryComputesStatistics(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	err := f.svc.SaveSummary(ctx, &SummaryRequest{
		SessionID:    "s1",
		Username:     "dana",
		Measurements: []int{60, 80, 100, 70},
		HRV:          42,
	})
	require.NoError(t, err)

	summary, err := f.repo.GetSummary(ctx, "dana", "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Count)
	assert.Equal(t, 77, summary.Average)
	assert.Equal(t, 100, summary.Maximum)
	assert.Equal(t, 60, summary.Minimum)
	assert.Equal(t, 42, summary.HRV)
}

func TestSaveSummaryRejectsEmptyMeasurements(t *testing.T) {
	f := newServiceFixture(t)

	err := f.svc.SaveSummary(context.Background(), &SummaryRequest{
		SessionID: "s1",
		Username:  "dana",
	})
	assert.ErrorIs(t, err, models.ErrNoMeasurements)
}

func TestGetSummaryPairsSessionWithStatistics(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.repo.add(&Session{ID: "s1", Name: "Flow", Date: "09-03-2026"})
	require.NoError(t, f.repo.SaveSummary(ctx, &Summary{
		SessionID: "s1", Username: "dana", Count: 3, Average: 70, Maximum: 90, Minimum: 55, HRV: 30,
	}))

	resp, err := f.svc.GetSummary(ctx, "dana", "s1")
	require.NoError(t, err)
	require.NotNil(t, resp.Session)
	assert.Equal(t, "Flow", resp.Session.Name)
	assert.Equal(t, 70, resp.Average)

	_, err = f.svc.GetSummary(ctx, "dana", "other")
	assert.ErrorIs(t, err, models.ErrSummaryNotFound)
}
