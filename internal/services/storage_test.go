package services

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/apply-archive/internal/clients/applications"
	"github.com/maxaizer/apply-archive/internal/entities"
	"github.com/maxaizer/apply-archive/internal/events"
	"github.com/maxaizer/apply-archive/internal/repositories"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) List(ctx context.Context) ([]entities.JobRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]entities.JobRecord)
	return records, args.Error(1)
}

func (m *mockRemote) Get(ctx context.Context, id string) (*entities.JobRecord, error) {
	args := m.Called(ctx, id)
	record, _ := args.Get(0).(*entities.JobRecord)
	return record, args.Error(1)
}

func (m *mockRemote) Create(ctx context.Context, record entities.JobRecord) (entities.JobRecord, error) {
	args := m.Called(ctx, record)
	if f, ok := args.Get(0).(func(entities.JobRecord) entities.JobRecord); ok {
		return f(record), args.Error(1)
	}
	return args.Get(0).(entities.JobRecord), args.Error(1)
}

func (m *mockRemote) Update(ctx context.Context, record entities.JobRecord) (entities.JobRecord, error) {
	args := m.Called(ctx, record)
	if f, ok := args.Get(0).(func(entities.JobRecord) entities.JobRecord); ok {
		return f(record), args.Error(1)
	}
	return args.Get(0).(entities.JobRecord), args.Error(1)
}

func (m *mockRemote) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockRemote) Upload(ctx context.Context, fileName string, content []byte) (string, error) {
	args := m.Called(ctx, fileName, content)
	return args.String(0), args.Error(1)
}

func (m *mockRemote) Health(ctx context.Context) (applications.HealthStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(applications.HealthStatus), args.Error(1)
}

func echoRecord(r entities.JobRecord) entities.JobRecord { return r }

type noticeRecorder struct {
	mu      sync.Mutex
	notices []events.Notice
}

func (n *noticeRecorder) onNotice(notice events.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *noticeRecorder) levels() []events.NoticeLevel {
	n.mu.Lock()
	defer n.mu.Unlock()
	var levels []events.NoticeLevel
	for _, notice := range n.notices {
		levels = append(levels, notice.Level)
	}
	return levels
}

func newLocal(t *testing.T) *repositories.LocalRecords {
	dbCtx, err := repositories.NewDbContext(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	require.NoError(t, dbCtx.Migrate())
	t.Cleanup(func() { _ = dbCtx.Close() })
	return repositories.NewLocalRecords(repositories.NewDataRepository(dbCtx.DB))
}

func newTestStorage(t *testing.T, remote RemoteBackend) (*Storage, *repositories.LocalRecords, *noticeRecorder) {
	local := newLocal(t)
	bus := EventBus.New()
	recorder := &noticeRecorder{}
	require.NoError(t, bus.Subscribe(events.NoticeTopic, recorder.onNotice))
	return NewStorage(context.Background(), bus, local, remote), local, recorder
}

func Test_Storage_RemoteDisabled_ShouldRoundTripThroughLocalStore(t *testing.T) {

	assert := assert.New(t)
	storage, local, _ := newTestStorage(t, nil)
	ctx := context.Background()

	created, err := storage.CreateRecord(ctx, entities.JobRecord{CompanyName: "Acme", Position: "SWE",
		Status: entities.StatusApplied})
	require.NoError(t, err)
	assert.NotEmpty(created.ID)
	assert.NotEmpty(created.LastUpdated)

	records := storage.ListRecords(ctx)
	require.Len(t, records, 1)
	assert.Equal("Acme", records[0].CompanyName)
	assert.Equal(entities.StatusApplied, records[0].Status)

	created.Status = entities.StatusInterviewing
	updated, err := storage.UpdateRecord(ctx, created)
	require.NoError(t, err)

	fetched, err := storage.GetRecord(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(entities.StatusInterviewing, fetched.Status)
	assert.NotEqual(created.LastUpdated, fetched.LastUpdated)
	assert.Equal(updated.LastUpdated, fetched.LastUpdated)

	deleted, err := storage.DeleteRecord(ctx, created.ID)
	require.NoError(t, err)
	assert.True(deleted)

	fetched, err = storage.GetRecord(ctx, created.ID)
	assert.NoError(err)
	assert.Nil(fetched)
	assert.Empty(storage.ListRecords(ctx))

	deleted, err = storage.DeleteRecord(ctx, created.ID)
	assert.NoError(err)
	assert.False(deleted)

	assert.Equal(0, local.Count(ctx))
	assert.False(storage.Connectivity().LastKnownConnected)
}

func Test_Storage_CreateRecord_ShouldDefaultStatusToApplied(t *testing.T) {

	storage, _, _ := newTestStorage(t, nil)

	created, err := storage.CreateRecord(context.Background(), entities.JobRecord{CompanyName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, entities.StatusApplied, created.Status)
}

func Test_Storage_ListRecords_RemoteTimeout_ShouldReturnLocalAndDisconnect(t *testing.T) {

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	client := applications.NewClient(server.URL, 50*time.Millisecond)
	storage, local, recorder := newTestStorage(t, client)
	ctx := context.Background()

	require.NoError(t, local.SaveConnectivity(ctx, true))
	_, err := local.Create(ctx, entities.JobRecord{ID: "local-1", CompanyName: "Acme",
		Status: entities.StatusApplied, LastUpdated: "2024-01-01T00:00:00.000Z"})
	require.NoError(t, err)

	records := storage.ListRecords(ctx)

	require.Len(t, records, 1)
	assert.Equal(t, "local-1", records[0].ID)
	assert.False(t, storage.Connectivity().LastKnownConnected)
	assert.False(t, local.LoadConnectivity(ctx))
	assert.Contains(t, recorder.levels(), events.NoticeInfo)
}

func Test_Storage_RemoteSuccess_ShouldNotWriteLocalStore(t *testing.T) {

	remote := &mockRemote{}
	remote.On("Create", mock.Anything, mock.Anything).Return(echoRecord, nil)

	storage, local, recorder := newTestStorage(t, remote)
	ctx := context.Background()

	created, err := storage.CreateRecord(ctx, entities.JobRecord{CompanyName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", created.CompanyName)
	assert.Equal(t, 0, local.Count(ctx))
	assert.True(t, storage.Connectivity().LastKnownConnected)
	assert.True(t, local.LoadConnectivity(ctx))
	assert.Equal(t, []events.NoticeLevel{events.NoticeSuccess}, recorder.levels())
	remote.AssertExpectations(t)
}

func Test_Storage_GetRecord_RemoteNotFound_ShouldNotFallBack(t *testing.T) {

	remote := &mockRemote{}
	remote.On("Get", mock.Anything, "1").Return(nil, nil)

	storage, local, _ := newTestStorage(t, remote)
	ctx := context.Background()
	_, err := local.Create(ctx, entities.JobRecord{ID: "1", Status: entities.StatusApplied,
		LastUpdated: "2024-01-01T00:00:00.000Z"})
	require.NoError(t, err)

	record, err := storage.GetRecord(ctx, "1")
	assert.NoError(t, err)
	assert.Nil(t, record)
	assert.True(t, storage.Connectivity().LastKnownConnected)
}

func Test_Storage_GetRecord_ServerError_ShouldFallBackToLocal(t *testing.T) {

	remote := &mockRemote{}
	remote.On("Get", mock.Anything, "1").
		Return(nil, &applications.StatusError{StatusCode: http.StatusInternalServerError})

	storage, local, _ := newTestStorage(t, remote)
	ctx := context.Background()
	_, err := local.Create(ctx, entities.JobRecord{ID: "1", CompanyName: "Acme", Status: entities.StatusApplied,
		LastUpdated: "2024-01-01T00:00:00.000Z"})
	require.NoError(t, err)

	record, err := storage.GetRecord(ctx, "1")
	assert.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Acme", record.CompanyName)
	assert.False(t, storage.Connectivity().LastKnownConnected)
}

func Test_Storage_CreateRecord_Rejected_ShouldFallBackButStayConnected(t *testing.T) {

	remote := &mockRemote{}
	remote.On("Create", mock.Anything, mock.Anything).
		Return(entities.JobRecord{}, &applications.StatusError{StatusCode: http.StatusBadRequest})

	storage, local, recorder := newTestStorage(t, remote)
	ctx := context.Background()

	created, err := storage.CreateRecord(ctx, entities.JobRecord{CompanyName: "Acme"})
	require.NoError(t, err)

	stored, err := local.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, storage.Connectivity().LastKnownConnected)
	assert.Equal(t, []events.NoticeLevel{events.NoticeInfo, events.NoticeSuccess}, recorder.levels())
}

func Test_Storage_DeleteRecord_RemoteNotFound_ShouldReturnFalse(t *testing.T) {

	remote := &mockRemote{}
	remote.On("Delete", mock.Anything, "1").Return(false, nil)

	storage, local, _ := newTestStorage(t, remote)
	ctx := context.Background()
	_, err := local.Create(ctx, entities.JobRecord{ID: "1", Status: entities.StatusApplied,
		LastUpdated: "2024-01-01T00:00:00.000Z"})
	require.NoError(t, err)

	deleted, err := storage.DeleteRecord(ctx, "1")
	assert.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 1, local.Count(ctx))
}

func Test_Storage_UpdateRecord_FrozenClock_ShouldNeverGoBack(t *testing.T) {

	storage, _, _ := newTestStorage(t, nil)
	frozen := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	storage.now = func() time.Time { return frozen }
	ctx := context.Background()

	created, err := storage.CreateRecord(ctx, entities.JobRecord{CompanyName: "Acme"})
	require.NoError(t, err)

	first, err := storage.UpdateRecord(ctx, created)
	require.NoError(t, err)
	second, err := storage.UpdateRecord(ctx, first)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01T12:00:00.000Z", created.LastUpdated)
	assert.Equal(t, "2024-01-01T12:00:00.001Z", first.LastUpdated)
	assert.Equal(t, "2024-01-01T12:00:00.002Z", second.LastUpdated)

	future := second
	future.LastUpdated = "2030-01-01T00:00:00.000Z"
	third, err := storage.UpdateRecord(ctx, future)
	require.NoError(t, err)
	assert.Equal(t, "2030-01-01T00:00:00.001Z", third.LastUpdated)
}

func Test_Storage_Interviews_ShouldRewriteParent(t *testing.T) {

	assert := assert.New(t)
	storage, _, _ := newTestStorage(t, nil)
	ids := []string{"record-1", "interview-1"}
	storage.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	ctx := context.Background()

	created, err := storage.CreateRecord(ctx, entities.JobRecord{CompanyName: "Acme"})
	require.NoError(t, err)

	withInterview, err := storage.AddInterview(ctx, created.ID, entities.InterviewRecord{Type: entities.InterviewPhone})
	require.NoError(t, err)
	require.Len(t, withInterview.Interviews, 1)
	assert.Equal("interview-1", withInterview.Interviews[0].ID)
	assert.NotEqual(created.LastUpdated, withInterview.LastUpdated)

	_, err = storage.AddInterview(ctx, created.ID, entities.InterviewRecord{ID: "interview-1"})
	assert.ErrorIs(err, ErrDuplicateInterview)

	completed := withInterview.Interviews[0]
	completed.Completed = true
	afterUpdate, err := storage.UpdateInterview(ctx, created.ID, completed)
	require.NoError(t, err)
	assert.True(afterUpdate.Interviews[0].Completed)

	_, err = storage.UpdateInterview(ctx, created.ID, entities.InterviewRecord{ID: "missing"})
	assert.ErrorIs(err, ErrInterviewNotFound)

	afterRemove, err := storage.RemoveInterview(ctx, created.ID, "interview-1")
	require.NoError(t, err)
	assert.Empty(afterRemove.Interviews)

	_, err = storage.AddInterview(ctx, "missing", entities.InterviewRecord{})
	assert.ErrorIs(err, ErrRecordNotFound)
}

func Test_Storage_StoreFile_UploadFails_ShouldReturnDataURL(t *testing.T) {

	remote := &mockRemote{}
	remote.On("Upload", mock.Anything, "cv.txt", []byte("hello")).Return("", applications.ErrUnreachable)

	storage, _, _ := newTestStorage(t, remote)

	path, err := storage.StoreFile(context.Background(), "cv.txt", []byte("hello"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "data:text/plain"))
	assert.True(t, strings.HasSuffix(path, ";base64,aGVsbG8="))
}

func Test_Storage_StoreFile_UploadSucceeds_ShouldReturnServerPath(t *testing.T) {

	remote := &mockRemote{}
	remote.On("Upload", mock.Anything, "cv.pdf", []byte("pdf")).Return("/api/files/file-1-1.pdf", nil)

	storage, _, _ := newTestStorage(t, remote)

	path, err := storage.StoreFile(context.Background(), "cv.pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, "/api/files/file-1-1.pdf", path)
}

func Test_Storage_CheckHealth_ShouldRecordVerdict(t *testing.T) {

	remote := &mockRemote{}
	remote.On("Health", mock.Anything).Return(applications.HealthStatus{Status: "ok"}, nil).Once()
	remote.On("Health", mock.Anything).Return(applications.HealthStatus{Status: "limited"}, nil).Once()

	storage, local, _ := newTestStorage(t, remote)
	ctx := context.Background()

	state := storage.CheckHealth(ctx)
	assert.True(t, state.LastKnownConnected)
	assert.False(t, state.CheckedAt.IsZero())
	assert.True(t, local.LoadConnectivity(ctx))

	state = storage.CheckHealth(ctx)
	assert.False(t, state.LastKnownConnected)
	assert.False(t, local.LoadConnectivity(ctx))
}

func Test_Storage_NewStorage_ShouldRestoreConnectivity(t *testing.T) {

	local := newLocal(t)
	require.NoError(t, local.SaveConnectivity(context.Background(), true))

	storage := NewStorage(context.Background(), EventBus.New(), local, nil)
	assert.True(t, storage.Connectivity().LastKnownConnected)
}

func Test_Storage_SaveFilter_Invalid_ShouldFail(t *testing.T) {

	storage, _, _ := newTestStorage(t, nil)
	ctx := context.Background()

	err := storage.SaveFilter(ctx, entities.FilterState{Status: "bogus", SortBy: entities.SortByDate,
		SortOrder: entities.SortAsc})
	assert.Error(t, err)
	assert.Equal(t, entities.DefaultFilter(), storage.LoadFilter(ctx))

	filter := entities.FilterState{Search: "go", Status: entities.StatusAll, SortBy: entities.SortByCompany,
		SortOrder: entities.SortAsc}
	assert.NoError(t, storage.SaveFilter(ctx, filter))
	assert.Equal(t, filter, storage.LoadFilter(ctx))
}

type brokenLocal struct {
	*repositories.LocalRecords
}

func (b brokenLocal) Create(context.Context, entities.JobRecord) (entities.JobRecord, error) {
	return entities.JobRecord{}, errors.New("database is closed")
}

func (b brokenLocal) Delete(context.Context, string) (bool, error) {
	return false, errors.New("database is closed")
}

func newBrokenStorage(t *testing.T) (*Storage, *noticeRecorder) {
	bus := EventBus.New()
	recorder := &noticeRecorder{}
	require.NoError(t, bus.Subscribe(events.NoticeTopic, recorder.onNotice))
	return NewStorage(context.Background(), bus, brokenLocal{newLocal(t)}, nil), recorder
}

func Test_Storage_CreateRecord_LocalWriteFails_ShouldWarnAndKeepRecord(t *testing.T) {

	storage, recorder := newBrokenStorage(t)

	created, err := storage.CreateRecord(context.Background(), entities.JobRecord{ID: "1", CompanyName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "1", created.ID)
	assert.Equal(t, "Acme", created.CompanyName)
	assert.Equal(t, entities.StatusApplied, created.Status)
	assert.NotEmpty(t, created.LastUpdated)
	assert.Equal(t, []events.NoticeLevel{events.NoticeWarning}, recorder.levels())
}

func Test_Storage_DeleteRecord_LocalWriteFails_ShouldWarnAndReturnFalse(t *testing.T) {

	storage, recorder := newBrokenStorage(t)

	deleted, err := storage.DeleteRecord(context.Background(), "1")
	assert.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, []events.NoticeLevel{events.NoticeWarning}, recorder.levels())
}

func Test_Storage_CreateRecord_DuplicateLocalID_ShouldReturnError(t *testing.T) {

	storage, _, recorder := newTestStorage(t, nil)
	ctx := context.Background()

	_, err := storage.CreateRecord(ctx, entities.JobRecord{ID: "1", CompanyName: "Acme"})
	require.NoError(t, err)

	_, err = storage.CreateRecord(ctx, entities.JobRecord{ID: "1", CompanyName: "Other"})
	assert.ErrorIs(t, err, repositories.ErrDuplicateID)
	assert.NotContains(t, recorder.levels(), events.NoticeWarning)
}
