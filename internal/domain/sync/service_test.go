package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"notesync/internal/domain/apperr"
	"notesync/internal/domain/identity"
)

const (
	noteA = "6f1c2b8e-3a4d-4e5f-9a0b-1c2d3e4f5a6b"
	noteB = "0e9d8c7b-6a5f-4e3d-8c2b-1a0f9e8d7c6b"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateNote(ctx context.Context, note *Note) error {
	args := m.Called(ctx, note)
	if args.Error(0) == nil {
		note.ID = noteA
		note.Version = 1
	}
	return args.Error(0)
}

func (m *MockRepository) UpdateNote(ctx context.Context, groupID string, upd NoteUpdate) (*Note, error) {
	args := m.Called(ctx, groupID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Note), args.Error(1)
}

func (m *MockRepository) LockNote(ctx context.Context, groupID, noteID string) (*Note, error) {
	args := m.Called(ctx, groupID, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Note), args.Error(1)
}

func (m *MockRepository) SetContent(ctx context.Context, groupID, noteID, content string) (*Note, error) {
	args := m.Called(ctx, groupID, noteID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Note), args.Error(1)
}

func (m *MockRepository) BumpImages(ctx context.Context, groupID, noteID string, hasImages bool) (*Note, error) {
	args := m.Called(ctx, groupID, noteID, hasImages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Note), args.Error(1)
}

func (m *MockRepository) AppendEvent(ctx context.Context, event *Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockRepository) Cursor(ctx context.Context, groupID string) (time.Time, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockRepository) ListNotes(ctx context.Context, groupID string) ([]Note, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Note), args.Error(1)
}

func (m *MockRepository) ListChanges(ctx context.Context, q ChangeQuery) ([]Change, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Change), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyGroup(groupID, authorDeviceID string) {
	m.Called(groupID, authorDeviceID)
}

// fakeTx считает транзакции и возвращает ошибку fn как откат
type fakeTx struct {
	calls      int
	rolledBack bool
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	if err := fn(ctx); err != nil {
		f.rolledBack = true
		return err
	}
	return nil
}

var principal = identity.Principal{
	IdentityID:  "identity-1",
	DeviceID:    "phone-1",
	Fingerprint: "0123456789abcdef",
	GroupID:     "group-1",
}

func newTestService(repo *MockRepository, notifier *MockNotifier) (*Service, *fakeTx) {
	tx := &fakeTx{}
	var n ChangeNotifier
	if notifier != nil {
		n = notifier
	}
	return NewService(repo, tx, NewPatcher(), n, slog.Default(), Config{MaxBatch: 3}), tx
}

func eventOf(typ EventType, noteID string) interface{} {
	return mock.MatchedBy(func(e *Event) bool {
		return e.Type == typ && e.NoteID == noteID && e.GroupID == "group-1" &&
			e.DeviceID == "phone-1" && e.Fingerprint == "0123456789abcdef"
	})
}

func TestService_Push_CreateAndForeignUpdate(t *testing.T) {
	repo := new(MockRepository)
	notifier := new(MockNotifier)
	svc, tx := newTestService(repo, notifier)

	repo.On("CreateNote", mock.Anything, mock.MatchedBy(func(n *Note) bool {
		return n.GroupID == "group-1" && n.Title == "T" && n.Content == "C" && n.DeviceID == "phone-1"
	})).Return(nil)
	repo.On("AppendEvent", mock.Anything, eventOf(EventCreate, noteA)).Return(nil)
	repo.On("UpdateNote", mock.Anything, "group-1", mock.MatchedBy(func(u NoteUpdate) bool { return u.ID == noteB })).
		Return(nil, fmt.Errorf("update note: %w", apperr.ErrNotFound))
	notifier.On("NotifyGroup", "group-1", "phone-1").Return()

	res, err := svc.Push(context.Background(), principal, []PushItem{
		{LocalID: "l1", Title: "T", Content: "C", EventType: EventCreate},
		{LocalID: "l2", ServerID: noteB, Title: "X", EventType: EventUpdate},
	})

	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Equal(t, StatusCreated, res.Results[0].Status)
	assert.Equal(t, noteA, res.Results[0].ServerID)
	assert.Equal(t, 1, res.Results[0].Version)
	assert.Equal(t, StatusNotFound, res.Results[1].Status)
	assert.Equal(t, 1, tx.calls)
	assert.False(t, tx.rolledBack)
	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestService_Push_Update(t *testing.T) {
	repo := new(MockRepository)
	svc, _ := newTestService(repo, nil)

	folder := "work/ideas"
	repo.On("UpdateNote", mock.Anything, "group-1", NoteUpdate{ID: noteA, Title: "T2", Content: "C2", FolderPath: &folder}).
		Return(&Note{ID: noteA, Version: 2}, nil)
	repo.On("AppendEvent", mock.Anything, eventOf(EventUpdate, noteA)).Return(nil)

	res, err := svc.Push(context.Background(), principal, []PushItem{
		{LocalID: "l1", ServerID: noteA, Title: "T2", Content: "C2", FolderPath: &folder, EventType: EventUpdate},
	})

	require.NoError(t, err)
	assert.Equal(t, StatusUpdated, res.Results[0].Status)
	assert.Equal(t, 2, res.Results[0].Version)
}

func TestService_Push_MalformedServerIDIsNotFound(t *testing.T) {
	repo := new(MockRepository)
	svc, _ := newTestService(repo, new(MockNotifier))

	res, err := svc.Push(context.Background(), principal, []PushItem{
		{ServerID: "42", EventType: EventUpdate},
		{ServerID: "nope", EventType: EventPatch, Patch: "@@ -1 +1 @@"},
	})

	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, res.Results[0].Status)
	assert.Equal(t, StatusNotFound, res.Results[1].Status)
	repo.AssertNotCalled(t, "UpdateNote", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Push_PatchApplied(t *testing.T) {
	repo := new(MockRepository)
	svc, _ := newTestService(repo, nil)

	patchText := NewPatcher().MakePatch("hello world", "hello brave world")
	repo.On("LockNote", mock.Anything, "group-1", noteA).
		Return(&Note{ID: noteA, Content: "hello world", Version: 3}, nil)
	repo.On("SetContent", mock.Anything, "group-1", noteA, "hello brave world").
		Return(&Note{ID: noteA, Content: "hello brave world", Version: 4, UpdatedAt: time.Now()}, nil)
	repo.On("AppendEvent", mock.Anything, eventOf(EventPatch, noteA)).Return(nil)

	res, err := svc.Push(context.Background(), principal, []PushItem{
		{LocalID: "l1", ServerID: noteA, EventType: EventPatch, Patch: patchText},
	})

	require.NoError(t, err)
	assert.Equal(t, StatusPatched, res.Results[0].Status)
	assert.Equal(t, 4, res.Results[0].Version)
	assert.NotEmpty(t, res.Results[0].Hunks)
	repo.AssertExpectations(t)
}

func TestService_Push_PatchAgainstCurrentServerContent(t *testing.T) {
	repo := new(MockRepository)
	svc, _ := newTestService(repo, nil)

	base := "first line\nsecond line\nthird line\n"
	// патч клиента B построен от версии 1
	patchText := NewPatcher().MakePatch(base, "first line\nsecond line\nthird line, patched\n")
	// к моменту применения клиент A уже обновил начало заметки
	current := "FIRST LINE\nsecond line\nthird line\n"

	repo.On("LockNote", mock.Anything, "group-1", noteA).Return(&Note{ID: noteA, Content: current, Version: 2}, nil)
	repo.On("SetContent", mock.Anything, "group-1", noteA, "FIRST LINE\nsecond line\nthird line, patched\n").
		Return(&Note{ID: noteA, Version: 3}, nil)
	repo.On("AppendEvent", mock.Anything, mock.Anything).Return(nil)

	res, err := svc.Push(context.Background(), principal, []PushItem{
		{ServerID: noteA, EventType: EventPatch, Patch: patchText},
	})

	require.NoError(t, err)
	assert.Equal(t, StatusPatched, res.Results[0].Status)
	assert.Equal(t, 3, res.Results[0].Version)
	repo.AssertExpectations(t)
}

func TestService_Push_PatchRejected(t *testing.T) {
	patchText := NewPatcher().MakePatch("The quick brown fox jumps", "The quick red fox jumps")
	listBase := "Shopping list:\nmilk\neggs\nbread\nbutter\ncheese\nend of list\n"
	listPatch := NewPatcher().MakePatch(listBase, "Shopping list:\nmilk\neggs\nend of list\n")
	const digits = "0123456789 0123456789 0123456789"

	tests := []struct {
		name    string
		content string
		patch   string
	}{
		{name: "hunk does not match", content: digits, patch: patchText},
		{name: "unparsable patch", content: digits, patch: "this is not a patch"},
		{
			name:    "deleted lines were replaced concurrently",
			content: "Shopping list:\nmilk\neggs\nbrie\nbacon\nchives\nend of list\n",
			patch:   listPatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			notifier := new(MockNotifier)
			svc, _ := newTestService(repo, notifier)

			repo.On("LockNote", mock.Anything, "group-1", noteA).
				Return(&Note{ID: noteA, Content: tt.content, Version: 5}, nil)

			res, err := svc.Push(context.Background(), principal, []PushItem{
				{ServerID: noteA, EventType: EventPatch, Patch: tt.patch},
			})

			require.NoError(t, err)
			assert.Equal(t, StatusPatchFailed, res.Results[0].Status)
			assert.Equal(t, 5, res.Results[0].Version)
			assert.NotEmpty(t, res.Results[0].Reason)
			repo.AssertNotCalled(t, "SetContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			repo.AssertNotCalled(t, "AppendEvent", mock.Anything, mock.Anything)
			notifier.AssertNotCalled(t, "NotifyGroup", mock.Anything, mock.Anything)
		})
	}
}

func TestService_Push_Validation(t *testing.T) {
	tests := []struct {
		name  string
		items []PushItem
	}{
		{name: "empty batch", items: nil},
		{name: "unknown event type", items: []PushItem{{EventType: "delete"}}},
		{name: "client cannot push image events", items: []PushItem{{EventType: EventImageUpload, ServerID: noteA}}},
		{name: "update without server id", items: []PushItem{{EventType: EventUpdate}}},
		{name: "patch without patch text", items: []PushItem{{EventType: EventPatch, ServerID: noteA}}},
		{name: "batch too large", items: []PushItem{{EventType: EventCreate}, {EventType: EventCreate}, {EventType: EventCreate}, {EventType: EventCreate}}},
		{name: "one bad item among good", items: []PushItem{{EventType: EventCreate}, {EventType: "bogus"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			svc, tx := newTestService(repo, nil)

			_, err := svc.Push(context.Background(), principal, tt.items)

			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
			assert.Equal(t, 0, tx.calls)
		})
	}
}

func TestService_Push_InfrastructureErrorAborts(t *testing.T) {
	repo := new(MockRepository)
	notifier := new(MockNotifier)
	svc, tx := newTestService(repo, notifier)

	repo.On("CreateNote", mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("AppendEvent", mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("CreateNote", mock.Anything, mock.Anything).Return(errors.New("connection lost")).Once()

	res, err := svc.Push(context.Background(), principal, []PushItem{
		{EventType: EventCreate, Title: "a"},
		{EventType: EventCreate, Title: "b"},
	})

	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, tx.rolledBack)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	notifier.AssertNotCalled(t, "NotifyGroup", mock.Anything, mock.Anything)
}

func TestService_Push_NoNotifyWithoutMutation(t *testing.T) {
	repo := new(MockRepository)
	notifier := new(MockNotifier)
	svc, _ := newTestService(repo, notifier)

	repo.On("UpdateNote", mock.Anything, "group-1", mock.Anything).Return(nil, apperr.ErrNotFound)

	_, err := svc.Push(context.Background(), principal, []PushItem{{ServerID: noteB, EventType: EventUpdate}})

	require.NoError(t, err)
	notifier.AssertNotCalled(t, "NotifyGroup", mock.Anything, mock.Anything)
}

func TestService_Pull(t *testing.T) {
	repo := new(MockRepository)
	svc, tx := newTestService(repo, nil)

	since := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	cursor := time.Date(2025, 5, 1, 15, 0, 0, 0, time.FixedZone("MSK", 3*60*60))
	changes := []Change{
		{Note: Note{ID: noteA}, EventType: EventCreate, Seq: 10},
		{Note: Note{ID: noteA}, EventType: EventPatch, Seq: 12},
	}
	cursorCall := repo.On("Cursor", mock.Anything, "group-1").Return(cursor, nil).Once()
	repo.On("ListChanges", mock.Anything, ChangeQuery{
		GroupID:            "group-1",
		ExcludeDeviceID:    "phone-1",
		ExcludeFingerprint: "0123456789abcdef",
		Since:              &since,
	}).Return(changes, nil).NotBefore(cursorCall)

	got, next, err := svc.Pull(context.Background(), principal, &since)

	require.NoError(t, err)
	assert.Equal(t, changes, got)
	assert.Equal(t, time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC), next)
	assert.Equal(t, time.UTC, next.Location())
	assert.Equal(t, 1, tx.calls)
	repo.AssertExpectations(t)
}

func TestService_Pull_Errors(t *testing.T) {
	tests := []struct {
		name      string
		cursorErr error
		listErr   error
	}{
		{name: "cursor fails", cursorErr: errors.New("conn reset")},
		{name: "list fails", listErr: errors.New("conn reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			svc, tx := newTestService(repo, nil)

			repo.On("Cursor", mock.Anything, "group-1").Return(time.Now(), tt.cursorErr)
			repo.On("ListChanges", mock.Anything, mock.Anything).Return(nil, tt.listErr).Maybe()

			got, next, err := svc.Pull(context.Background(), principal, nil)

			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, next.IsZero())
			assert.True(t, tx.rolledBack)
			if tt.cursorErr != nil {
				repo.AssertNotCalled(t, "ListChanges", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestService_Snapshot(t *testing.T) {
	repo := new(MockRepository)
	svc, tx := newTestService(repo, nil)
	cursor := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	repo.On("Cursor", mock.Anything, mock.Anything).Return(cursor, nil)
	repo.On("ListNotes", mock.Anything, "group-1").Return([]Note{{ID: noteB}, {ID: noteA}}, nil)
	repo.On("ListNotes", mock.Anything, "group-2").Return([]Note{}, nil)

	got, next, err := svc.Snapshot(context.Background(), principal)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, cursor, next)

	other := principal
	other.GroupID = "group-2"
	got, _, err = svc.Snapshot(context.Background(), other)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 2, tx.calls)
	repo.AssertCalled(t, "Cursor", mock.Anything, "group-2")
}

func TestDMPPatcher_Apply(t *testing.T) {
	p := NewPatcher()

	out, hunks, err := p.Apply("abc", p.MakePatch("abc", "abXc"))
	require.NoError(t, err)
	assert.Equal(t, "abXc", out)
	assert.True(t, allApplied(hunks))

	_, _, err = p.Apply("abc", "")
	assert.ErrorIs(t, err, ErrPatchEmpty)

	_, _, err = p.Apply("abc", "@@ broken")
	assert.ErrorIs(t, err, ErrPatchUnparsable)
}

func TestDMPPatcher_Apply_Exact(t *testing.T) {
	p := NewPatcher()
	base := "Shopping list:\nmilk\neggs\nbread\nbutter\ncheese\nend of list\n"
	dropThree := p.MakePatch(base, "Shopping list:\nmilk\neggs\nend of list\n")

	tests := []struct {
		name     string
		content  string
		patch    string
		expected string
		applied  bool
	}{
		{
			name:     "applies to unchanged base",
			content:  base,
			patch:    dropThree,
			expected: "Shopping list:\nmilk\neggs\nend of list\n",
			applied:  true,
		},
		{
			name:     "replaced lines are left intact",
			content:  "Shopping list:\nmilk\neggs\nbrie\nbacon\nchives\nend of list\n",
			patch:    dropThree,
			expected: "Shopping list:\nmilk\neggs\nbrie\nbacon\nchives\nend of list\n",
			applied:  false,
		},
		{
			name:     "text inserted before the hunk shifts it",
			content:  "Weekend\n" + base,
			patch:    dropThree,
			expected: "Weekend\nShopping list:\nmilk\neggs\nend of list\n",
			applied:  true,
		},
		{
			name:     "single changed character in context",
			content:  "alpha\nbeta\ngamma\n",
			patch:    p.MakePatch("alpha\nbeta\ngamma\n", "alpha\nBETA\ngamma\n"),
			expected: "alpha\nBETA\ngamma\n",
			applied:  true,
		},
		{
			name:     "context edited concurrently",
			content:  "alpha\nbetA\ngamma\n",
			patch:    p.MakePatch("alpha\nbeta\ngamma\n", "alpha\nBETA\ngamma\n"),
			expected: "alpha\nbetA\ngamma\n",
			applied:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, hunks, err := p.Apply(tt.content, tt.patch)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
			assert.Equal(t, tt.applied, allApplied(hunks))
		})
	}
}

func TestNearestIndex(t *testing.T) {
	assert.Equal(t, 6, nearestIndex("ab ab ab ab", "ab", 7))
	assert.Equal(t, 0, nearestIndex("ab ab ab ab", "ab", -3))
	assert.Equal(t, -1, nearestIndex("ab ab", "cd", 0))
	assert.Equal(t, 5, nearestIndex("hello", "", 10))
}
