package profile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/khoahotran/devconnector/adapters/event"
	"github.com/khoahotran/devconnector/adapters/persistence"
	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/internal/domain/user"
	"github.com/khoahotran/devconnector/pkg/keylock"
	"github.com/khoahotran/devconnector/pkg/logger"
)

func strPtr(s string) *string { return &s }

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]user.DisplayInfo
}

func newFakeUserRepo(infos ...user.DisplayInfo) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]user.DisplayInfo)}
	for _, info := range infos {
		r.users[info.ID] = info
	}
	return r
}

func (r *fakeUserRepo) FindDisplayInfo(_ context.Context, id uuid.UUID) (*user.DisplayInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &info, nil
}

func (r *fakeUserRepo) FindDisplayInfos(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]user.DisplayInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]user.DisplayInfo)
	for _, id := range ids {
		if info, ok := r.users[id]; ok {
			out[id] = info
		}
	}
	return out, nil
}

func (r *fakeUserRepo) DeleteAccount(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

type recordingPublisher struct {
	events chan event.ProfileEventPayload
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(chan event.ProfileEventPayload, 64)}
}

func (p *recordingPublisher) PublishProfileEvent(_ context.Context, payload event.ProfileEventPayload) error {
	p.events <- payload
	return nil
}

func (p *recordingPublisher) next(t *testing.T) event.ProfileEventPayload {
	t.Helper()
	select {
	case e := <-p.events:
		return e
	case <-time.After(time.Second):
		t.Fatal("no profile event published")
		return event.ProfileEventPayload{}
	}
}

type MockRepositoryLookup struct {
	mock.Mock
}

func (m *MockRepositoryLookup) ListRepositories(ctx context.Context, username string) ([]service.RepositorySummary, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.RepositorySummary), args.Error(1)
}

// interferingRepo lets a test run a competing write right before the first Replace.
type interferingRepo struct {
	profile.Repository
	once      sync.Once
	interfere func()
}

func (r *interferingRepo) Replace(ctx context.Context, p *profile.Profile) error {
	r.once.Do(r.interfere)
	return r.Repository.Replace(ctx, p)
}

// alwaysConflictRepo loses every conditional write.
type alwaysConflictRepo struct {
	profile.Repository
	replaceCalls int
}

func (r *alwaysConflictRepo) Replace(context.Context, *profile.Profile) error {
	r.replaceCalls++
	return profile.ErrVersionConflict
}

type testEnv struct {
	uc        *ProfileUseCase
	repo      profile.Repository
	users     *fakeUserRepo
	publisher *recordingPublisher
	lookup    *MockRepositoryLookup
}

func newTestEnv(t *testing.T, repo profile.Repository) *testEnv {
	t.Helper()
	if repo == nil {
		repo = persistence.NewMemoryProfileRepo()
	}
	env := &testEnv{
		repo:      repo,
		users:     newFakeUserRepo(),
		publisher: newRecordingPublisher(),
		lookup:    new(MockRepositoryLookup),
	}
	env.uc = NewProfileUseCase(repo, env.users, env.lookup, keylock.New(), env.publisher, time.Second, logger.NewNopLogger())
	return env
}

func baseFields() profile.FieldSet {
	return profile.FieldSet{Status: strPtr("Developer"), Skills: strPtr("Go")}
}
