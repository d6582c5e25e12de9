package validation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/filesystem"
	"media-catalog/internal/namecache"
)

// eventLog records named events in completion order.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// progressRecorder captures every reported percentage.
type progressRecorder struct {
	mu     sync.Mutex
	values []float64
}

func (p *progressRecorder) Report(percent float64) {
	p.mu.Lock()
	p.values = append(p.values, percent)
	p.mu.Unlock()
}

func (p *progressRecorder) assertMonotonicTo100(t *testing.T) {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.values) == 0 {
		t.Fatal("Expected progress reports")
	}
	for i := 1; i < len(p.values); i++ {
		if p.values[i] < p.values[i-1] {
			t.Fatalf("Progress went backwards: %v then %v", p.values[i-1], p.values[i])
		}
	}
	if last := p.values[len(p.values)-1]; last != 100 {
		t.Fatalf("Expected final progress 100, got %v", last)
	}
}

// stubRefresher satisfies both refresher interfaces and tracks concurrency.
type stubRefresher struct {
	log     *eventLog
	delay   time.Duration
	errFor  func(name string) error
	onCall  func(n int64)
	calls   atomic.Int64
	current atomic.Int64
	maxSeen atomic.Int64
}

func (r *stubRefresher) Refresh(ctx context.Context, e catalog.Entity, isNew, allowSlow bool) error {
	n := r.calls.Add(1)
	if r.onCall != nil {
		r.onCall(n)
	}
	cur := r.current.Add(1)
	defer r.current.Add(-1)
	for {
		max := r.maxSeen.Load()
		if cur <= max || r.maxSeen.CompareAndSwap(max, cur) {
			break
		}
	}
	if r.log != nil {
		r.log.add("refresh:" + e.Info().Name)
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.errFor != nil {
		return r.errFor(e.Info().Name)
	}
	return nil
}

// stubFolders records shallow/deep validation passes.
type stubFolders struct {
	log *eventLog
	err error
}

func (f *stubFolders) ValidateChildren(ctx context.Context, folder catalog.Entity, progress Progress, recursive bool) error {
	if recursive {
		f.log.add("folders:deep")
	} else {
		f.log.add("folders:shallow")
	}
	if progress != nil {
		progress.Report(100)
	}
	return f.err
}

// stubUserVal records per-user passes, tracks concurrency, and can block all
// collection passes on a shared barrier to prove they run in parallel.
type stubUserVal struct {
	log        *eventLog
	barrier    *sync.WaitGroup
	libCurrent atomic.Int64
	libMax     atomic.Int64
	collectErr error
	libErr     error
}

func (u *stubUserVal) ValidateCollectionFolders(ctx context.Context, user User, progress Progress) error {
	if u.barrier != nil {
		// Every collection pass must be running before any may finish.
		u.barrier.Done()
		u.barrier.Wait()
	}
	u.log.add("collection:" + user.Name)
	return u.collectErr
}

func (u *stubUserVal) ValidateMediaLibrary(ctx context.Context, user User, progress Progress) error {
	cur := u.libCurrent.Add(1)
	defer u.libCurrent.Add(-1)
	for {
		max := u.libMax.Load()
		if cur <= max || u.libMax.CompareAndSwap(max, cur) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	u.log.add("library:" + user.Name)
	if progress != nil {
		progress.Report(100)
	}
	return u.libErr
}

// memStore is an in-memory repository for namecache wiring in tests.
type memStore struct {
	mu    sync.Mutex
	items map[string]catalog.Entity
}

func newMemStore() *memStore {
	return &memStore{items: make(map[string]catalog.Entity)}
}

func (m *memStore) Get(_ context.Context, id string) (catalog.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id], nil
}

func (m *memStore) Put(_ context.Context, e catalog.Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[e.Info().ID] = e
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *memStore) ListKind(_ context.Context, kind catalog.Kind) ([]catalog.Entity, error) {
	return nil, nil
}

func (m *memStore) Close() error { return nil }

func newTestRoot() *catalog.AggregateFolder {
	return catalog.New(catalog.KindAggregateFolder, "library", "/library", time.Now()).(*catalog.AggregateFolder)
}

func newPeopleCache(t *testing.T, refresher namecache.MetadataRefresher) *namecache.Cache {
	t.Helper()
	dir := t.TempDir()
	return namecache.New(filesystem.NewOS(), newMemStore(), refresher, namecache.Paths{
		People:  filepath.Join(dir, "People"),
		Studios: filepath.Join(dir, "Studio"),
		Genres:  filepath.Join(dir, "Genre"),
		Years:   filepath.Join(dir, "Year"),
	})
}

func indexOf(events []string, want string) int {
	for i, e := range events {
		if e == want {
			return i
		}
	}
	return -1
}

// TestValidateMediaLibraryPhaseOrder verifies the five phases run strictly in
// sequence: root refresh, shallow pass, per-user collections, deep pass,
// per-user libraries.
func TestValidateMediaLibraryPhaseOrder(t *testing.T) {
	t.Parallel()

	log := &eventLog{}
	refresher := &stubRefresher{log: log}
	folders := &stubFolders{log: log}
	userVal := &stubUserVal{log: log}
	users := StaticUserSource{{ID: "alice", Name: "alice"}, {ID: "bob", Name: "bob"}}

	o := NewOrchestrator(newTestRoot(), users, folders, userVal, refresher, newPeopleCache(t, refresher))

	progress := &progressRecorder{}
	if err := o.ValidateMediaLibrary(context.Background(), progress); err != nil {
		t.Fatalf("ValidateMediaLibrary failed: %v", err)
	}
	progress.assertMonotonicTo100(t)

	events := log.snapshot()
	refreshIdx := indexOf(events, "refresh:library")
	shallowIdx := indexOf(events, "folders:shallow")
	deepIdx := indexOf(events, "folders:deep")

	if refreshIdx == -1 || shallowIdx == -1 || deepIdx == -1 {
		t.Fatalf("Missing phases in %v", events)
	}
	if !(refreshIdx < shallowIdx && shallowIdx < deepIdx) {
		t.Errorf("Phases out of order: %v", events)
	}
	for _, u := range users {
		collIdx := indexOf(events, "collection:"+u.Name)
		libIdx := indexOf(events, "library:"+u.Name)
		if collIdx == -1 || libIdx == -1 {
			t.Fatalf("Missing user events for %s in %v", u.Name, events)
		}
		if !(shallowIdx < collIdx && collIdx < deepIdx && deepIdx < libIdx) {
			t.Errorf("User %s validated outside its phase: %v", u.Name, events)
		}
	}

	// Phase 5 runs users in registration order.
	if indexOf(events, "library:alice") > indexOf(events, "library:bob") {
		t.Errorf("Expected sequential per-user library order, got %v", events)
	}
}

// TestValidateMediaLibraryCollectionsParallel verifies every per-user
// collection pass runs concurrently with the others.
func TestValidateMediaLibraryCollectionsParallel(t *testing.T) {
	t.Parallel()

	const userCount = 4

	log := &eventLog{}
	refresher := &stubRefresher{}
	barrier := &sync.WaitGroup{}
	barrier.Add(userCount)
	userVal := &stubUserVal{log: log, barrier: barrier}

	var users StaticUserSource
	for i := 0; i < userCount; i++ {
		name := fmt.Sprintf("user%d", i)
		users = append(users, User{ID: name, Name: name})
	}

	o := NewOrchestrator(newTestRoot(), users, &stubFolders{log: log}, userVal, refresher, newPeopleCache(t, refresher))

	done := make(chan error, 1)
	go func() { done <- o.ValidateMediaLibrary(context.Background(), nil) }()

	select {
	case err := <-done:
		// The barrier only releases once all collection passes are in
		// flight at the same time; reaching here means they were.
		if err != nil {
			t.Fatalf("ValidateMediaLibrary failed: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Collection passes deadlocked: they are not running in parallel")
	}

	if got := userVal.libMax.Load(); got != 1 {
		t.Errorf("Expected sequential library passes, saw %d concurrent", got)
	}
}

// TestValidateMediaLibraryUserErrorsNonFatal verifies per-user failures are
// swallowed while the pass completes.
func TestValidateMediaLibraryUserErrorsNonFatal(t *testing.T) {
	t.Parallel()

	log := &eventLog{}
	refresher := &stubRefresher{}
	userVal := &stubUserVal{
		log:        log,
		collectErr: errors.New("collection exploded"),
		libErr:     errors.New("library exploded"),
	}
	users := StaticUserSource{{ID: "alice", Name: "alice"}}

	o := NewOrchestrator(newTestRoot(), users, &stubFolders{log: log}, userVal, refresher, newPeopleCache(t, refresher))

	if err := o.ValidateMediaLibrary(context.Background(), nil); err != nil {
		t.Errorf("Expected per-user errors to be non-fatal, got %v", err)
	}
}

// TestValidateMediaLibraryCanceled verifies cancellation propagates out of
// the pass.
func TestValidateMediaLibraryCanceled(t *testing.T) {
	t.Parallel()

	log := &eventLog{}
	refresher := &stubRefresher{}
	o := NewOrchestrator(newTestRoot(), StaticUserSource{}, &stubFolders{log: log}, &stubUserVal{log: log}, refresher, newPeopleCache(t, refresher))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := o.ValidateMediaLibrary(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// TestValidateMediaLibraryStatus verifies the status surface tracks runs.
func TestValidateMediaLibraryStatus(t *testing.T) {
	t.Parallel()

	log := &eventLog{}
	refresher := &stubRefresher{}
	o := NewOrchestrator(newTestRoot(), StaticUserSource{}, &stubFolders{log: log}, &stubUserVal{log: log}, refresher, newPeopleCache(t, refresher))

	if running, lastRun, _ := o.Status(); running || !lastRun.IsZero() {
		t.Errorf("Expected pristine status, got running=%v lastRun=%v", running, lastRun)
	}

	if err := o.ValidateMediaLibrary(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	running, lastRun, _ := o.Status()
	if running {
		t.Error("Expected running=false after pass")
	}
	if lastRun.IsZero() {
		t.Error("Expected lastRun to be set after pass")
	}
}

// buildPeopleTree returns a root whose videos reference count distinct actors.
func buildPeopleTree(count int) *catalog.AggregateFolder {
	root := catalog.New(catalog.KindAggregateFolder, "library", "/library", time.Now()).(*catalog.AggregateFolder)
	movies := catalog.New(catalog.KindFolder, "movies", "/library/movies", time.Now()).(*catalog.Folder)
	root.AddChild(movies)

	for i := 0; i < count; i++ {
		path := fmt.Sprintf("/library/movies/m%04d.mkv", i)
		v := catalog.New(catalog.KindVideo, fmt.Sprintf("m%04d", i), path, time.Now()).(*catalog.Video)
		v.AddPerson(fmt.Sprintf("Actor %04d", i), catalog.RoleActor)
		movies.AddChild(v)
	}
	return root
}

// TestValidatePeopleEmpty verifies an empty sweep reports completion and does
// no work.
func TestValidatePeopleEmpty(t *testing.T) {
	t.Parallel()

	log := &eventLog{}
	refresher := &stubRefresher{}
	o := NewOrchestrator(newTestRoot(), StaticUserSource{}, &stubFolders{log: log}, &stubUserVal{log: log}, refresher, newPeopleCache(t, refresher))

	progress := &progressRecorder{}
	if err := o.ValidatePeople(context.Background(), progress); err != nil {
		t.Fatalf("ValidatePeople failed: %v", err)
	}
	progress.assertMonotonicTo100(t)
	if got := refresher.calls.Load(); got != 0 {
		t.Errorf("Expected no refreshes for empty sweep, got %d", got)
	}
}

// TestValidatePeopleSweep verifies the full sweep refreshes every distinct
// person while keeping the in-flight set bounded.
func TestValidatePeopleSweep(t *testing.T) {
	t.Parallel()

	const people = 600

	log := &eventLog{}
	refresher := &stubRefresher{delay: time.Millisecond}
	o := NewOrchestrator(buildPeopleTree(people), StaticUserSource{}, &stubFolders{log: log}, &stubUserVal{log: log}, refresher, newPeopleCache(t, refresher))

	progress := &progressRecorder{}
	if err := o.ValidatePeople(context.Background(), progress); err != nil {
		t.Fatalf("ValidatePeople failed: %v", err)
	}
	progress.assertMonotonicTo100(t)

	if got := refresher.calls.Load(); got != people {
		t.Errorf("Expected %d refreshes, got %d", people, got)
	}
	if max := refresher.maxSeen.Load(); max > 250 {
		t.Errorf("In-flight units exceeded bound: %d", max)
	}
}

// TestValidatePeopleIOFailureSwallowed verifies per-person io failures are
// logged and skipped without failing the sweep.
func TestValidatePeopleIOFailureSwallowed(t *testing.T) {
	t.Parallel()

	log := &eventLog{}
	refresher := &stubRefresher{
		errFor: func(name string) error {
			if name == "Actor 0001" {
				return fmt.Errorf("unreadable: %w", catalog.ErrIOFailure)
			}
			return nil
		},
	}
	o := NewOrchestrator(buildPeopleTree(5), StaticUserSource{}, &stubFolders{log: log}, &stubUserVal{log: log}, refresher, newPeopleCache(t, refresher))

	if err := o.ValidatePeople(context.Background(), nil); err != nil {
		t.Errorf("Expected io failures to be swallowed, got %v", err)
	}
	if got := refresher.calls.Load(); got != 5 {
		t.Errorf("Expected all 5 people attempted, got %d", got)
	}
}

// TestValidatePeopleOtherErrorPropagates verifies unexpected errors abort the
// sweep.
func TestValidatePeopleOtherErrorPropagates(t *testing.T) {
	t.Parallel()

	log := &eventLog{}
	boom := errors.New("metadata provider exploded")
	refresher := &stubRefresher{
		errFor: func(name string) error {
			if name == "Actor 0002" {
				return boom
			}
			return nil
		},
	}
	o := NewOrchestrator(buildPeopleTree(5), StaticUserSource{}, &stubFolders{log: log}, &stubUserVal{log: log}, refresher, newPeopleCache(t, refresher))

	if err := o.ValidatePeople(context.Background(), nil); !errors.Is(err, boom) {
		t.Errorf("Expected propagated provider error, got %v", err)
	}
}

// TestValidatePeopleCanceled verifies cancellation is reported from the
// batch checkpoint.
func TestValidatePeopleCanceled(t *testing.T) {
	t.Parallel()

	log := &eventLog{}
	refresher := &stubRefresher{}
	o := NewOrchestrator(buildPeopleTree(10), StaticUserSource{}, &stubFolders{log: log}, &stubUserVal{log: log}, refresher, newPeopleCache(t, refresher))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := o.ValidatePeople(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// TestValidatePeopleCancelMidBatchDrains verifies that cancellation raised
// while a batch is in flight is observed only after the whole batch drains:
// all 250 launched units finish, the remaining names are never started, and
// the caller sees ctx.Err().
func TestValidatePeopleCancelMidBatchDrains(t *testing.T) {
	t.Parallel()

	const people = 300

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := &eventLog{}
	refresher := &stubRefresher{
		delay: time.Millisecond,
		onCall: func(n int64) {
			if n == 10 {
				cancel()
			}
		},
	}
	o := NewOrchestrator(buildPeopleTree(people), StaticUserSource{}, &stubFolders{log: log}, &stubUserVal{log: log}, refresher, newPeopleCache(t, refresher))

	progress := &progressRecorder{}
	err := o.ValidatePeople(ctx, progress)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	// Every unit of the first batch completes and reports progress before
	// cancellation surfaces; the trailing 50 names are never launched.
	progress.mu.Lock()
	reports := len(progress.values)
	progress.mu.Unlock()
	if reports != 250 {
		t.Errorf("Expected exactly 250 completed units before the checkpoint, got %d", reports)
	}
	if got := refresher.calls.Load(); got > 250 {
		t.Errorf("Expected no units beyond the first batch, refresher ran %d times", got)
	}
}

// TestCollectPeople verifies role filtering and case-insensitive dedup with
// first occurrence winning.
func TestCollectPeople(t *testing.T) {
	t.Parallel()

	root := newTestRoot()
	movies := catalog.New(catalog.KindFolder, "movies", "/library/movies", time.Now()).(*catalog.Folder)
	root.AddChild(movies)

	a := catalog.New(catalog.KindVideo, "heat", "/library/movies/heat.mkv", time.Now()).(*catalog.Video)
	a.AddPerson("Al Pacino", catalog.RoleActor)
	a.AddPerson("Michael Mann", catalog.RoleDirector)
	a.AddPerson("Michael Mann", catalog.RoleWriter) // duplicate via other role
	movies.AddChild(a)

	b := catalog.New(catalog.KindVideo, "serpico", "/library/movies/serpico.mkv", time.Now()).(*catalog.Video)
	b.AddPerson("AL PACINO", catalog.RoleActor) // case duplicate
	b.AddPerson("Waldo Salt", catalog.RoleWriter)
	b.AddPerson("", catalog.RoleActor)
	movies.AddChild(b)

	names := collectPeople(root)
	want := []string{"Al Pacino", "Michael Mann"}
	if len(names) != len(want) {
		t.Fatalf("collectPeople = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("collectPeople[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
