package service

import (
	"context"
	"sync"

	"github.com/Strob0t/lspkeeper/internal/config"
	lspDomain "github.com/Strob0t/lspkeeper/internal/domain/lsp"
	"github.com/Strob0t/lspkeeper/internal/domain/provision"
	"github.com/Strob0t/lspkeeper/internal/port/langserver"
	"github.com/Strob0t/lspkeeper/internal/port/notifier"
)

func testConfig() *config.Config {
	cfg := config.Defaults()
	return &cfg
}

// fakeLocator resolves from a mutable map.
type fakeLocator struct {
	mu    sync.Mutex
	paths map[provision.CommandName]provision.ResolvedPath
	calls []provision.CommandName
	err   error
}

func newFakeLocator(paths map[provision.CommandName]provision.ResolvedPath) *fakeLocator {
	if paths == nil {
		paths = make(map[provision.CommandName]provision.ResolvedPath)
	}
	return &fakeLocator{paths: paths}
}

func (f *fakeLocator) Locate(_ context.Context, cmd provision.CommandName) (provision.ResolvedPath, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)
	if f.err != nil {
		return provision.NotFound, f.err
	}
	return f.paths[cmd], nil
}

func (f *fakeLocator) set(cmd provision.CommandName, p provision.ResolvedPath) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths[cmd] = p
}

// fakeInstaller resolves the session with err after reporting progress.
type fakeInstaller struct {
	mu        sync.Mutex
	calls     int
	sessions  []*provision.InstallSession
	progress  []string
	err       error
	onInstall func()
}

func (f *fakeInstaller) Install(_ context.Context, s *provision.InstallSession) error {
	f.mu.Lock()
	f.calls++
	f.sessions = append(f.sessions, s)
	f.mu.Unlock()

	for _, p := range f.progress {
		s.Report(p)
	}
	if f.onInstall != nil {
		f.onInstall()
	}
	s.Resolve(f.err)
	return s.Err()
}

func (f *fakeInstaller) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakePrefs is an in-memory prefstore.Store.
type fakePrefs struct {
	mu      sync.Mutex
	prefs   provision.Preferences
	loadErr error
	sets    []string
}

func (f *fakePrefs) Load(context.Context) (provision.Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prefs, f.loadErr
}

func (f *fakePrefs) Set(_ context.Context, key string, value bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets = append(f.sets, key)
	switch key {
	case provision.KeySuppressMissingLspWarning:
		f.prefs.SuppressMissingLspWarning = value
	case provision.KeyDisableAutoupdate:
		f.prefs.DisableAutoupdate = value
	}
	return nil
}

// fakeUI records every interaction.
type fakeUI struct {
	mu             sync.Mutex
	notifications  []notifier.Notification
	asked          []string
	askChoices     [][]provision.Choice
	answer         provision.Choice
	opened         []string
	progressTitles []string
	reports        []string
}

func (f *fakeUI) Notify(_ context.Context, n notifier.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, n)
}

func (f *fakeUI) Ask(_ context.Context, message string, choices ...provision.Choice) (provision.Choice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, message)
	f.askChoices = append(f.askChoices, choices)
	return f.answer, nil
}

func (f *fakeUI) OpenExternal(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, url)
	return nil
}

func (f *fakeUI) WithProgress(ctx context.Context, title string, _ bool, fn notifier.ProgressFunc) error {
	f.mu.Lock()
	f.progressTitles = append(f.progressTitles, title)
	f.mu.Unlock()
	return fn(ctx, func(msg string) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.reports = append(f.reports, msg)
	})
}

func (f *fakeUI) messages(level notifier.Level) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, n := range f.notifications {
		if n.Level == level {
			out = append(out, n.Message)
		}
	}
	return out
}

// fakeBroadcaster records event types.
type fakeBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeBroadcaster) BroadcastEvent(_ context.Context, eventType string, _ any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
}

func (f *fakeBroadcaster) count(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e == eventType {
			n++
		}
	}
	return n
}

// fakeEnsurer returns a fixed path.
type fakeEnsurer struct {
	mu    sync.Mutex
	path  provision.ResolvedPath
	err   error
	calls int
	block bool // wait for ctx cancellation
}

func (f *fakeEnsurer) Ensure(ctx context.Context, _ provision.CommandName) (provision.ResolvedPath, error) {
	f.mu.Lock()
	f.calls++
	block, path, err := f.block, f.path, f.err
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return provision.NotFound, ctx.Err()
	}
	return path, err
}

func (f *fakeEnsurer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeSession is a controllable langserver.Session.
type fakeSession struct {
	id      string
	stopErr error

	mu        sync.Mutex
	stopCalls int
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeSession(id string) *fakeSession {
	return &fakeSession{id: id, done: make(chan struct{})}
}

func (f *fakeSession) ID() string            { return f.id }
func (f *fakeSession) PID() int              { return 4242 }
func (f *fakeSession) ServerName() string    { return "simplicityhl-lsp" }
func (f *fakeSession) Done() <-chan struct{} { return f.done }

func (f *fakeSession) Stop(context.Context) error {
	f.mu.Lock()
	f.stopCalls++
	f.mu.Unlock()
	f.exit()
	return f.stopErr
}

func (f *fakeSession) exit() { f.closeOnce.Do(func() { close(f.done) }) }

func (f *fakeSession) stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalls
}

// fakeConnector hands out fakeSessions.
type fakeConnector struct {
	mu       sync.Mutex
	err      error
	specs    []lspDomain.LaunchSpec
	sessions []*fakeSession
}

func (f *fakeConnector) Connect(_ context.Context, spec lspDomain.LaunchSpec) (langserver.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.specs = append(f.specs, spec)
	if f.err != nil {
		return nil, f.err
	}
	s := newFakeSession("session-" + string(rune('a'+len(f.sessions))))
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *fakeConnector) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeConnector) last() *fakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sessions) == 0 {
		return nil
	}
	return f.sessions[len(f.sessions)-1]
}
