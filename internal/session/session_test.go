package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/pagestack/internal/stack"
	"github.com/GriffinCanCode/pagestack/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const entryDocument = `<!DOCTYPE html>
<html><body>
<div id="app">
	<nav>
		<a id="to-one" href="/#one">One</a>
		<a id="to-two" href="#two">Two</a>
		<a id="to-more" href="/more">More</a>
		<a id="out" href="https://example.com/">Out</a>
	</nav>
	<div class="ps-pages">
		<div class="ps-page" id="one"><span id="inside">first</span></div>
		<div class="ps-page" id="two">second</div>
	</div>
</div>
</body></html>`

// origin serves the entry document, a remote page and a page that only
// answers once released
type origin struct {
	srv     *httptest.Server
	release chan struct{}
}

func newOrigin(t *testing.T) *origin {
	t.Helper()
	o := &origin{release: make(chan struct{})}
	o.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/":
			_, _ = w.Write([]byte(entryDocument))
		case "/more":
			_, _ = w.Write([]byte(`<div class="ps-page" id="more">more</div>`))
		case "/slow":
			select {
			case <-o.release:
			case <-r.Context().Done():
				return
			}
			_, _ = w.Write([]byte(`<div class="ps-page" id="slow">slow</div>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(func() {
		close(o.release)
		o.srv.Close()
	})
	return o
}

func (o *origin) client(t *testing.T) *transport.Client {
	t.Helper()
	c, err := transport.NewClient(transport.Config{Origin: o.srv.URL, Retries: 0, RetryWait: time.Millisecond})
	require.NoError(t, err)
	return c
}

func mainStack() stack.Options {
	return stack.Options{
		ID:               "main",
		Container:        "#app",
		DisableAnimation: true,
		PagesLimit:       -1,
		History:          true,
	}
}

func startSession(t *testing.T, o *origin) *Session {
	t.Helper()
	sess, err := New(Config{Entry: "/", Stacks: []stack.Options{mainStack()}}, o.client(t))
	require.NoError(t, err)
	require.NoError(t, sess.Start(context.Background()))
	t.Cleanup(sess.Close)
	return sess
}

func active(t *testing.T, sess *Session) string {
	t.Helper()
	info, err := sess.Stack(context.Background(), "main")
	require.NoError(t, err)
	return info.Active
}

func TestStartOpensFirstPage(t *testing.T) {
	sess := startSession(t, newOrigin(t))
	ctx := context.Background()

	infos, err := sess.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "main", infos[0].ID)
	assert.True(t, infos[0].Ready)
	assert.Equal(t, "/", infos[0].BaseURL)
	assert.Equal(t, "/#one", infos[0].Active)
	assert.Len(t, infos[0].Pages, 2)

	doc, err := sess.Document(ctx)
	require.NoError(t, err)
	assert.Contains(t, doc, "ps-active")
	assert.Contains(t, doc, `data-ps-container="main"`)
}

func TestStartTwice(t *testing.T) {
	sess := startSession(t, newOrigin(t))
	assert.ErrorIs(t, sess.Start(context.Background()), ErrAlreadyStarted)
}

func TestStartFailsOnMissingEntry(t *testing.T) {
	o := newOrigin(t)
	sess, err := New(Config{Entry: "/missing"}, o.client(t))
	require.NoError(t, err)

	err = sess.Start(context.Background())
	var status *transport.StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, http.StatusNotFound, status.Code)
}

func TestStartRejectsBadStack(t *testing.T) {
	o := newOrigin(t)
	sess, err := New(Config{Stacks: []stack.Options{{Container: "#nowhere"}}}, o.client(t))
	require.NoError(t, err)
	assert.ErrorIs(t, sess.Start(context.Background()), stack.ErrConfiguration)
}

func TestOperationsBeforeStart(t *testing.T) {
	sess, err := New(Config{}, newOrigin(t).client(t))
	require.NoError(t, err)

	_, err = sess.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrNotStarted)
	_, err = sess.Navigate(context.Background(), "/#two")
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestDefaultStackOnBody(t *testing.T) {
	sess, err := New(Config{}, newOrigin(t).client(t))
	require.NoError(t, err)
	require.Len(t, sess.cfg.Stacks, 1)
	assert.Equal(t, "body", sess.cfg.Stacks[0].Container)
	assert.Equal(t, "/", sess.cfg.Entry)
}

func TestClick(t *testing.T) {
	sess := startSession(t, newOrigin(t))
	ctx := context.Background()

	result, err := sess.Click(ctx, "#to-two")
	require.NoError(t, err)
	assert.True(t, result.Handled)
	assert.Equal(t, "#two", result.Href)
	assert.Equal(t, "/#two", result.Address)
	assert.Equal(t, "/#two", active(t, sess))

	result, err = sess.Click(ctx, "#out")
	require.NoError(t, err)
	assert.False(t, result.Handled)
	assert.Equal(t, "/#two", result.Address)

	_, err = sess.Click(ctx, "#inside")
	assert.ErrorIs(t, err, ErrNoElement)
	_, err = sess.Click(ctx, "#nothing")
	assert.ErrorIs(t, err, ErrNoElement)
}

func TestNavigateBackForward(t *testing.T) {
	sess := startSession(t, newOrigin(t))
	ctx := context.Background()

	state, err := sess.Navigate(ctx, "/#two")
	require.NoError(t, err)
	assert.Equal(t, "/#two", state.Current)
	assert.Equal(t, "/#two", active(t, sess))

	state, moved, err := sess.Back(ctx)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, "/", state.Current)
	assert.Equal(t, "/#one", active(t, sess))

	state, moved, err = sess.Forward(ctx)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, []string{"/", "/#two"}, state.Entries)
	assert.Equal(t, 1, state.Index)
	assert.Equal(t, "/#two", active(t, sess))

	_, moved, err = sess.Forward(ctx)
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestOpenLoadsRemotePage(t *testing.T) {
	sess := startSession(t, newOrigin(t))
	ctx := context.Background()

	_, err := sess.Open(ctx, "main", OpenRequest{URL: "/more"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return active(t, sess) == "/more#more" }, 5*time.Second, 10*time.Millisecond)

	history, err := sess.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/more#more", history.Current)

	info, err := sess.ClosePage(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "/#two", info.Active)
	assert.Len(t, info.Pages, 2)
}

func TestOpenErrors(t *testing.T) {
	sess := startSession(t, newOrigin(t))
	ctx := context.Background()

	_, err := sess.Open(ctx, "nope", OpenRequest{URL: "/more"})
	assert.ErrorIs(t, err, ErrUnknownStack)

	_, err = sess.Open(ctx, "main", OpenRequest{URL: "/more", Loading: "sometimes"})
	assert.ErrorIs(t, err, stack.ErrConfiguration)

	_, err = sess.Open(ctx, "main", OpenRequest{URL: "#missing"})
	assert.ErrorIs(t, err, stack.ErrUnsupportedURL)
}

func TestCancelLoad(t *testing.T) {
	sess := startSession(t, newOrigin(t))
	ctx := context.Background()

	info, err := sess.Open(ctx, "main", OpenRequest{URL: "/slow", Loading: "none"})
	require.NoError(t, err)
	assert.True(t, info.Loading)

	info, err = sess.CancelLoad(ctx, "main", true)
	require.NoError(t, err)
	assert.False(t, info.Loading)
	assert.Equal(t, "/#one", info.Active)

	_, err = sess.Open(ctx, "main", OpenRequest{URL: "/slow", Loading: "none"})
	require.NoError(t, err)
	info, err = sess.CancelLoad(ctx, "main", false)
	require.NoError(t, err)
	assert.False(t, info.Loading)
	assert.Equal(t, "/#two", info.Active, "most recent page reopened")
}

func TestReloadKeepsActivePage(t *testing.T) {
	sess := startSession(t, newOrigin(t))
	ctx := context.Background()

	_, err := sess.Open(ctx, "main", OpenRequest{URL: "/more"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return active(t, sess) == "/more#more" }, 5*time.Second, 10*time.Millisecond)

	_, err = sess.Reload(ctx, "main")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		info, err := sess.Stack(ctx, "main")
		return err == nil && !info.Loading && info.Active == "/more#more"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSubscribe(t *testing.T) {
	sess := startSession(t, newOrigin(t))
	ctx := context.Background()

	var mu sync.Mutex
	var seen []string
	cancel := sess.Subscribe(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.Type+":"+e.PageID)
	})

	_, err := sess.Click(ctx, "#to-two")
	require.NoError(t, err)

	mu.Lock()
	got := strings.Join(seen, ",")
	mu.Unlock()
	assert.Contains(t, got, "close:one")
	assert.Contains(t, got, "open:two")
	assert.Contains(t, got, "opened:two")

	stats, err := sess.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Subscribers)
	assert.Equal(t, "/#two", stats.Address)

	cancel()
	_, err = sess.Navigate(ctx, "/#one")
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, got, strings.Join(seen, ","))
	mu.Unlock()
}

func TestLoaderEvents(t *testing.T) {
	sess := startSession(t, newOrigin(t))
	ctx := context.Background()

	events := make(chan Event, 16)
	defer sess.Subscribe(func(e Event) {
		if e.Type == EventLoader {
			events <- e
		}
	})()

	_, err := sess.Open(ctx, "main", OpenRequest{URL: "/slow"})
	require.NoError(t, err)
	e := next(t, events)
	assert.Equal(t, "main", e.Stack)
	assert.True(t, e.Loading)

	_, err = sess.CancelLoad(ctx, "main", true)
	require.NoError(t, err)
	assert.False(t, next(t, events).Loading)
}

func next(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("no event")
		return Event{}
	}
}
