package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/pagestack/internal/loop"
	"github.com/GriffinCanCode/pagestack/internal/markup"
	"github.com/GriffinCanCode/pagestack/internal/motion"
	"github.com/GriffinCanCode/pagestack/internal/shared/id"
	"github.com/GriffinCanCode/pagestack/internal/stack"
	"github.com/GriffinCanCode/pagestack/internal/transport"
	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

var (
	ErrNotStarted     = errors.New("session not started")
	ErrAlreadyStarted = errors.New("session already started")
	ErrUnknownStack   = errors.New("unknown stack")
	ErrNoElement      = errors.New("no element matches selector")
)

// Client loads the entry document and page content
type Client interface {
	stack.Fetcher
	Get(ctx context.Context, url string) (*transport.Page, error)
}

// Config describes what a session loads
type Config struct {
	// Entry is the address the session starts at, relative to the client origin
	Entry string
	// Stacks are created in order; none means a single stack on body
	Stacks []stack.Options
	// Sanitize filters loaded page content through markup.PagePolicy
	Sanitize bool
}

// Session hosts one live document with its stacks. Every operation is
// serialized onto the session loop.
type Session struct {
	id      id.SessionID
	cfg     Config
	client  Client
	logger  *zap.Logger
	metrics stack.Recorder
	ids     *id.Generator

	loop     *loop.Loop
	address  *stack.MemoryAddress
	registry *stack.Registry
	document *html.Node
	parser   *markup.Parser
	motions  *motion.Registry

	mu          sync.Mutex
	started     bool
	startedAt   time.Time
	cancel      context.CancelFunc
	done        chan struct{}
	subscribers map[uint64]func(Event)
	nextSub     uint64
	operations  uint64
}

// Option customizes a Session
type Option func(*Session)

// WithLogger sets the session logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder reports navigation metrics to rec
func WithRecorder(rec stack.Recorder) Option {
	return func(s *Session) {
		s.metrics = rec
	}
}

// WithMotions replaces the motion lookup table
func WithMotions(motions *motion.Registry) Option {
	return func(s *Session) {
		if motions != nil {
			s.motions = motions
		}
	}
}

// New creates a session. Start loads the document.
func New(cfg Config, client Client, opts ...Option) (*Session, error) {
	if client == nil {
		return nil, fmt.Errorf("session client is required")
	}
	if cfg.Entry == "" {
		cfg.Entry = "/"
	}
	if len(cfg.Stacks) == 0 {
		cfg.Stacks = []stack.Options{{Container: "body", History: true}}
	}

	s := &Session{
		id:          id.NewSessionID(),
		cfg:         cfg,
		client:      client,
		logger:      zap.NewNop(),
		ids:         id.Default(),
		motions:     motion.NewRegistry(),
		subscribers: make(map[uint64]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session", s.id.String()))

	var parserOpts []markup.Option
	if cfg.Sanitize {
		parserOpts = append(parserOpts, markup.WithSanitizer(markup.PagePolicy()))
	}
	s.parser = markup.NewParser(parserOpts...)
	s.loop = loop.New(s.logger.Named("loop"))
	s.address = stack.NewMemoryAddress(cfg.Entry)
	return s, nil
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id.String()
}

// Start fetches the entry document, creates the stacks and waits until
// they are initialized. The session runs until ctx ends or Close.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	page, err := s.client.Get(ctx, s.cfg.Entry)
	if err != nil {
		return fmt.Errorf("fetch entry document: %w", err)
	}
	doc, err := htmlquery.Parse(strings.NewReader(page.Body))
	if err != nil {
		return fmt.Errorf("parse entry document: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.loop.Run(runCtx)
	}()

	s.mu.Lock()
	s.document = doc
	s.cancel = cancel
	s.done = done
	s.startedAt = time.Now()
	s.mu.Unlock()

	var buildErr error
	if err := s.loop.Call(ctx, func() { buildErr = s.build(runCtx) }); err != nil {
		s.Close()
		return err
	}
	if buildErr != nil {
		s.Close()
		return buildErr
	}
	if err := s.settle(ctx); err != nil {
		s.Close()
		return err
	}

	s.logger.Info("Session started",
		zap.String("entry", page.URL),
		zap.String("charset", page.Charset),
		zap.Int("stacks", len(s.cfg.Stacks)))
	return nil
}

// build runs on the loop
func (s *Session) build(ctx context.Context) error {
	s.registry = stack.NewRegistry(s.address,
		stack.WithLogger(s.logger.Named("registry")),
		stack.WithRecorder(s.metrics))
	stack.NewClassRenderer(s.registry, stack.DefaultClasses())
	s.registry.Observe(s.pageEvent)
	s.registry.WatchLoader(s.loaderEvent)

	deps := stack.Deps{
		Document:  s.document,
		Registry:  s.registry,
		Scheduler: s.loop,
		Fetcher:   s.client,
		Motions:   s.motions,
		Parser:    s.parser,
		Logger:    s.logger,
		Metrics:   s.metrics,
		IDs:       s.ids,
		Context:   ctx,
	}
	for i, opts := range s.cfg.Stacks {
		if _, err := stack.New(deps, opts); err != nil {
			return fmt.Errorf("stack %d: %w", i, err)
		}
	}
	return nil
}

// settle waits for nested stacks, whose initialization follows their parent
func (s *Session) settle(ctx context.Context) error {
	for range len(s.cfg.Stacks) + 1 {
		ready := true
		err := s.loop.Call(ctx, func() {
			for _, st := range s.registry.Stacks() {
				ready = ready && st.Initialized()
			}
		})
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
	}
	return nil
}

// Close stops the loop and detaches from the address
func (s *Session) Close() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-done
	if s.registry != nil {
		s.registry.Close()
	}
	s.logger.Info("Session closed")
}

// call runs fn on the loop once the session is started
func (s *Session) call(ctx context.Context, fn func()) error {
	s.mu.Lock()
	running := s.cancel != nil
	s.operations++
	s.mu.Unlock()
	if !running {
		return ErrNotStarted
	}
	return s.loop.Call(ctx, fn)
}

func (s *Session) stack(stackID string) (*stack.Stack, error) {
	st, ok := s.registry.Get(stackID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStack, stackID)
	}
	return st, nil
}
