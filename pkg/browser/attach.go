package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/autorecord/pkg/autorecord"
	"github.com/entrhq/autorecord/pkg/handshake"
	"github.com/entrhq/autorecord/pkg/logging"
)

// Attachment is an orchestrator bound to one loaded document.
type Attachment struct {
	Document     *Document
	Orchestrator autorecord.Orchestrator

	page   playwright.Page
	cancel context.CancelFunc
}

// Attacher binds orchestrators to the documents of a browser context.
type Attacher struct {
	opts   autorecord.Options
	logger *logging.Logger
	token  string

	mu       sync.Mutex
	ctx      context.Context
	envs     map[playwright.Page]*autorecord.Env
	attached map[playwright.Frame]*Attachment
	onAttach func(*Attachment)
}

// NewAttacher creates an attacher. Each page gets its own engine environment
// with a sessionStorage flag store in place of opts.Flags.
func NewAttacher(opts autorecord.Options) *Attacher {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Attacher{
		opts:     opts,
		logger:   logger.With("attacher"),
		token:    uuid.NewString(),
		ctx:      context.Background(),
		envs:     make(map[playwright.Page]*autorecord.Env),
		attached: make(map[playwright.Frame]*Attachment),
	}
}

// OnAttach registers fn to be called for every new attachment.
func (a *Attacher) OnAttach(fn func(*Attachment)) {
	a.mu.Lock()
	a.onAttach = fn
	a.mu.Unlock()
}

// Install injects the init script and bindings into bctx and starts
// following its pages. Orchestrators stop when ctx is cancelled.
func (a *Attacher) Install(ctx context.Context, bctx playwright.BrowserContext) error {
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()

	if err := bctx.ExposeBinding(mutationBinding, a.onMutation); err != nil {
		return fmt.Errorf("expose %s: %w", mutationBinding, err)
	}
	if err := bctx.ExposeBinding(messageBinding, a.onMessage); err != nil {
		return fmt.Errorf("expose %s: %w", messageBinding, err)
	}
	if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(initScript(a.token))}); err != nil {
		return fmt.Errorf("add init script: %w", err)
	}

	bctx.OnPage(a.follow)
	for _, page := range bctx.Pages() {
		a.follow(page)
	}

	go func() {
		<-ctx.Done()
		a.Close()
	}()
	return nil
}

// Reload swaps the engine options. Documents loaded from now on use them;
// running orchestrators keep theirs.
func (a *Attacher) Reload(opts autorecord.Options) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.opts = opts
	a.envs = make(map[playwright.Page]*autorecord.Env)
}

// Attachments returns the current attachments.
func (a *Attacher) Attachments() []*Attachment {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]*Attachment, 0, len(a.attached))
	for _, att := range a.attached {
		out = append(out, att)
	}
	return out
}

// Close stops every orchestrator.
func (a *Attacher) Close() {
	a.mu.Lock()
	atts := a.attached
	a.attached = make(map[playwright.Frame]*Attachment)
	a.envs = make(map[playwright.Page]*autorecord.Env)
	a.mu.Unlock()

	for _, att := range atts {
		att.cancel()
	}
}

// Playwright delivers events on its dispatch goroutine; anything that calls
// back into the driver must run elsewhere.
func (a *Attacher) follow(page playwright.Page) {
	page.OnFrameNavigated(func(f playwright.Frame) { go a.attach(f) })
	page.OnFrameDetached(func(f playwright.Frame) { a.detach(f) })
	page.OnClose(func(p playwright.Page) { a.dropPage(p) })
	for _, f := range page.Frames() {
		go a.attach(f)
	}
}

func (a *Attacher) envFor(page playwright.Page) (*autorecord.Env, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if env, ok := a.envs[page]; ok {
		return env, nil
	}
	opts := a.opts
	opts.Flags = NewSessionStorageFlags(page.MainFrame())
	env, err := autorecord.NewEnv(opts)
	if err != nil {
		return nil, err
	}
	a.envs[page] = env
	return env, nil
}

func (a *Attacher) portFor(env *autorecord.Env, frame playwright.Frame) handshake.Port {
	switch env.Classify(frame.URL()) {
	case autorecord.CalendarHostContext:
		return NewChildPort(frame, env.Options().Selectors.SettingsFrame)
	case autorecord.SettingsFrameContext:
		return NewParentPort(frame)
	}
	return nil
}

func (a *Attacher) attach(frame playwright.Frame) {
	if frame.IsDetached() {
		return
	}
	page := frame.Page()
	env, err := a.envFor(page)
	if err != nil {
		a.logger.Errorf("engine setup failed: %v", err)
		return
	}
	if env.Classify(frame.URL()) == autorecord.Unknown {
		a.detach(frame)
		return
	}

	doc, err := newDocument(frame)
	if err != nil {
		a.logger.Debugf("skipping %s: %v", frame.URL(), err)
		return
	}

	a.mu.Lock()
	if cur, ok := a.attached[frame]; ok && cur.Document.ID() == doc.ID() {
		a.mu.Unlock()
		return
	}
	orch, err := env.For(doc, a.portFor(env, frame))
	if err != nil {
		a.mu.Unlock()
		a.logger.Debugf("no orchestrator for %s: %v", doc.URL(), err)
		return
	}
	ctx, cancel := context.WithCancel(a.ctx)
	att := &Attachment{Document: doc, Orchestrator: orch, page: page, cancel: cancel}
	prev := a.attached[frame]
	a.attached[frame] = att
	hook := a.onAttach
	a.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
	a.logger.Infof("attached %s orchestrator to %s", orch.Context(), doc.URL())
	if hook != nil {
		hook(att)
	}
	if err := orch.Start(ctx); err != nil {
		a.logger.Warnf("%s orchestrator failed to start: %v", orch.Context(), err)
	}
}

func (a *Attacher) detach(frame playwright.Frame) {
	a.mu.Lock()
	att, ok := a.attached[frame]
	delete(a.attached, frame)
	a.mu.Unlock()

	if ok {
		att.cancel()
	}
}

func (a *Attacher) dropPage(page playwright.Page) {
	a.mu.Lock()
	var gone []*Attachment
	for frame, att := range a.attached {
		if att.page == page {
			gone = append(gone, att)
			delete(a.attached, frame)
		}
	}
	delete(a.envs, page)
	a.mu.Unlock()

	for _, att := range gone {
		att.cancel()
	}
}

func (a *Attacher) lookup(frame playwright.Frame) *Attachment {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attached[frame]
}

func (a *Attacher) onMutation(source *playwright.BindingSource, args ...any) any {
	if att := a.lookup(source.Frame); att != nil {
		go att.Document.notify()
	}
	return nil
}

func (a *Attacher) onMessage(source *playwright.BindingSource, args ...any) any {
	env, ok := envelopeFromBinding(args, a.token)
	if !ok {
		a.logger.Debugf("dropped message without install token from %s", source.Frame.URL())
		return nil
	}
	att := a.lookup(source.Frame)
	if att == nil {
		return nil
	}
	go func() {
		if err := att.Orchestrator.HandleMessage(env); err != nil {
			a.logger.Debugf("%s message %s from %s: %v", att.Orchestrator.Context(), env.Message.Type, env.Origin, err)
		}
	}()
	return nil
}
