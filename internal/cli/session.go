package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/ledforge/internal/action"
	"github.com/roach88/ledforge/internal/config"
	"github.com/roach88/ledforge/internal/editor"
	"github.com/roach88/ledforge/internal/pixel"
	"github.com/roach88/ledforge/internal/store"
)

// loadConfig reads the explicit config file, or ./ledforge.yaml when it
// exists, and applies the --db override.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadOrDefault(config.DefaultFileName)
	}
	if err != nil {
		return nil, err
	}
	if opts.DB != "" {
		cfg.Store.Path = opts.DB
	}
	return cfg, nil
}

// session is the config and open store a command works against.
type session struct {
	cfg   *config.Config
	store *store.Store
}

// openSession loads config and opens the store, reporting failures through
// the formatter.
func openSession(opts *RootOptions, f *OutputFormatter) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	f.VerboseLog("opening database %s", cfg.Store.Path)
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("opening database: %v", err), nil)
	}
	return &session{cfg: cfg, store: st}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// engine builds an action engine honoring actions.lenient_kinds.
func (s *session) engine() *action.Engine {
	var opts []action.EngineOption
	if s.cfg.Actions.LenientKinds {
		opts = append(opts, action.WithLenientKinds())
	}
	return action.NewEngine(opts...)
}

// editorOptions are the config-derived options every command's editor
// starts from.
func (s *session) editorOptions() []editor.Option {
	return []editor.Option{
		editor.WithMaxHistory(s.cfg.History.Max),
		editor.WithActionEngine(s.engine()),
	}
}

// editor wraps p in an editor configured from the session.
func (s *session) editor(p *pixel.Pattern, extra ...editor.Option) (*editor.Editor, error) {
	return editor.New(p, append(s.editorOptions(), extra...)...)
}

// load reads a pattern, mapping a missing name to ErrCodeNotFound.
func (s *session) load(ctx context.Context, f *OutputFormatter, name string) (*pixel.Pattern, error) {
	p, err := s.store.LoadPattern(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("pattern %q not found", name), nil)
	}
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	return p, nil
}

// save writes p under name and reports store failures.
func (s *session) save(ctx context.Context, f *OutputFormatter, name string, p *pixel.Pattern) (store.PatternInfo, error) {
	info, err := s.store.SavePattern(ctx, name, p)
	if err != nil {
		return store.PatternInfo{}, f.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	return info, nil
}

func commandContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
