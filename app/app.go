// Package app runs the Tk front end of the recorder.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tk "modernc.org/tk9.0"

	"github.com/soocke/productivity-recorder/config"
	"github.com/soocke/productivity-recorder/domain/session"
	"github.com/soocke/productivity-recorder/ui/presenter"
	"github.com/soocke/productivity-recorder/ui/theme"
	"github.com/soocke/productivity-recorder/ui/view"
)

// closeTimeout bounds how long Exit waits for encoders to finalize.
const closeTimeout = 15 * time.Second

// App is the Tk window around a session controller. Tk calls must stay on
// the goroutine that calls Run.
type App struct {
	ctx     context.Context
	cfg     *config.Config
	logger  *slog.Logger
	ctrl    *session.Controller
	c       *Container
	tick    time.Duration
	afterID string
	exiting bool
}

// New builds the window and its container. cfgPath is where the settings
// panel saves; empty disables saving.
func New(title string, width, height int, cfg *config.Config, cfgPath string, ctrl *session.Controller, logger *slog.Logger) *App {
	a := &App{
		cfg:    cfg,
		logger: logger,
		ctrl:   ctrl,
		tick:   cfg.Refresh(),
		c:      BuildContainer(cfg, cfgPath, ctrl, logger),
	}
	tk.App.WmTitle(title)
	tk.WmProtocol(tk.App, "WM_DELETE_WINDOW", a.exit)
	tk.WmGeometry(tk.App, fmt.Sprintf("%dx%d+100+100", width, height))
	return a
}

// Run shows the window and blocks until it is closed or ctx ends. A running
// session is stopped and finalized before Run returns.
func (a *App) Run(ctx context.Context) error {
	a.ctx = ctx
	theme.InitStyles()
	rec := a.c.RecorderPresenter
	a.c.RootView.Build(view.Handlers{
		Start:    rec.Start,
		Pause:    rec.Pause,
		Resume:   rec.Resume,
		Stop:     rec.Stop,
		Exit:     a.exit,
		OnConfig: a.ctrl.UpdateConfig,
	})
	a.c.Loop = presenter.NewLoop(a.c.StatePresenter, a.c.SessionPresenter, rec, a.c.PreviewPresenter, a.schedule)
	a.schedule()
	tk.App.Wait()
	a.c.PreviewPresenter.Close()
	return a.closeController()
}

// schedule queues the next presenter tick on Tk's event loop thread.
func (a *App) schedule() {
	if a.exiting {
		return
	}
	if a.ctx != nil && a.ctx.Err() != nil {
		a.exit()
		return
	}
	a.afterID = tk.TclAfter(a.tick, func() { a.c.Loop.Tick() })
}

func (a *App) exit() {
	if a.exiting {
		return
	}
	a.exiting = true
	if a.afterID != "" {
		tk.TclAfterCancel(a.afterID)
	}
	tk.Destroy(tk.App)
}

func (a *App) closeController() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := a.ctrl.Close(ctx); err != nil {
		if a.logger != nil {
			a.logger.Error("shutdown", "error", err)
		}
		return err
	}
	return nil
}
