package app

import (
	"log/slog"

	"github.com/soocke/productivity-recorder/config"
	"github.com/soocke/productivity-recorder/domain/session"
	"github.com/soocke/productivity-recorder/ui/model"
	"github.com/soocke/productivity-recorder/ui/presenter"
	"github.com/soocke/productivity-recorder/ui/view"
)

// Container assembles models, presenters and the root view around one
// session controller.
type Container struct {
	Config     *config.Config
	Logger     *slog.Logger
	Controller *session.Controller
	State      *model.StateModel
	Session    *model.SessionModel
	Preview    *model.PreviewModel
	RootView   *view.RootView

	// Presenters
	StatePresenter    *presenter.StatePresenter
	SessionPresenter  *presenter.SessionPresenter
	RecorderPresenter *presenter.RecorderPresenter
	PreviewPresenter  *presenter.PreviewPresenter
	Loop              *presenter.Loop
}

// BuildContainer constructs all components and registers the presenters as
// controller listeners. Widgets are created later by RootView.Build.
func BuildContainer(cfg *config.Config, cfgPath string, ctrl *session.Controller, logger *slog.Logger) *Container {
	c := &Container{Config: cfg, Logger: logger, Controller: ctrl}
	c.State = &model.StateModel{}
	c.Session = model.NewSessionModel()
	c.Preview = &model.PreviewModel{}
	c.RootView = view.NewRootView(cfg, cfgPath, logger)

	c.StatePresenter = presenter.NewStatePresenter(c.State, c.RootView)
	c.SessionPresenter = presenter.NewSessionPresenter(c.Session, c.State, ctrl, c.RootView)
	c.RecorderPresenter = presenter.NewRecorderPresenter(ctrl, c.RootView, logger)
	w, h := view.PreviewSize()
	c.PreviewPresenter = presenter.NewPreviewPresenter(ctrl, c.State, c.Preview, c.RootView, session.StreamScreen, w, h)

	ctrl.AddStateListener(c.StatePresenter.OnState)
	ctrl.AddOutcomeListener(c.RecorderPresenter.OnOutcome)
	return c
}
