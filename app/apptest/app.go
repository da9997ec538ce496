// Package apptest provides test helpers for app applications.
//
// It constructs the identical DI graph as [app.NewApp] but uses
// [fxtest.App] which fails the test immediately on DI errors.
//
// Example:
//
//	apptest.SetBaseEnv(t, 18081)
//	a := apptest.New[app.BaseEnvironment](t, routing)
//	a.RequireStart()
//	t.Cleanup(a.RequireStop)
package apptest

import (
	"testing"

	"github.com/advdv/bapi/app"
	"go.uber.org/fx/fxtest"
)

// App embeds *fxtest.App for testing app applications.
type App struct {
	*fxtest.App
}

// New creates a test app with the same DI graph as [app.NewApp].
func New[E app.Environment](t testing.TB, routing any, opts ...app.Option) *App {
	return &App{App: fxtest.New(t, app.FxOptions[E](routing, opts...)...)}
}
