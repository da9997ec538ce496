package apptest

import (
	"strconv"
	"testing"
)

// Env provides a chainable builder for setting [app.BaseEnvironment] env vars
// via t.Setenv. Create one with [SetBaseEnv].
type Env struct {
	t testing.TB
}

// SetBaseEnv sets all [app.BaseEnvironment] env vars to sensible test defaults.
// Port is required because each test must use a unique port to avoid collisions.
//
// Defaults:
//   - BAPI_SERVICE_NAME: "test"
//   - BAPI_READINESS_CHECK_PATH: "/health"
//   - BAPI_OTEL_EXPORTER: "none"
//   - BAPI_REPORT_QUEUE_URL: ""
//   - AWS_REGION: "us-east-1"
//   - AWS_ACCESS_KEY_ID: "test"
//   - AWS_SECRET_ACCESS_KEY: "test"
//
// Use the returned [Env] to override individual values:
//
//	apptest.SetBaseEnv(t, 18085).ServiceName("inventory").StrictParams()
func SetBaseEnv(t testing.TB, port int) *Env {
	t.Helper()
	t.Setenv("BAPI_PORT", strconv.Itoa(port))
	t.Setenv("BAPI_SERVICE_NAME", "test")
	t.Setenv("BAPI_READINESS_CHECK_PATH", "/health")
	t.Setenv("BAPI_OTEL_EXPORTER", "none")
	t.Setenv("BAPI_REPORT_QUEUE_URL", "")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	return &Env{t: t}
}

// ServiceName overrides BAPI_SERVICE_NAME.
func (e *Env) ServiceName(name string) *Env {
	e.t.Helper()
	e.t.Setenv("BAPI_SERVICE_NAME", name)
	return e
}

// ReadinessCheckPath overrides BAPI_READINESS_CHECK_PATH.
func (e *Env) ReadinessCheckPath(path string) *Env {
	e.t.Helper()
	e.t.Setenv("BAPI_READINESS_CHECK_PATH", path)
	return e
}

// ReportQueueURL overrides BAPI_REPORT_QUEUE_URL.
func (e *Env) ReportQueueURL(url string) *Env {
	e.t.Helper()
	e.t.Setenv("BAPI_REPORT_QUEUE_URL", url)
	return e
}

// StrictParams sets BAPI_STRICT_PARAMS.
func (e *Env) StrictParams() *Env {
	e.t.Helper()
	e.t.Setenv("BAPI_STRICT_PARAMS", "true")
	return e
}
