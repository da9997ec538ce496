// Package app runs a [bapi.Router] as a complete HTTP service.
//
// # Overview
//
// app handles the boilerplate around an api: environment parsing, structured logging,
// OpenTelemetry tracing, failure reporting, AWS SDK clients and graceful shutdown. A
// complete service is created in a single call:
//
//	app.NewApp[Env](func(rt *bapi.Router, h *Handlers) {
//	    bapi.Get(rt, "/items", "list_items", h.ListItems)
//	    bapi.Post(rt, "/items", "create_item", h.CreateItem)
//	},
//	    app.WithAWSClient(dynamodb.NewFromConfig),
//	    app.WithFx(fx.Provide(NewHandlers)),
//	).Run()
//
// # Environment Configuration
//
// Define your environment by embedding [BaseEnvironment]:
//
//	type Env struct {
//	    app.BaseEnvironment
//	    MainTableName string `env:"MAIN_TABLE_NAME,required"`
//	}
//
// BaseEnvironment provides the following environment variables:
//
//	| Variable                   | Required | Default | Description                                   |
//	|----------------------------|----------|---------|-----------------------------------------------|
//	| BAPI_SERVICE_NAME          | Yes      | -       | Title of the api, service name in traces      |
//	| BAPI_PORT                  | No       | 8080    | Port the HTTP server listens on               |
//	| BAPI_API_VERSION           | No       | 0.0.1   | Version of the api description                |
//	| BAPI_OPENAPI_VERSION       | No       | 3.0.2   | OpenAPI version of the api description        |
//	| BAPI_READINESS_CHECK_PATH  | No       | /health | Health check endpoint path                    |
//	| BAPI_LOG_LEVEL             | No       | info    | Log level (debug, info, warn, error)          |
//	| BAPI_OTEL_EXPORTER         | No       | stdout  | Trace exporter: stdout, xrayudp or none       |
//	| BAPI_REPORT_QUEUE_URL      | No       | -       | SQS queue internal failures are reported to   |
//	| BAPI_STRICT_PARAMS         | No       | false   | Reject requests missing a required parameter  |
//	| BAPI_BUFFER_LIMIT          | No       | -1      | Response buffer limit in bytes, -1 unlimited  |
//	| AWS_REGION                 | No       | -       | Region of the AWS clients                     |
//
// # Runtime
//
// [Runtime] provides access to app-scoped dependencies and should be injected into
// handler constructors via fx:
//
//	type Handlers struct {
//	    rt     *app.Runtime[Env]
//	    dynamo *dynamodb.Client
//	}
//
//	func (h *Handlers) GetItem(ctx context.Context, in *bapi.Input[bapi.NoBody]) (*Item, error) {
//	    self, _ := h.rt.Reverse("get_item", bapi.MustArg[string](in.Args, "id"))
//	    // ...
//	}
//
// [Runtime.NewRequest] starts an outbound request through the instrumented transport, so
// upstream calls become child spans of the request's trace.
//
// # Context
//
// Handlers receive a standard context.Context. [Log] returns a trace-correlated zap logger
// and [Span] the current OpenTelemetry span.
//
// # Failure Reporting
//
// Internal failures are always logged. When BAPI_REPORT_QUEUE_URL is set they are also sent
// to that SQS queue as a JSON [Report]. Use [WithSQSClient] to replace the client.
//
// # Testing
//
// For integration tests that need the full DI graph, use [apptest.New]:
//
//	apptest.SetBaseEnv(t, 18081)
//	a := apptest.New[Env](t, routing, app.WithAWSClient(...))
//	a.RequireStart()
//	t.Cleanup(a.RequireStop)
package app
