package app

import (
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Environment defines the interface that all environment configurations must implement.
// Embed BaseEnvironment in your struct to satisfy this interface.
type Environment interface {
	port() int
	serviceName() string
	apiVersion() string
	openapiVersion() string
	readinessCheckPath() string
	logLevel() zapcore.Level
	otelExporter() string
	reportQueueURL() string
	strictParams() bool
	bufferLimit() int
	awsRegion() string
}

// BaseEnvironment contains the environment variables every api reads.
// Embed this in your custom environment struct.
type BaseEnvironment struct {
	Port int `env:"BAPI_PORT" envDefault:"8080"`
	// ServiceName is the title of the api and the name of the traced service.
	ServiceName        string        `env:"BAPI_SERVICE_NAME,required,notEmpty"`
	APIVersion         string        `env:"BAPI_API_VERSION" envDefault:"0.0.1"`
	OpenAPIVersion     string        `env:"BAPI_OPENAPI_VERSION" envDefault:"3.0.2"`
	ReadinessCheckPath string        `env:"BAPI_READINESS_CHECK_PATH" envDefault:"/health"`
	LogLevel           zapcore.Level `env:"BAPI_LOG_LEVEL" envDefault:"info"`
	OtelExporter       string        `env:"BAPI_OTEL_EXPORTER" envDefault:"stdout"`
	// ReportQueueURL is the SQS queue internal failures are reported to. Failures are only
	// logged when it is empty.
	ReportQueueURL string `env:"BAPI_REPORT_QUEUE_URL"`
	StrictParams   bool   `env:"BAPI_STRICT_PARAMS" envDefault:"false"`
	BufferLimit    int    `env:"BAPI_BUFFER_LIMIT" envDefault:"-1"`
	AWSRegion      string `env:"AWS_REGION"`
}

func (e BaseEnvironment) port() int {
	return e.Port
}

func (e BaseEnvironment) serviceName() string {
	return e.ServiceName
}

func (e BaseEnvironment) apiVersion() string {
	return e.APIVersion
}

func (e BaseEnvironment) openapiVersion() string {
	return e.OpenAPIVersion
}

func (e BaseEnvironment) readinessCheckPath() string {
	return e.ReadinessCheckPath
}

func (e BaseEnvironment) logLevel() zapcore.Level {
	return e.LogLevel
}

func (e BaseEnvironment) otelExporter() string {
	return e.OtelExporter
}

func (e BaseEnvironment) reportQueueURL() string {
	return e.ReportQueueURL
}

func (e BaseEnvironment) strictParams() bool {
	return e.StrictParams
}

func (e BaseEnvironment) bufferLimit() int {
	return e.BufferLimit
}

func (e BaseEnvironment) awsRegion() string {
	return e.AWSRegion
}

var _ Environment = BaseEnvironment{}

// ParseEnv parses environment variables into the given Environment type.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if err := env.Parse(&e); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}
		return e, nil
	}
}
