package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/advdv/bapi"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"
)

// Report is the message an internal failure is sent to the report queue as.
type Report struct {
	Service string    `json:"service"`
	Error   string    `json:"error"`
	TraceID string    `json:"trace_id,omitempty"`
	Time    time.Time `json:"time"`
}

// LogReporter logs internal failures, correlated with the trace of the request.
func LogReporter(logs *zap.Logger) bapi.Reporter {
	return func(ctx context.Context, rt *bapi.Router, err error) {
		logs.With(traceFields(ctx)...).Error("internal failure reported",
			zap.String("api", rt.Title()),
			zap.Error(err))
	}
}

// SQSReporter sends internal failures to an SQS queue. Reporting is best effort: a failed
// send is logged and otherwise ignored.
func SQSReporter(client SQSAPI, queueURL string, logs *zap.Logger) bapi.Reporter {
	return func(ctx context.Context, rt *bapi.Router, err error) {
		report := Report{Service: rt.Title(), Error: err.Error(), Time: time.Now().UTC()}
		if sc := Span(ctx).SpanContext(); sc.IsValid() {
			report.TraceID = sc.TraceID().String()
		}

		body, merr := json.Marshal(report)
		if merr != nil {
			logs.Error("failed to encode failure report", zap.Error(merr))
			return
		}

		if _, serr := client.SendMessage(ctx, &sqs.SendMessageInput{
			QueueUrl:    aws.String(queueURL),
			MessageBody: aws.String(string(body)),
		}); serr != nil {
			logs.Error("failed to send failure report", zap.String("queue_url", queueURL), zap.Error(serr))
		}
	}
}
