// Package lambdafn adapts the CSV handler to AWS Lambda behind an API Gateway
// proxy integration.
package lambdafn

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"csv-proxy-go/internal/handler"
	"csv-proxy-go/internal/model"
)

// Function is the Lambda entry point. It never returns an error to the
// runtime; every outcome becomes an APIGatewayProxyResponse.
type Function struct {
	csv    *handler.CSVHandler
	logger *slog.Logger
}

// New creates a Function.
func New(csv *handler.CSVHandler, logger *slog.Logger) *Function {
	return &Function{
		csv:    csv,
		logger: logger.With("component", "lambda"),
	}
}

// Handle serves one API Gateway invocation. The request is only logged.
func (f *Function) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	attrs := []any{"method", req.HTTPMethod, "path", req.Path}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		attrs = append(attrs, "aws_request_id", lc.AwsRequestID)
	}
	f.logger.Debug("invocation", attrs...)

	return toProxyResponse(f.csv.Reply(ctx)), nil
}

// toProxyResponse converts a Reply. A reply without headers yields a
// response with a nil Headers map. Bodies that are not valid UTF-8 are
// base64 encoded so API Gateway returns them byte for byte.
func toProxyResponse(r *model.Reply) events.APIGatewayProxyResponse {
	resp := events.APIGatewayProxyResponse{StatusCode: r.StatusCode}

	if len(r.Header) > 0 {
		resp.Headers = make(map[string]string, len(r.Header))
		for key, vals := range r.Header {
			resp.Headers[key] = strings.Join(vals, ", ")
		}
	}

	if utf8.Valid(r.Body) {
		resp.Body = string(r.Body)
	} else {
		resp.Body = base64.StdEncoding.EncodeToString(r.Body)
		resp.IsBase64Encoded = true
	}

	return resp
}
