package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"csv-proxy-go/internal/config"
	"csv-proxy-go/internal/model"
	"csv-proxy-go/internal/service"
)

// Client-facing error messages. Transport detail stays in the log.
const (
	msgSourceURLMissing = "Server configuration error: Data source URL missing."
	msgUpstreamStatus   = "Failed to fetch data from source: "
	msgRetrievalFailed  = "Internal server error during data retrieval."
)

// CSVHandler relays the configured CSV source to the caller.
type CSVHandler struct {
	service *service.CSVService
	logger  *slog.Logger
}

// NewCSVHandler creates a CSVHandler.
func NewCSVHandler(svc *service.CSVService, logger *slog.Logger) *CSVHandler {
	return &CSVHandler{
		service: svc,
		logger:  logger.With("component", "csv_handler"),
	}
}

// Reply fetches the source and builds the response for one invocation.
// It never fails: every outcome is turned into a Reply.
func (h *CSVHandler) Reply(ctx context.Context) *model.Reply {
	body, err := h.service.Fetch(ctx)
	if err != nil {
		return h.mapError(err)
	}

	return &model.Reply{
		StatusCode: http.StatusOK,
		Header: http.Header{
			echo.HeaderContentType:              {echo.MIMETextPlain},
			echo.HeaderAccessControlAllowOrigin: {"*"},
		},
		Body: body,
	}
}

// Handle serves the CSV proxy over Echo. The request method, headers and
// body are not inspected.
func (h *CSVHandler) Handle(c echo.Context) error {
	r := h.Reply(c.Request().Context())

	res := c.Response()
	for key, vals := range r.Header {
		res.Header()[key] = vals
	}
	if _, ok := r.Header[echo.HeaderContentType]; !ok {
		// A nil entry stops net/http from sniffing a Content-Type.
		res.Header()[echo.HeaderContentType] = nil
	}

	res.WriteHeader(r.StatusCode)
	if _, err := res.Write(r.Body); err != nil {
		h.logger.Error("writing response body",
			"err", err,
			"status", r.StatusCode,
		)
	}

	return nil
}

func (h *CSVHandler) mapError(err error) *model.Reply {
	if errors.Is(err, service.ErrSourceURLMissing) {
		h.logger.Error(config.SourceURLEnv + " environment variable is not set")
		return errorReply(http.StatusInternalServerError, msgSourceURLMissing)
	}

	var se *service.UpstreamStatusError
	if errors.As(err, &se) {
		h.logger.Error("error fetching data",
			"status", se.StatusCode,
			"status_text", se.StatusText,
		)
		return errorReply(replyStatus(se.StatusCode), msgUpstreamStatus+se.StatusText)
	}

	h.logger.Error("data retrieval failed", "err", h.sanitizeError(err))
	return errorReply(http.StatusInternalServerError, msgRetrievalFailed)
}

// replyStatus passes the upstream status through unless HTTP forbids a body
// with it (1xx, 204, 304). Those become 502 so the JSON error still reaches
// the client.
func replyStatus(code int) int {
	switch {
	case code >= 100 && code < 200, code == http.StatusNoContent, code == http.StatusNotModified:
		return http.StatusBadGateway
	default:
		return code
	}
}

// sanitizeError redacts the secret source URL from error messages.
// net/http quotes the URL it failed on inside *url.Error.
func (h *CSVHandler) sanitizeError(err error) string {
	msg := err.Error()
	if u := h.service.SourceURL(); u != "" {
		msg = strings.ReplaceAll(msg, u, "[REDACTED]")
	}
	return msg
}

// errorReply builds a JSON {"error": msg} reply with no headers.
// Upstream status text is copied verbatim, so HTML escaping is off.
func errorReply(code int, msg string) *model.Reply {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(struct {
		Error string `json:"error"`
	}{msg})

	return &model.Reply{
		StatusCode: code,
		Body:       bytes.TrimSuffix(buf.Bytes(), []byte("\n")),
	}
}
