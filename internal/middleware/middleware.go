package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/alexandria/internal/handlers"
	"github.com/akolanti/alexandria/internal/metrics"
	"github.com/akolanti/alexandria/internal/session"
	"github.com/akolanti/alexandria/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
	id           string
}

var identifier session.Identifier

// InitAuth sets the session lookup every wrapped handler authenticates with.
func InitAuth(id session.Identifier) {
	identifier = id
}

var GetStatusHandler = Wrap(handlers.GetStatusHandler)
var UploadDocumentHandler = Wrap(handlers.UploadDocumentHandler)
var UpdateDocumentHandler = Wrap(handlers.UpdateDocumentHandler)
var DeleteDocumentHandler = Wrap(handlers.DeleteDocumentHandler)
var ChatWithDocumentHandler = Wrap(handlers.ChatWithDocumentHandler)
var ChatHandler = Wrap(handlers.ChatHandler)
var SearchDocumentsHandler = Wrap(handlers.SearchDocumentsHandler)

func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK} //metrics
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if !re.badRequest.isBadRequest {
			next(rec, re.req)
		}

		metrics.HttpRequestsTotal.WithLabelValues(routePattern(r), strconv.Itoa(rec.Status)).Inc() //metrics
	}
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re.logger.Debug("New request received", "method", re.req.Method, "path", re.req.URL.Path)

	for _, step := range []func(requestResponseStruct) requestResponseStruct{injectTrace, rateLimiter, authenticate} {
		re = step(re)
		if re.badRequest.isBadRequest {
			handleBadRequest(re)
			return re
		}
	}
	return re
}

// routePattern keeps metric labels bounded by using the chi route instead of the raw path.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
