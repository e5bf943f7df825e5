package middleware

import (
	"net"
	"net/http"

	"github.com/akolanti/alexandria/internal/adapter/utils"
	"github.com/akolanti/alexandria/internal/config"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/handlers"
	"github.com/akolanti/alexandria/internal/session"
	"github.com/akolanti/alexandria/pkg/logger_i"
)

func injectTrace(re requestResponseStruct) requestResponseStruct {
	req := re.req
	if req == nil {
		//this is a bad request
		re.badRequest.httpCode = http.StatusBadRequest
		re.badRequest.errorMessage = "request is empty"
		re.badRequest.isBadRequest = true
		return re
	}
	trace := req.Header.Get("X-Trace-Id")
	if trace == "" {
		trace = utils.GetNewUUID()
	}
	re.logger = re.logger.With(config.TRACE_ID_KEY, trace)
	re.writer.Header().Set("X-Trace-Id", trace)
	re.req = req.WithContext(logger_i.WithTrace(req.Context(), trace))

	re.logger.Debug("trace middleware injected")
	return re
}

// authenticate resolves the session cookie to the caller's email and stores it on the request.
func authenticate(re requestResponseStruct) requestResponseStruct {
	if identifier == nil {
		re.badRequest = failureStruct{isBadRequest: true, httpCode: http.StatusInternalServerError, errorMessage: "authentication is not configured"}
		return re
	}

	token := ""
	if cookie, err := re.req.Cookie(config.SessionCookieName); err == nil {
		token = cookie.Value
	}
	email, err := identifier.Identify(re.req.Context(), token)
	if err != nil {
		re.logger.Warn("authentication failed", "kind", ragError.KindOf(err), "error", err)
		status := ragError.HTTPStatus(err)
		message := "Unauthorized"
		if status != http.StatusUnauthorized {
			message = "session service unavailable"
		}
		re.badRequest = failureStruct{isBadRequest: true, httpCode: status, errorMessage: message}
		return re
	}

	re.logger = re.logger.With(config.USER_EMAIL_KEY, email)
	re.req = re.req.WithContext(session.WithEmail(re.req.Context(), email))
	re.logger.Debug("Authorized")
	return re
}

func rateLimiter(re requestResponseStruct) requestResponseStruct {
	ip, _, err := net.SplitHostPort(re.req.RemoteAddr)
	if err != nil {
		ip = re.req.RemoteAddr
	}

	if !limiterInstance.GetLimiter(ip).Allow() {
		re.logger.Warn("Too many requests", "ip", ip)
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusTooManyRequests,
			errorMessage: "Rate limit exceeded, slow down",
		}
		return re
	}
	return re
}

func handleBadRequest(re requestResponseStruct) {
	re.logger.Warn("Bad request", "httpCode", re.badRequest.httpCode, "errorMessage", re.badRequest.errorMessage, "IP", re.req.RemoteAddr)
	handlers.WriteErrorResponse(re.writer, re.badRequest.httpCode, re.badRequest.id, re.badRequest.errorMessage)
}
