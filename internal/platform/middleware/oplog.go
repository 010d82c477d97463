package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/emr/emr/internal/platform/auth"
)

// OpEntry captures a single write operation against the API: who did what
// to which resource, from where, and with what outcome.
type OpEntry struct {
	UserID     string
	Username   string
	Resource   string
	Action     string
	Path       string
	Method     string
	IPAddress  string
	UserAgent  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// OpRecorder persists operation log entries. Decoupling it from the
// middleware lets tests capture entries in memory.
type OpRecorder interface {
	RecordOperation(entry OpEntry) error
}

// OpRecorderFunc adapts a function to the OpRecorder interface.
type OpRecorderFunc func(entry OpEntry) error

func (f OpRecorderFunc) RecordOperation(entry OpEntry) error {
	return f(entry)
}

// OperationLog returns middleware that records every mutating request
// (POST, PUT, PATCH, DELETE) with the authenticated user attached. Reads
// are left to the request logger. If no recorder is given, entries go to
// the structured log only.
func OperationLog(logger zerolog.Logger, recorders ...OpRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isMutatingMethod(req.Method) {
				return next(c)
			}

			err := next(c)

			entry := OpEntry{
				Path:       req.URL.Path,
				Method:     req.Method,
				Action:     methodToAction(req.Method),
				Resource:   resourceFromPath(req.URL.Path),
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				StatusCode: c.Response().Status,
				Timestamp:  time.Now().UTC(),
			}

			if identity := auth.IdentityFromContext(req.Context()); identity != nil {
				entry.UserID = identity.UserID
				entry.Username = identity.Username
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			if len(recorders) > 0 && recorders[0] != nil {
				if recErr := recorders[0].RecordOperation(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record operation entry")
				}
			}

			logger.Info().
				Str("type", "operation").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Str("username", entry.Username).
				Str("resource", entry.Resource).
				Str("action", entry.Action).
				Str("path", entry.Path).
				Int("status", entry.StatusCode).
				Str("remote_ip", entry.IPAddress).
				Msg("operation")

			return err
		}
	}
}

func isMutatingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

// resourceFromPath returns the first path segment, e.g. "patients" for
// /patients/123/records.
func resourceFromPath(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return ""
	}
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}
