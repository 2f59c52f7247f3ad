// Package httpapi serves generated CRUD operations over HTTP.
//
//	POST   /{table}        create; body is the document, responds with the id
//	GET    /{table}        paginate; ?numItems=&cursor=
//	GET    /{table}/{id}   read
//	PATCH  /{table}/{id}   update; body is the patch
//	DELETE /{table}/{id}   destroy; responds with the removed document or null
//
// Bodies and responses use the wire form: dates are epoch milliseconds.
package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	sb "github.com/reoring/skemabridge"
	"github.com/reoring/skemabridge/codec"
	"github.com/reoring/skemabridge/crud"
	"github.com/reoring/skemabridge/fnwrap"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 1 << 20

// Router mounts every table's operations on a new chi router.
func Router(logger zerolog.Logger, tables ...*crud.Operations) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(Logging(logger))
	r.Use(middleware.Recoverer)

	for _, ops := range tables {
		Mount(r, ops)
	}
	return r
}

// Mount registers the routes of one table on r.
func Mount(r chi.Router, ops *crud.Operations) {
	desc := ops.Table
	r.Route("/"+desc.Name(), func(r chi.Router) {
		r.Post("/", handle(ops.Create, func(req *http.Request) (map[string]any, error) {
			return decodeBody(req, desc.Codec())
		}))
		r.Get("/", handle(ops.Paginate, func(req *http.Request) (map[string]any, error) {
			opts := crud.PageOptions{Cursor: req.URL.Query().Get("cursor")}
			if s := req.URL.Query().Get("numItems"); s != "" {
				n, err := strconv.Atoi(s)
				if err != nil {
					return nil, fmt.Errorf("numItems: %w", err)
				}
				opts.NumItems = n
			}
			return map[string]any{crud.ArgPaginationOpts: opts}, nil
		}))
		r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
			out, err := ops.Read(req.Context(), map[string]any{crud.ArgID: chi.URLParam(req, "id")})
			switch {
			case err != nil:
				WriteError(w, err)
			case out == nil:
				writeJSON(w, http.StatusNotFound, map[string]any{"error": sb.CodeNotFound})
			default:
				writeJSON(w, http.StatusOK, out)
			}
		})
		r.Patch("/{id}", handle(ops.Update, func(req *http.Request) (map[string]any, error) {
			patch, err := decodeBody(req, desc.PartialCodec())
			if err != nil {
				return nil, err
			}
			return map[string]any{crud.ArgID: chi.URLParam(req, "id"), crud.ArgPatch: patch}, nil
		}))
		r.Delete("/{id}", handle(ops.Destroy, func(req *http.Request) (map[string]any, error) {
			return map[string]any{crud.ArgID: chi.URLParam(req, "id")}, nil
		}))
	})
}

func handle(op fnwrap.Operation, args func(*http.Request) (map[string]any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		a, err := args(req)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		out, err := op(req.Context(), a)
		if err != nil {
			WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func decodeBody(req *http.Request, c *codec.Codec) (map[string]any, error) {
	data, err := io.ReadAll(io.LimitReader(req.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > MaxBodyBytes {
		return nil, errors.New("body too large")
	}
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	v, err := c.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("body must be a JSON object")
	}
	return m, nil
}

// ErrorPayload maps an operation error to a status code and JSON body.
// Argument errors are the caller's fault (400); return validation errors
// are the handler's (500). Store issues surface as 404 for not_found and
// 422 otherwise.
func ErrorPayload(err error) (int, map[string]any) {
	var argErr *fnwrap.ArgumentValidationError
	if errors.As(err, &argErr) {
		return http.StatusBadRequest, map[string]any{
			"error": argErr.Kind(), "issues": argErr.Issues, "report": argErr.Report,
		}
	}
	var retErr *fnwrap.ReturnValidationError
	if errors.As(err, &retErr) {
		return http.StatusInternalServerError, map[string]any{
			"error": retErr.Kind(), "issues": retErr.Issues, "report": retErr.Report,
		}
	}
	if iss, ok := sb.AsIssues(err); ok {
		for _, it := range iss {
			if it.Code == sb.CodeNotFound {
				return http.StatusNotFound, map[string]any{"error": sb.CodeNotFound, "issues": iss}
			}
		}
		return http.StatusUnprocessableEntity, map[string]any{"error": "invalid_document", "issues": iss, "report": iss.Flatten()}
	}
	return http.StatusInternalServerError, map[string]any{"error": err.Error()}
}

// WriteError writes ErrorPayload(err).
func WriteError(w http.ResponseWriter, err error) {
	status, body := ErrorPayload(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Logging logs every request at debug, skipping /metrics.
func Logging(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if r.URL.Path == "/metrics" {
				return
			}
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
