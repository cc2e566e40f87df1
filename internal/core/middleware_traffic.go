package core

import (
	"bytes"
	"log/slog"
	"net/http"

	"hivewatch/internal/types"
)

// maxIdempotencyKeyLength bounds the Idempotency-Key header.
const maxIdempotencyKeyLength = 255

// ResponseCapturer buffers status, headers and body so the idempotency
// middleware can store the response before sending it.
type ResponseCapturer struct {
	underlying http.ResponseWriter
	statusCode int
	body       bytes.Buffer
	headers    http.Header
	written    bool
}

func newResponseCapturer(w http.ResponseWriter) *ResponseCapturer {
	return &ResponseCapturer{
		underlying: w,
		statusCode: http.StatusOK,
		headers:    make(http.Header),
	}
}

func (rc *ResponseCapturer) Header() http.Header {
	return rc.headers
}

func (rc *ResponseCapturer) WriteHeader(code int) {
	if !rc.written {
		rc.statusCode = code
		rc.written = true
	}
}

func (rc *ResponseCapturer) Write(b []byte) (int, error) {
	if !rc.written {
		rc.statusCode = http.StatusOK
		rc.written = true
	}
	return rc.body.Write(b)
}

// Flush sends the buffered response. Call it exactly once.
func (rc *ResponseCapturer) Flush() {
	for key, values := range rc.headers {
		for _, v := range values {
			rc.underlying.Header().Add(key, v)
		}
	}
	rc.underlying.WriteHeader(rc.statusCode)
	_, _ = rc.underlying.Write(rc.body.Bytes())
}

func (rc *ResponseCapturer) Unwrap() http.ResponseWriter {
	return rc.underlying
}

func (rc *ResponseCapturer) StatusCode() int {
	return rc.statusCode
}

func (rc *ResponseCapturer) Body() []byte {
	return rc.body.Bytes()
}

// errCodeIdempotencyConflict is returned while a request with the same key is
// still in flight.
const errCodeIdempotencyConflict types.ErrorCode = "conflict_idempotency_in_progress"

// IdempotencyMiddleware makes POST requests carrying an Idempotency-Key
// header execute at most once per account.
//
//   - completed key: the stored response is replayed with X-Idempotent-Replayed.
//   - processing key: 409 conflict_idempotency_in_progress.
//   - new or failed key: the request runs and its response is stored. 5xx
//     responses mark the key failed so the client may retry.
//
// Store errors fail open.
func (s *Server) IdempotencyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.IdempotencyStore == nil || r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get("Idempotency-Key")
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			Error(w, r, types.NewAppErrorWithDetails(
				types.ErrCodeValidationInvalidFormat,
				"Idempotency-Key must not exceed 255 characters",
				nil,
				map[string]any{"field": "Idempotency-Key"},
			))
			return
		}

		accountID := types.GetAccountID(r.Context())
		if accountID == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		log := s.Logger.With(
			slog.String("idempotency_key", key),
			slog.String("account_id", accountID),
		)

		record, err := s.IdempotencyStore.Get(ctx, key, accountID)
		if err != nil {
			log.Error("idempotency store get error", slog.String("error", err.Error()))
			next.ServeHTTP(w, r)
			return
		}

		if record != nil {
			switch record.Status {
			case types.IdempotencyStatusCompleted:
				log.Info("idempotency key hit, replaying response", slog.Int("cached_status", record.ResponseCode))
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Idempotent-Replayed", "true")
				w.WriteHeader(record.ResponseCode)
				_, _ = w.Write(record.ResponseBody)
				return

			case types.IdempotencyStatusProcessing:
				log.Warn("idempotency key conflict, request in progress")
				JSON(w, r, http.StatusConflict, APIErrorResponse{
					Error: ErrorDetail{
						Code:      string(errCodeIdempotencyConflict),
						Message:   "A request with this idempotency key is currently being processed",
						RequestID: types.GetRequestID(ctx),
					},
				})
				return

			case types.IdempotencyStatusFailed:
				log.Info("idempotency key previously failed, retrying")
			}
		}

		if err := s.IdempotencyStore.Create(ctx, key, accountID, r.URL.Path); err != nil {
			log.Error("idempotency store create error", slog.String("error", err.Error()))
			next.ServeHTTP(w, r)
			return
		}

		capturer := newResponseCapturer(w)
		next.ServeHTTP(capturer, r)

		statusCode := capturer.StatusCode()
		if statusCode < http.StatusInternalServerError {
			if err := s.IdempotencyStore.Complete(ctx, key, accountID, statusCode, capturer.Body()); err != nil {
				log.Error("idempotency store complete error", slog.String("error", err.Error()))
			}
		} else if err := s.IdempotencyStore.Fail(ctx, key, accountID); err != nil {
			log.Error("idempotency store fail error", slog.String("error", err.Error()))
		}

		capturer.Flush()
	})
}
