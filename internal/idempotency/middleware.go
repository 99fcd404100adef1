package idempotency

import (
	"barter-exchange/utils"
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zeebo/blake3"
)

// HeaderKey is the request header carrying the client's idempotency key
const HeaderKey = "Idempotency-Key"

// HeaderReplayed is set on responses served from a stored record
const HeaderReplayed = "Idempotent-Replayed"

const maxKeyLength = 255

var (
	errKeyReused    = errors.New("idempotency key was used with a different request")
	errKeyInFlight  = errors.New("a request with this idempotency key is still in progress")
	errKeyMalformed = errors.New("idempotency key must be 1-255 characters")
)

// Fingerprint identifies a request by method, path and body
func Fingerprint(method, path string, body []byte) string {
	h := blake3.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// recordingWriter keeps a copy of everything written to the client
type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware replays responses for repeated Idempotency-Key requests. scope
// namespaces keys per caller, normally by user id. Requests without the header
// pass through untouched. Responses with status >= 500 are not recorded.
func Middleware(store *Store, scope func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := c.GetHeader(HeaderKey)
		if clientKey == "" {
			c.Next()
			return
		}
		if len(clientKey) > maxKeyLength {
			utils.AbortWithError(c, http.StatusBadRequest, errKeyMalformed, "Invalid idempotency key")
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			utils.AbortWithError(c, http.StatusBadRequest, err, "Failed to read request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		key := scope(c) + ":" + clientKey
		fingerprint := Fingerprint(c.Request.Method, c.Request.URL.Path, body)

		record, reserved, err := store.Reserve(key, fingerprint)
		if err != nil {
			utils.Error("idempotency store unavailable", map[string]any{"error": err.Error()})
			utils.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
			return
		}

		if !reserved {
			switch {
			case record.Fingerprint != fingerprint:
				utils.AbortWithError(c, http.StatusUnprocessableEntity, errKeyReused, "Idempotency key reuse")
			case !record.Complete:
				utils.AbortWithError(c, http.StatusConflict, errKeyInFlight, "Request in progress")
			default:
				utils.Info("idempotent replay", map[string]any{"path": c.Request.URL.Path, "status": record.Status})
				c.Header(HeaderReplayed, "true")
				c.Data(record.Status, record.ContentType, record.Body)
				c.Abort()
			}
			return
		}

		rw := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rw
		defer func() {
			if r := recover(); r != nil {
				if err := store.Release(key); err != nil {
					utils.Warn("failed to release idempotency key", map[string]any{"error": err.Error()})
				}
				panic(r)
			}
		}()
		c.Next()

		status := rw.Status()
		if status >= http.StatusInternalServerError {
			if err := store.Release(key); err != nil {
				utils.Warn("failed to release idempotency key", map[string]any{"error": err.Error()})
			}
			return
		}
		if err := store.Complete(key, status, rw.Header().Get("Content-Type"), rw.body.Bytes()); err != nil {
			utils.Warn("failed to record idempotent response", map[string]any{"error": err.Error()})
		}
	}
}
