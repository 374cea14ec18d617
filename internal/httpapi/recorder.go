package httpapi

import (
	"bytes"

	"github.com/gin-gonic/gin"
)

// responseRecorder buffers the body written by a gin handler so the
// idempotency middleware can persist the exact bytes returned to the
// caller; repeated submissions must return byte-identical response
// bodies.
type responseRecorder struct {
	gin.ResponseWriter
	status int
	body   []byte
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = 200
	}
	r.body = append(r.body, b...)
	return r.ResponseWriter.Write(b)
}

func newByteReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}
