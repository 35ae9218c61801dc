package httpmw

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// jobListSuffix selects the only routes this middleware touches: paths
// ending in /jobs, such as the job list (/api/sync/jobs). Paths nested
// below it do not match. The live stream endpoint (/api/sync/stream) is
// excluded even though it shares the /api/sync prefix — it hijacks the
// connection for a WebSocket upgrade and never writes a JSON body through
// this writer.
const jobListSuffix = "/jobs"

// NullToEmptyArray rewrites a JSON `null` response body to `[]`, so that
// the job list endpoint never hands an operator UI a bare null for an empty
// job list. Routes outside the job-list family pass through unbuffered.
func NullToEmptyArray() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !strings.HasSuffix(c.Request().URL.Path, jobListSuffix) {
				return next(c)
			}

			rec := &jobListBodyWriter{
				ResponseWriter: c.Response().Writer,
				buf:            &bytes.Buffer{},
			}
			c.Response().Writer = rec

			if err := next(c); err != nil {
				return err
			}

			body := rec.buf.Bytes()

			ct := c.Response().Header().Get(echo.HeaderContentType)
			isJSON := len(ct) >= 16 && ct[:16] == "application/json"
			statusOK := c.Response().Status >= 200 && c.Response().Status < 300

			if isJSON && statusOK && bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
				body = []byte("[]")
				c.Response().Header().Set("Content-Length", "2")
			}

			rec.ResponseWriter.WriteHeader(c.Response().Status)
			_, writeErr := rec.ResponseWriter.Write(body)
			return writeErr
		}
	}
}

// jobListBodyWriter buffers a job-list response so NullToEmptyArray can
// inspect the full body before the status line and headers are flushed.
type jobListBodyWriter struct {
	http.ResponseWriter
	buf *bytes.Buffer
}

func (b *jobListBodyWriter) Write(data []byte) (int, error) {
	return b.buf.Write(data)
}

func (b *jobListBodyWriter) WriteHeader(_ int) {
	// Suppressed — the wrapping middleware writes the header after inspecting the body.
}
