package cache

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/AsyncXeNo/zenrenne-backend/app/apierror"
)

const (
	DefaultTTL   = time.Hour
	StatusHeader = "X-Cache"
)

type capture struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *capture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *capture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

// Responses serves successful GET responses from c and invalidates the
// cache after every successful write. Cache failures are logged and the
// request falls through to the handler.
func Responses(c Cache, ttl time.Duration) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := apierror.Logger(r)

			if r.Method != http.MethodGet {
				rec := &capture{ResponseWriter: w}
				next.ServeHTTP(rec, r)
				if rec.status != 0 && rec.status < http.StatusBadRequest {
					if err := c.Invalidate(ctx); err != nil {
						logger.Warn().Err(err).Msg("cache invalidation failed")
					}
				}
				return
			}

			gen, err := c.Generation(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("cache unavailable")
				next.ServeHTTP(w, r)
				return
			}
			key := "resp:" + strconv.FormatInt(gen, 10) + ":" + r.URL.RequestURI()

			if cached, ok, err := c.Get(ctx, key); err == nil && ok {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set(StatusHeader, "HIT")
				w.WriteHeader(http.StatusOK)
				w.Write(cached)
				return
			}

			w.Header().Set(StatusHeader, "MISS")
			rec := &capture{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status != http.StatusOK {
				return
			}
			if err := c.Set(ctx, key, rec.body.Bytes(), ttl); err != nil {
				logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
			}
		})
	}
}
