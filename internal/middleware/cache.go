package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/dmarcu/contacts-api/internal/config"
)

// captureWriter captures the response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 {
		cw.buf.Write(b)
	} else if remain := cw.limit - cw.size; remain > 0 {
		if int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// generationKey names the per-user counter folded into every cache key.
// Bumping the counter on a write makes all of that user's cached pages
// unreachable at once, without scanning the keyspace.
func generationKey(cfg config.CacheConfig, userID uint64) string {
	return fmt.Sprintf("%s:gen:%d", cfg.Prefix, userID)
}

// cacheKey builds a stable key from the owner, the current generation and
// the request path+query. The concrete URL path goes into the hash, not the
// registered route pattern: /api/contacts/1 and /api/contacts/2 are distinct
// entries. Contacts are per-user data, so the user id is always part of the
// key; two users never share an entry.
func cacheKey(cfg config.CacheConfig, userID uint64, gen int64, c echo.Context) string {
	r := c.Request()
	tail := fmt.Sprintf("path:%s:q:%s", r.URL.Path, r.URL.RawQuery)
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%d:%d:%x", cfg.Prefix, userID, gen, sum[:])
}

// encodeEntry packs: [4 bytes status][body]
func encodeEntry(status int, body []byte) []byte {
	out := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	copy(out[4:], body)
	return out
}

func decodeEntry(bs []byte) (status int, body []byte, ok bool) {
	if len(bs) < 4 {
		return 0, nil, false
	}
	return int(binary.BigEndian.Uint32(bs[0:4])), bs[4:], true
}

// ContactCache serves GET contact responses from Redis, keyed per
// authenticated user. Must run after JWTAuth so the user id is in the
// context. When Redis is unavailable the middleware is a pass-through.
func ContactCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			uid, ok := c.Get("user_id").(uint64)
			if !ok {
				return next(c)
			}

			ctx := c.Request().Context()
			gen, err := rdb.Get(ctx, generationKey(cfg, uid)).Int64()
			if err != nil && err != redis.Nil {
				return next(c) // Redis trouble: skip the cache entirely
			}
			key := cacheKey(cfg, uid, gen, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, body, ok := decodeEntry(bs); ok {
					c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, _ = c.Response().Write(body)
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if cw.status == http.StatusOK && (maxBody <= 0 || cw.size <= maxBody) {
				_ = rdb.SetEx(context.Background(), key, encodeEntry(cw.status, cw.buf.Bytes()), ttl).Err()
			}
			return nil
		}
	}
}

// BumpContactCache invalidates the user's cached contact pages after any
// successful write by incrementing the generation counter. Reads pass
// straight through.
func BumpContactCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				return err
			}
			if c.Request().Method == http.MethodGet {
				return nil
			}
			uid, ok := c.Get("user_id").(uint64)
			if !ok || c.Response().Status >= http.StatusBadRequest {
				return nil
			}
			ctx := context.Background()
			key := generationKey(cfg, uid)
			if err := rdb.Incr(ctx, key).Err(); err == nil {
				_ = rdb.Expire(ctx, key, 24*time.Hour).Err()
			}
			return nil
		}
	}
}
