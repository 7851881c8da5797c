package middleware

import (
	"bytes"
	"context"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// CacheConfig holds configuration for the cache middleware
type CacheConfig struct {
	Duration   time.Duration
	PrefixKey  string
	// CookieName is the session cookie; requests carrying it bypass the cache
	CookieName string
	// Paths lists the route patterns whose GET responses may be cached
	Paths      []string
}

func (cfg CacheConfig) cacheable(c *gin.Context) bool {
	if c.Request.Method != http.MethodGet {
		return false
	}
	route := c.FullPath()
	for _, p := range cfg.Paths {
		if p == route {
			return true
		}
	}
	return false
}

// RedisCache creates middleware for caching public listing responses in Redis.
// Only anonymous requests are served from the cache.
func RedisCache(redisClient *redis.Client, config CacheConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.cacheable(c) {
			c.Next()
			return
		}
		if _, err := c.Request.Cookie(config.CookieName); err == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := generateCacheKey(config.PrefixKey, c.Request.URL.Path, c.Request.URL.RawQuery)

		cached, err := redisClient.Get(ctx, cacheKey).Bytes()
		if err == nil {
			logger.Debug("Cache hit",
				zap.String("path", c.Request.URL.Path),
				zap.String("cache_key", cacheKey))

			c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(http.StatusOK)
			_, _ = c.Writer.Write(cached)
			c.Abort()
			return
		}
		if err != redis.Nil {
			logger.Warn("Cache read failed", zap.Error(err), zap.String("cache_key", cacheKey))
		}

		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer
		c.Header("X-Cache", "MISS")

		c.Next()

		if writer.Status() != http.StatusOK {
			return
		}

		if err := redisClient.Set(ctx, cacheKey, writer.body.Bytes(), config.Duration).Err(); err != nil {
			logger.Error("Failed to set cache",
				zap.Error(err),
				zap.String("cache_key", cacheKey))
			return
		}
		logger.Debug("Cache set",
			zap.String("path", c.Request.URL.Path),
			zap.String("cache_key", cacheKey),
			zap.Duration("duration", config.Duration))
	}
}

// responseWriter captures the response body for caching
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write captures the response for caching
func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// generateCacheKey creates a unique cache key for a request
func generateCacheKey(prefix, path, query string) string {
	target := path
	if query != "" {
		target = path + "?" + query
	}
	sum := blake2b.Sum256([]byte(target))
	return prefix + ":" + strings.TrimPrefix(path, "/") + ":" + hex.EncodeToString(sum[:])
}

// FlushCache removes every cached response whose route starts with path,
// or every key under prefix when path is empty
func FlushCache(ctx context.Context, redisClient *redis.Client, prefix, path string) error {
	pattern := prefix + ":*"
	if path != "" {
		pattern = prefix + ":" + strings.TrimPrefix(path, "/") + "*"
	}

	var keys []string
	iter := redisClient.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return redisClient.Del(ctx, keys...).Err()
}

// InvalidateCache flushes the cached public listings after a successful
// mutation so that the next read sees the change
func InvalidateCache(redisClient *redis.Client, prefix string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet || c.Writer.Status() >= 400 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// Cached routes all live under /api; rate limit counters share the prefix
		if err := FlushCache(ctx, redisClient, prefix, "/api"); err != nil {
			logger.Warn("Failed to flush cache", zap.Error(err))
		}
	}
}
