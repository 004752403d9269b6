package llm

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
)

// Middleware decorates a CompletionClient with cross-cutting behavior. The
// decorated client still issues at most one outbound request per Complete
// call; middlewares may delay or refuse a call but never repeat it.
type Middleware func(CompletionClient) CompletionClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner CompletionClient, mws ...Middleware) CompletionClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate limiting --------

// RateLimit throttles calls with a token-bucket limiter. rps <= 0 disables
// the limiter.
func RateLimit(rps float64, burst int) Middleware {
	return func(next CompletionClient) CompletionClient {
		return &rateLimited{next: next, rl: newRPSLimiter(rps, burst)}
	}
}

// RateLimitFromEnv configures RateLimit from <PREFIX>_RPS / <PREFIX>_BURST,
// trying each prefix in order. Unset or unparsable values disable the
// limiter, which keeps local runs unthrottled.
func RateLimitFromEnv(prefixes ...string) Middleware {
	find := func(suffix string) string {
		for _, p := range prefixes {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if v := strings.TrimSpace(os.Getenv(p + suffix)); v != "" {
				return v
			}
		}
		return ""
	}
	readFloat := func(raw string) float64 {
		if raw == "" {
			return 0
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0
		}
		return f
	}
	readInt := func(raw string) int {
		if raw == "" {
			return 0
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0
		}
		return n
	}
	return func(next CompletionClient) CompletionClient {
		rps := readFloat(find("_RPS"))
		burst := readInt(find("_BURST"))
		return &rateLimited{next: next, rl: newRPSLimiter(rps, burst)}
	}
}

type rateLimited struct {
	next CompletionClient
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }

func (c *rateLimited) Close() error {
	c.rl.Stop()
	return c.next.Close()
}

func (c *rateLimited) Complete(ctx context.Context, prompt, credential string, opts Options) (string, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return "", err
	}
	return c.next.Complete(ctx, prompt, credential, opts)
}

// -------- Logging --------

// WithLogging logs request sizes and failures. A nil logger selects
// log.Default(). Prompts and credentials are never logged.
func WithLogging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next CompletionClient) CompletionClient {
		return &logged{next: next, log: logger}
	}
}

type logged struct {
	next CompletionClient
	log  *log.Logger
}

func (l *logged) Name() string { return l.next.Name() }

func (l *logged) Close() error { return l.next.Close() }

func (l *logged) Complete(ctx context.Context, prompt, credential string, opts Options) (string, error) {
	l.log.Printf("completion request (%s): %d bytes, expect_json=%v", l.next.Name(), len(prompt), opts.ExpectJSON)
	out, err := l.next.Complete(ctx, prompt, credential, opts)
	if err != nil {
		l.log.Printf("completion error (%s): %v", l.next.Name(), err)
	}
	return out, err
}
