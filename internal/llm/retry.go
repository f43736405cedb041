package llm

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy encapsula la politica de reintentos compartida por todas las
// operaciones del analizador: intentos acotados, backoff lineal por indice
// de intento y un predicado que decide que errores merecen reintento.
type RetryPolicy struct {
	MaxAttempts int
	// BaseDelay se multiplica por el numero de intento (1, 2, 3...).
	BaseDelay time.Duration
	// Retryable decide si un error amerita reintento. Nil reintenta solo
	// rate limits.
	Retryable func(error) bool
}

// DefaultRetryPolicy replica los valores historicos: 3 intentos, 2s base.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		Retryable:   IsRetryable,
	}
}

// IsRetryable clasifica errores de rate limit y de respuesta vacia como
// transitorios. Los errores de parseo los marca el llamador envolviendo
// con ErrEmptyResponse o devolviendo true en su propio predicado.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrEmptyResponse)
}

// Do ejecuta fn hasta MaxAttempts veces, durmiendo BaseDelay*intento entre
// fallos retriables. Respeta la cancelacion del contexto.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = func(err error) bool { return errors.Is(err, ErrRateLimited) }
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts || !retryable(lastErr) {
			return lastErr
		}

		delay := time.Duration(attempt) * p.BaseDelay
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}
