package app

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgkafka "github.com/utafrali/checkout-core/pkg/kafka"
	"github.com/utafrali/checkout-core/pkg/logger"
)

func TestRelease_PartialStart(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	var tracerFlushed bool
	a := &App{
		logger: logger.Discard(),
		tracerShutdown: func(context.Context) error {
			tracerFlushed = true
			return nil
		},
		producer: pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig([]string{"localhost:9092"}), logger.Discard()),
		redis:    rdb,
	}

	errs := a.release()

	assert.Empty(t, errs)
	assert.True(t, tracerFlushed)
	assert.ErrorIs(t, rdb.Ping(context.Background()).Err(), goredis.ErrClosed)
}

func TestRelease_TracerOnly(t *testing.T) {
	a := &App{
		logger:         logger.Discard(),
		tracerShutdown: func(context.Context) error { return errors.New("exporter unreachable") },
	}

	errs := a.release()

	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "exporter unreachable")
}
