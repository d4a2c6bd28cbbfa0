package logsvc

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenthrall/academy/core"
)

func newTestLogger(buf *bytes.Buffer) *RollbarLogger {
	l := NewRollbarLogger(log.New(buf, "TEST : ", 0), &core.Config{Env: "TEST"})
	l.Enable(false)
	return l
}

func TestRollbarLogger_prepare(t *testing.T) {
	l := newTestLogger(&bytes.Buffer{})
	err := errors.New("boom")
	extras := map[string]interface{}{"route": "/v1/reports/courses"}

	rbArgs, stdArgs := l.prepare("failed", []interface{}{
		err, core.Caller{ID: "ops-1", Name: "ops"}, extras, core.Caller{ID: "ops-2"},
	})
	require.Len(t, rbArgs, 4)
	assert.Equal(t, []interface{}{"failed", err, extras}, rbArgs[:3])
	ctx, ok := rbArgs[3].(context.Context)
	require.True(t, ok)
	person, ok := rollbar.PersonFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, &rollbar.Person{Id: "ops-1", Username: "ops"}, person)
	assert.Equal(t, []interface{}{err, extras, map[string]interface{}{"caller": "ops-1"}}, stdArgs)

	rbArgs, stdArgs = l.prepare("failed", []interface{}{err})
	assert.Equal(t, []interface{}{"failed", err}, rbArgs)
	assert.Equal(t, []interface{}{err}, stdArgs)
}

// run with -race: entries about different operators must not share state
func TestRollbarLogger_concurrentCallers(t *testing.T) {
	l := newTestLogger(&bytes.Buffer{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if i%2 == 0 {
					l.Error("store unavailable", core.Caller{ID: fmt.Sprintf("ops-%d", i)})
				} else {
					l.Error("store unavailable")
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestRollbarLogger_print(t *testing.T) {
	buf := &bytes.Buffer{}
	l := newTestLogger(buf)

	l.Info("store unavailable", map[string]interface{}{"attempt": 2})
	assert.Equal(t, "TEST : store unavailable\nTEST : map[attempt:2]\n", buf.String())
}
