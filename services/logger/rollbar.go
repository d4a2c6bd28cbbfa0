package logsvc

import (
	"context"
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/xenthrall/academy/core"
)

// RollbarLogger writes every entry to `std` and reports it to Rollbar when enabled.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, core.Caller
// The caller travels in the item's context, never on the shared client.
func (l RollbarLogger) prepare(msg string, args []interface{}) (rbArgs, stdArgs []interface{}) {
	var caller *core.Caller
	rbArgs = make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)
	stdArgs = make([]interface{}, 0, len(args))
	for _, arg := range args {
		c, ok := arg.(core.Caller)
		if !ok {
			rbArgs = append(rbArgs, arg)
			stdArgs = append(stdArgs, arg)
			continue
		}
		if caller == nil { // only set one person
			caller = &c
		}
	}

	if caller != nil {
		ctx := rollbar.NewPersonContext(context.Background(), &rollbar.Person{Id: caller.ID, Username: caller.Name})
		rbArgs = append(rbArgs, ctx)
		stdArgs = append(stdArgs, map[string]interface{}{"caller": caller.ID})
	}
	return rbArgs, stdArgs
}

func (l RollbarLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rbArgs, stdArgs := l.prepare(msg, args)
	rollbar.Debug(rbArgs...)
	l.print(msg, stdArgs)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rbArgs, stdArgs := l.prepare(msg, args)
	rollbar.Info(rbArgs...)
	l.print(msg, stdArgs)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rbArgs, stdArgs := l.prepare(msg, args)
	rollbar.Warning(rbArgs...)
	l.print(msg, stdArgs)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rbArgs, stdArgs := l.prepare(msg, args)
	rollbar.Error(rbArgs...)
	l.print(msg, stdArgs)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rbArgs, stdArgs := l.prepare(msg, args)
	rollbar.Critical(rbArgs...)
	l.print(msg, stdArgs)
	rollbar.Wait()
	l.std.Fatal(msg)
}
