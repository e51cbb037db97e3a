package logging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type impl struct {
	name  string
	level AtomicLevel
	inUTC bool

	appenders []Appender
}

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = fmt.Sprintf("%s.%s", imp.name, subname)
	}
	return &impl{
		name:      newName,
		level:     NewAtomicLevelAt(imp.level.Get()),
		inUTC:     imp.inUTC,
		appenders: imp.appenders,
	}
}

func (imp *impl) enabled(ctx context.Context, level Level) bool {
	return level >= imp.level.Get() || IsDebugMode(ctx)
}

// logf renders args with fmt.Sprint, or fmt.Sprintf when a template is given.
func (imp *impl) logf(ctx context.Context, level Level, template string, args []interface{}) {
	if !imp.enabled(ctx, level) {
		return
	}
	msg := template
	switch {
	case template == "":
		msg = fmt.Sprint(args...)
	case len(args) > 0:
		msg = fmt.Sprintf(template, args...)
	}
	imp.write(level, msg, nil)
}

// logw pairs up keysAndValues as structured fields. Keys are rendered with %v unless they are
// fmt.Stringers.
func (imp *impl) logw(ctx context.Context, level Level, msg string, keysAndValues []interface{}) {
	if !imp.enabled(ctx, level) {
		return
	}
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprintf("%v", keysAndValues[i])
		if stringer, ok := keysAndValues[i].(fmt.Stringer); ok {
			key = stringer.String()
		}
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(key, keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(key, errors.New("unpaired log key")))
		}
	}
	imp.write(level, msg, fields)
}

// write must only be called from logf or logw, which are only called from the exported methods.
// That fixed depth is what lets it find the user's call site.
func (imp *impl) write(level Level, msg string, fields []zapcore.Field) {
	const skipToUserCode = 3
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now(),
		LoggerName: imp.name,
		Message:    msg,
	}
	if imp.inUTC {
		entry.Time = entry.Time.UTC()
	}
	if pc, file, line, ok := runtime.Caller(skipToUserCode); ok {
		entry.Caller = zapcore.NewEntryCaller(pc, file, line, true)
	}

	for _, appender := range imp.appenders {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprint(os.Stderr, err)
		}
	}
}

func (imp *impl) Debug(args ...interface{}) {
	imp.logf(context.Background(), DEBUG, "", args)
}

func (imp *impl) Debugf(template string, args ...interface{}) {
	imp.logf(context.Background(), DEBUG, template, args)
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.logw(context.Background(), DEBUG, msg, keysAndValues)
}

func (imp *impl) Info(args ...interface{}) {
	imp.logf(context.Background(), INFO, "", args)
}

func (imp *impl) Infof(template string, args ...interface{}) {
	imp.logf(context.Background(), INFO, template, args)
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.logw(context.Background(), INFO, msg, keysAndValues)
}

func (imp *impl) Warn(args ...interface{}) {
	imp.logf(context.Background(), WARN, "", args)
}

func (imp *impl) Warnf(template string, args ...interface{}) {
	imp.logf(context.Background(), WARN, template, args)
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.logw(context.Background(), WARN, msg, keysAndValues)
}

func (imp *impl) Error(args ...interface{}) {
	imp.logf(context.Background(), ERROR, "", args)
}

func (imp *impl) Errorf(template string, args ...interface{}) {
	imp.logf(context.Background(), ERROR, template, args)
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.logw(context.Background(), ERROR, msg, keysAndValues)
}

func (imp *impl) Fatal(args ...interface{}) {
	imp.logf(context.Background(), ERROR, "", args)
	os.Exit(1)
}

func (imp *impl) CDebugw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.logw(ctx, DEBUG, msg, keysAndValues)
}

func (imp *impl) CInfow(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.logw(ctx, INFO, msg, keysAndValues)
}

func (imp *impl) CWarnw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.logw(ctx, WARN, msg, keysAndValues)
}

func (imp *impl) CErrorw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.logw(ctx, ERROR, msg, keysAndValues)
}
