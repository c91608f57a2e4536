package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormLogger adapts zerolog to GORM's logger.Interface so that every SQL
// statement executed by GORM is emitted as a zerolog debug event. Level
// filtering is delegated to zerolog; disabled events never format the SQL.
type gormLogger struct {
	log zerolog.Logger
}

// NewGormLogger returns a GORM logger that writes through l.
func NewGormLogger(l zerolog.Logger) logger.Interface {
	return gormLogger{log: l}
}

// LogMode is a no-op; level filtering is handled by zerolog.
func (l gormLogger) LogMode(logger.LogLevel) logger.Interface { return l }

// Info logs informational messages from GORM.
func (l gormLogger) Info(ctx context.Context, msg string, args ...any) {
	l.log.Info().Ctx(ctx).Msg(fmt.Sprintf(msg, args...))
}

// Warn logs warning messages from GORM.
func (l gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.log.Warn().Ctx(ctx).Msg(fmt.Sprintf(msg, args...))
}

// Error logs error messages from GORM.
func (l gormLogger) Error(ctx context.Context, msg string, args ...any) {
	l.log.Error().Ctx(ctx).Msg(fmt.Sprintf(msg, args...))
}

// maxSQLLength is the maximum length of a SQL string in debug logs before
// it gets truncated with an ellipsis.
const maxSQLLength = 200

// truncateSQL shortens a SQL string for readable log output, replacing the
// middle with "..." when it exceeds maxSQLLength.
func truncateSQL(sql string) string {
	if len(sql) <= maxSQLLength {
		return sql
	}
	half := (maxSQLLength - 3) / 2
	return sql[:half] + "..." + sql[len(sql)-half:]
}

// Trace is called by GORM after every SQL operation. ErrRecordNotFound is the
// normal "no rows" result from First and is logged with successful queries.
func (l gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		sql, rows := fc()
		l.log.Error().Ctx(ctx).
			Err(err).
			Str("sql", truncateSQL(sql)).
			Int64("rows", rows).
			Dur("duration", elapsed).
			Msg("gorm query error")
		return
	}

	if l.log.GetLevel() > zerolog.DebugLevel || zerolog.GlobalLevel() > zerolog.DebugLevel {
		return
	}

	sql, rows := fc()
	l.log.Debug().Ctx(ctx).
		Str("sql", truncateSQL(sql)).
		Int64("rows", rows).
		Dur("duration", elapsed).
		Msg("gorm query")
}
