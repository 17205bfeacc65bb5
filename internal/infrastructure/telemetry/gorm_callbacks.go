package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// SQL verbs as reported in metrics.
const (
	opInsert = "INSERT"
	opSelect = "SELECT"
	opUpdate = "UPDATE"
	opDelete = "DELETE"
	opOther  = "OTHER"
)

type gormRegister interface {
	Register(name string, fn func(*gorm.DB)) error
}

// hooks describes callbacks installed around every gorm processor.
type hooks struct {
	prefix string
	before func(*gorm.DB)
	after  func(tx *gorm.DB, op string)
	// afterPrecedes names the callbacks after must run ahead of, keyed by
	// processor ("create", "select", ...). Missing names are ignored by gorm.
	afterPrecedes string
}

func (h hooks) afterName(processor string) string {
	if h.afterPrecedes == "" {
		return ""
	}
	return h.afterPrecedes + processor
}

// install registers "<prefix>:before:x" and "<prefix>:after:x" callbacks.
// Row and Raw statements derive their verb from the SQL text.
func (h hooks) install(db *gorm.DB) error {
	cb := db.Callback()
	afterOp := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) { h.after(tx, op) }
	}
	afterSQL := func(tx *gorm.DB) { h.after(tx, detectOperationType(tx.Statement.SQL.String())) }

	steps := []struct {
		callback gormRegister
		fn       func(*gorm.DB)
		name     string
	}{
		{cb.Create().Before("gorm:create"), h.before, "before:create"},
		{cb.Create().After("gorm:create").Before(h.afterName("create")), afterOp(opInsert), "after:create"},
		{cb.Query().Before("gorm:query"), h.before, "before:select"},
		{cb.Query().After("gorm:query").Before(h.afterName("select")), afterOp(opSelect), "after:select"},
		{cb.Update().Before("gorm:update"), h.before, "before:update"},
		{cb.Update().After("gorm:update").Before(h.afterName("update")), afterOp(opUpdate), "after:update"},
		{cb.Delete().Before("gorm:delete"), h.before, "before:delete"},
		{cb.Delete().After("gorm:delete").Before(h.afterName("delete")), afterOp(opDelete), "after:delete"},
		{cb.Row().Before("gorm:row"), h.before, "before:row"},
		{cb.Row().After("gorm:row").Before(h.afterName("row")), afterSQL, "after:row"},
		{cb.Raw().Before("gorm:raw"), h.before, "before:raw"},
		{cb.Raw().After("gorm:raw").Before(h.afterName("raw")), afterSQL, "after:raw"},
	}
	for _, s := range steps {
		if err := s.callback.Register(h.prefix+":"+s.name, s.fn); err != nil {
			return fmt.Errorf("register %s:%s: %w", h.prefix, s.name, err)
		}
	}
	return nil
}

type startKey struct{ name string }

// markStart returns a before callback that stores the start time under key.
func markStart(key startKey) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		tx.Statement.Context = context.WithValue(ctx, key, time.Now())
	}
}

// elapsedSince reads the start time stored by markStart.
func elapsedSince(tx *gorm.DB, key startKey) (time.Duration, bool) {
	if tx.Statement.Context == nil {
		return 0, false
	}
	start, ok := tx.Statement.Context.Value(key).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}

func detectOperationType(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, op := range []string{opSelect, opInsert, opUpdate, opDelete} {
		if strings.HasPrefix(sql, op) {
			return op
		}
	}
	return opOther
}
