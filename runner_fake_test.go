package migrate

import (
	"context"
	"fmt"
	"strings"
)

// recordingRunner records every schema operation as one line.
type recordingRunner struct {
	driver string
	ops    []string
	failOn string
}

var _ Runner = (*recordingRunner)(nil)

func newRecordingRunner(driver string) *recordingRunner {
	return &recordingRunner{driver: driver}
}

func (r *recordingRunner) record(op string) error {
	r.ops = append(r.ops, op)
	if r.failOn != "" && strings.HasPrefix(op, r.failOn) {
		return fmt.Errorf("boom: %s", op)
	}
	return nil
}

func (r *recordingRunner) DriverName() string { return r.driver }

func (r *recordingRunner) QuoteTableName(name string) string {
	if strings.Contains(name, "{{") {
		return name
	}
	return `"` + name + `"`
}

func (r *recordingRunner) CreateTable(_ context.Context, table string, columns Columns, options string) error {
	defs := make([]string, len(columns))
	for i, c := range columns {
		def, err := buildColumn(c.Definition, r.driver)
		if err != nil {
			return err
		}
		defs[i] = c.Name + " " + def
	}
	op := fmt.Sprintf("CreateTable %s (%s)", table, strings.Join(defs, ", "))
	if options != "" {
		op += " " + options
	}
	return r.record(op)
}

func (r *recordingRunner) DropTable(_ context.Context, table string) error {
	return r.record("DropTable " + table)
}

func (r *recordingRunner) AddPrimaryKey(_ context.Context, name, table string, columns []string) error {
	return r.record(fmt.Sprintf("AddPrimaryKey %s %s %v", name, table, columns))
}

func (r *recordingRunner) DropPrimaryKey(_ context.Context, name, table string) error {
	return r.record(fmt.Sprintf("DropPrimaryKey %s %s", name, table))
}

func (r *recordingRunner) CreateIndex(_ context.Context, name, table string, columns []string, unique bool) error {
	kind := "CreateIndex"
	if unique {
		kind = "CreateUniqueIndex"
	}
	return r.record(fmt.Sprintf("%s %s %s %v", kind, name, table, columns))
}

func (r *recordingRunner) DropIndex(_ context.Context, name, table string) error {
	return r.record(fmt.Sprintf("DropIndex %s %s", name, table))
}

func (r *recordingRunner) AddForeignKey(_ context.Context, name, table string, columns []string, refTable string, refColumns []string, onDelete, onUpdate ReferenceOption) error {
	return r.record(fmt.Sprintf("AddForeignKey %s %s %v -> %s %v ON DELETE %s ON UPDATE %s",
		name, table, columns, refTable, refColumns, onDelete, onUpdate))
}

func (r *recordingRunner) DropForeignKey(_ context.Context, name, table string) error {
	return r.record(fmt.Sprintf("DropForeignKey %s %s", name, table))
}

func (r *recordingRunner) Execute(_ context.Context, sql string) error {
	return r.record("Execute " + sql)
}
