package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/sapling/pkg/collection"
	"github.com/aretw0/sapling/pkg/domain"
	"github.com/aretw0/sapling/pkg/schema"
)

func TestConsoleReporter_Events(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	r.Report(domain.Event{Kind: domain.EventCreate, Path: "a.txt", ContentLen: 5})
	r.Report(domain.Event{Kind: domain.EventUpdate, Path: "b.txt", ContentLen: 7})
	r.Report(domain.Event{Kind: domain.EventDelete, Path: "c.txt"})
	r.Report(domain.Event{Kind: domain.EventRename, Path: "d.txt", ToPath: "e.txt"})
	r.Report(domain.Event{Kind: domain.EventError, Path: "f.txt", Err: errors.New("boom")})

	out := buf.String()
	assert.NotContains(t, out, "\x1b[", "a plain buffer must get uncolored output")
	assert.Contains(t, out, "CREATE a.txt (5 bytes)")
	assert.Contains(t, out, "UPDATE b.txt (7 bytes)")
	assert.Contains(t, out, "DELETE c.txt")
	assert.Contains(t, out, "RENAME d.txt -> e.txt")
	assert.Contains(t, out, "ERROR f.txt: boom")
}

func TestConsoleReporter_Tasks(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	r.ReportTask(domain.TaskNotice{ID: 0, Executor: "package-install"})
	r.ReportTask(domain.TaskNotice{ID: 1, Executor: "repo-init", DepCount: 1})

	out := buf.String()
	assert.Contains(t, out, "TASK package-install")
	assert.Contains(t, out, "TASK repo-init (1 deps)")
}

func TestDescribeSchematic(t *testing.T) {
	s := &collection.Schematic{
		Name:        "component",
		Description: "generates a component",
		Schema: schema.Schema{
			"name":  {Type: schema.String(), Required: true, Description: "component name"},
			"style": {Type: schema.String(), Default: "css"},
		},
	}

	md := DescribeSchematic("starter", s)
	assert.Contains(t, md, "# starter:component")
	assert.Contains(t, md, "generates a component")
	assert.Contains(t, md, "| name | string | yes |")
	assert.Contains(t, md, "`css`")
}

func TestDescribeSchematic_NoOptions(t *testing.T) {
	md := DescribeSchematic("starter", &collection.Schematic{Name: "plain"})
	assert.Contains(t, md, "_No declared options._")
}
