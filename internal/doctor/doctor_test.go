package doctor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportPrint(t *testing.T) {
	r := &Report{}
	r.AddCheck(CheckResult{Category: "Storage Table", Message: "aegis_acl table exists (3 rows)", Status: StatusPass})
	r.AddCheck(CheckResult{Category: "Universal Group", Message: "no permission record", Status: StatusWarn, FixHint: "seed one"})

	var buf strings.Builder
	r.Print(&buf, false)

	out := buf.String()
	assert.Contains(t, out, "Storage Table")
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "⚠")
	assert.Contains(t, out, "Fix: seed one")
	assert.Contains(t, out, "Summary: 1 passed, 1 warnings, 0 errors")
}

func TestReportHasErrors(t *testing.T) {
	r := &Report{}
	assert.False(t, r.HasErrors())

	r.AddCheck(CheckResult{Status: StatusFail})
	assert.True(t, r.HasErrors())
}

func TestDecodesCleanly(t *testing.T) {
	assert.True(t, decodesCleanly(`[{"id":"user:alice","access":2}]`))
	assert.True(t, decodesCleanly(`[]`))
	assert.False(t, decodesCleanly(``))
	assert.False(t, decodesCleanly(`not: [valid, yaml`))
}
