// Package doctor provides health checks for an aegis authorization
// deployment.
//
// The doctor command validates that a PostgreSQL-backed storage port is
// reachable and correctly shaped, whether a permission record exists for
// the distinguished universal group, and that a handful of sampled keys
// decode cleanly.
//
// Example usage:
//
//	d := doctor.New(db)
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/pthm/aegis/engine"
	"github.com/pthm/aegis/storage/pgstore"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical issue that will cause failures.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// CheckResult represents the outcome of a single health check.
type CheckResult struct {
	Category string
	Name     string
	Status   Status
	Message  string
	Details  string
	FixHint  string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult

	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Print writes the report to the given writer.
func (r *Report) Print(w io.Writer, verbose bool) {
	categories := make(map[string][]CheckResult)
	var categoryOrder []string
	for _, check := range r.Checks {
		if _, exists := categories[check.Category]; !exists {
			categoryOrder = append(categoryOrder, check.Category)
		}
		categories[check.Category] = append(categories[check.Category], check)
	}

	for _, cat := range categoryOrder {
		_, _ = fmt.Fprintf(w, "\n%s\n", cat)
		for _, check := range categories[cat] {
			_, _ = fmt.Fprintf(w, "  %s %s\n", check.Status.Symbol(), check.Message)
			if verbose && check.Details != "" {
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", line)
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// sampleKeys is how many membership/permission keys checkSampleRecords
// reads and decodes to look for malformed blobs.
const sampleKeys = 25

// Doctor performs health checks on an aegis storage deployment.
type Doctor struct {
	db *sql.DB
}

// New creates a new Doctor instance.
func New(db *sql.DB) *Doctor {
	return &Doctor{db: db}
}

// Run executes all health checks and returns a report.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if err := d.checkTable(ctx, report); err != nil {
		return nil, fmt.Errorf("checking aegis_acl table: %w", err)
	}
	if err := d.checkUniversalGroup(ctx, report); err != nil {
		return nil, fmt.Errorf("checking universal group: %w", err)
	}
	if err := d.checkSampleRecords(ctx, report); err != nil {
		return nil, fmt.Errorf("checking sample records: %w", err)
	}

	return report, nil
}

// checkTable validates that the aegis_acl table exists and reports how
// many rows it holds.
func (d *Doctor) checkTable(ctx context.Context, report *Report) error {
	var count int64
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM aegis_acl`).Scan(&count)
	if err != nil {
		if pgstore.IsNoACLTableErr(pgstore.MapError(err)) {
			report.AddCheck(CheckResult{
				Category: "Storage Table",
				Name:     "exists",
				Status:   StatusFail,
				Message:  "aegis_acl table not found",
				FixHint:  "Run 'aegis migrate --db ...' to create it",
			})
			return nil
		}
		return err
	}

	report.AddCheck(CheckResult{
		Category: "Storage Table",
		Name:     "exists",
		Status:   StatusPass,
		Message:  fmt.Sprintf("aegis_acl table exists (%d rows)", count),
	})

	if count == 0 {
		report.AddCheck(CheckResult{
			Category: "Storage Table",
			Name:     "data",
			Status:   StatusWarn,
			Message:  "aegis_acl is empty",
			Details:  "No membership, permission, or filter records to authorize against",
		})
	}

	return nil
}

// checkUniversalGroup reports whether a permission record exists for
// engine.UniversalGroup, which a deployment may or may not use.
func (d *Doctor) checkUniversalGroup(ctx context.Context, report *Report) error {
	var count int64
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM aegis_acl WHERE key = $1`,
		engine.PermissionPrefix+engine.UniversalGroup).Scan(&count)
	if err != nil {
		if pgstore.IsNoACLTableErr(pgstore.MapError(err)) {
			return nil
		}
		return err
	}

	if count == 0 {
		report.AddCheck(CheckResult{
			Category: "Universal Group",
			Name:     "present",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("no permission record for %s", engine.UniversalGroup),
			Details:  "Every authorize call probes this id; absence is fine if no global grants are needed",
		})
		return nil
	}

	report.AddCheck(CheckResult{
		Category: "Universal Group",
		Name:     "present",
		Status:   StatusPass,
		Message:  fmt.Sprintf("permission record for %s is present", engine.UniversalGroup),
	})
	return nil
}

// checkSampleRecords decodes a sample of membership and permission blobs
// to catch malformed data before it surfaces as a silent denial.
func (d *Doctor) checkSampleRecords(ctx context.Context, report *Report) error {
	rows, err := d.db.QueryContext(ctx, `
		SELECT key, blob FROM aegis_acl
		WHERE key LIKE $1 OR key LIKE $2
		LIMIT $3
	`, engine.MembershipPrefix+"%", engine.PermissionPrefix+"%", sampleKeys)
	if err != nil {
		if pgstore.IsNoACLTableErr(pgstore.MapError(err)) {
			return nil
		}
		return err
	}
	defer func() { _ = rows.Close() }()

	var malformed []string
	scanned := 0
	for rows.Next() {
		var key string
		var blob []byte
		if err := rows.Scan(&key, &blob); err != nil {
			return err
		}
		scanned++
		if !decodesCleanly(string(blob)) {
			malformed = append(malformed, key)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(malformed) > 0 {
		report.AddCheck(CheckResult{
			Category: "Record Sample",
			Name:     "decode",
			Status:   StatusFail,
			Message:  fmt.Sprintf("%d of %d sampled keys failed to decode", len(malformed), scanned),
			Details:  strings.Join(malformed, "\n"),
			FixHint:  "Inspect and re-encode the listed keys; authorize calls against them will decode to an empty record set",
		})
		return nil
	}

	report.AddCheck(CheckResult{
		Category: "Record Sample",
		Name:     "decode",
		Status:   StatusPass,
		Message:  fmt.Sprintf("%d sampled keys decoded cleanly", scanned),
	})
	return nil
}

// decodesCleanly reports whether blob parses as a YAML/JSON record list,
// the same shape pgstore's codec expects for membership and permission
// keys.
func decodesCleanly(blob string) bool {
	if strings.TrimSpace(blob) == "" {
		return false
	}
	var records []engine.Record
	return yaml.Unmarshal([]byte(blob), &records) == nil
}

