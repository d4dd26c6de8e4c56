package logstore_test

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/trezcool/studydash/core/errlog"
	"github.com/trezcool/studydash/core/logstore"
	"github.com/trezcool/studydash/tests"
)

func TestStore_BoundedFIFO(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("the last maxLogs captures are kept in order", prop.ForAll(
		func(n, k int) bool {
			s := logstore.New(quietConfig(n), logstore.Deps{})
			defer closeStore(t, s)

			want := make([]string, 0, n)
			for i := 0; i < n+k; i++ {
				msg := fmt.Sprintf("m%d", i)
				s.Capture(msg, errlog.Context{})
				if i >= k {
					want = append(want, msg)
				}
			}

			got := testutil.Messages(s.All())
			if len(got) != n {
				return false
			}
			for i := range want {
				if got[i] != want[i] {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 30),
		gen.IntRange(1, 30),
	))

	properties.TestingRun(t)
}

func TestStore_SeverityPartition(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	sevGen := gen.OneConstOf(
		errlog.SeverityLow, errlog.SeverityMedium, errlog.SeverityHigh, errlog.SeverityCritical,
		errlog.Severity(""), errlog.Severity("fatal"),
	)

	properties.Property("bySeverity partitions all", prop.ForAll(
		func(sevs []errlog.Severity) bool {
			s := logstore.New(quietConfig(len(sevs)+1), logstore.Deps{})
			defer closeStore(t, s)

			for _, sev := range sevs {
				s.Capture("boom", errlog.Context{Severity: sev})
			}

			seen := make(map[string]int)
			for _, sev := range errlog.Severities {
				for _, e := range s.BySeverity(sev) {
					if e.Severity != sev {
						return false
					}
					seen[e.ID]++
				}
			}
			all := s.All()
			if len(seen) != len(all) {
				return false
			}
			for _, e := range all {
				if seen[e.ID] != 1 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(sevGen, reflect.TypeOf(errlog.SeverityLow)),
	))

	properties.TestingRun(t)
}
