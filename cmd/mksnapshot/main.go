// mksnapshot cuts a small snapshot for selected clients out of a full
// snapshot directory, for fixtures and offline reruns.
// Usage: go run ./cmd/mksnapshot --in snapshots/full --out testdata/acme --clients ACME,ACCEL
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/gyeh/stclassify/internal/config"
	"github.com/gyeh/stclassify/internal/model"
	"github.com/gyeh/stclassify/internal/snapshot"
)

func main() {
	in := flag.String("in", "snapshots/full", "input snapshot directory")
	out := flag.String("out", "testdata/snapshot", "output snapshot directory")
	clientList := flag.String("clients", "", "comma-separated client ids to keep (required)")
	checkOnly := flag.Bool("check", false, "only print per-file counts, don't write")
	flag.Parse()

	clients := config.ParseClients(*clientList)
	if len(clients) == 0 {
		fmt.Fprintln(os.Stderr, "--clients is required")
		os.Exit(1)
	}

	// Catalog rows are stored under alias member ids; the other tables
	// under the logical id.
	rules := config.DefaultRules()
	var members []string
	for _, c := range clients {
		members = append(members, rules.ExpandClient(c)...)
	}

	if !*checkOnly {
		if err := os.MkdirAll(*out, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "create output: %v\n", err)
			os.Exit(1)
		}
	}

	c := cutter{in: *in, out: *out, check: *checkOnly}
	cut(c, snapshot.ServiceTypesFile, func(r *model.ServiceTypeRow) bool { return slices.Contains(members, r.Client) })
	cut(c, snapshot.RecurringLookupFile, func(r *model.RecurringLookupRow) bool { return slices.Contains(clients, r.ClientID) })
	cut(c, snapshot.MergedServiceTypesFile, func(r *model.MergedServiceTypeRow) bool { return slices.Contains(clients, r.ClientID) })
	cut(c, snapshot.AppointmentsFile, func(r *model.AppointmentRow) bool { return slices.Contains(clients, r.ClientID) })
	cut(c, snapshot.SubscriptionsFile, func(r *model.SubscriptionRow) bool { return slices.Contains(clients, r.ClientID) })
}

type cutter struct {
	in, out string
	check   bool
}

// cut copies the rows of one snapshot file that keep accepts. A file absent
// from the input is skipped.
func cut[T any](c cutter, name string, keep func(*T) bool) {
	src := filepath.Join(c.in, name)
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("  %-30s missing, skipped\n", name)
		return
	}

	r, err := snapshot.Open[T](src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", name, err)
		os.Exit(1)
	}
	total := r.NumRows()
	r.Close()

	rows, err := snapshot.ReadAll(src, keep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", name, err)
		os.Exit(1)
	}
	fmt.Printf("  %-30s %8d of %8d rows\n", name, len(rows), total)
	if c.check {
		return
	}

	if err := snapshot.WriteFile(filepath.Join(c.out, name), rows); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", name, err)
		os.Exit(1)
	}
}
