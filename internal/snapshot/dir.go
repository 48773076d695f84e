package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/rs/zerolog"

	"github.com/gyeh/stclassify/internal/config"
	"github.com/gyeh/stclassify/internal/model"
	"github.com/gyeh/stclassify/internal/normalize"
)

// Snapshot file names inside a snapshot directory.
const (
	ServiceTypesFile       = "service_types.parquet"
	RecurringLookupFile    = "recurring_lookup.parquet"
	MergedServiceTypesFile = "merged_service_types.parquet"
	AppointmentsFile       = "appointments.parquet"
	SubscriptionsFile      = "subscriptions.parquet"
)

// Dir reads classification inputs from a directory of Parquet snapshots.
// It implements classify.Source. Only service_types.parquet is required;
// a missing file for any other table reads as empty.
type Dir struct {
	path  string
	rules *config.Rules
	log   zerolog.Logger
}

// OpenDir checks that path holds a snapshot and logs each file's hash so a
// run can be tied to its inputs.
func OpenDir(path string, rules *config.Rules, log zerolog.Logger) (*Dir, error) {
	d := &Dir{path: path, rules: rules, log: log}
	for _, name := range []string{ServiceTypesFile, RecurringLookupFile, MergedServiceTypesFile, AppointmentsFile, SubscriptionsFile} {
		p := filepath.Join(path, name)
		sha, err := normalize.FileHash(p)
		if errors.Is(err, fs.ErrNotExist) {
			if name == ServiceTypesFile {
				return nil, fmt.Errorf("snapshot %s: %s is required", path, name)
			}
			log.Warn().Str("file", name).Msg("snapshot file missing, table reads as empty")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", name, err)
		}
		log.Info().Str("file", name).Str("sha256", sha).Msg("snapshot file")
	}
	return d, nil
}

// Clients returns the distinct catalog clients, with alias members reported
// under their logical id.
func (d *Dir) Clients(ctx context.Context) ([]string, error) {
	rows, err := readTable[model.ServiceTypeRow](d.path, ServiceTypesFile, nil)
	if err != nil {
		return nil, err
	}
	var ids []string
	for i := range rows {
		if rows[i].Client != "" {
			ids = append(ids, rows[i].Client)
		}
	}
	return d.rules.LogicalClients(ids), nil
}

// Load reads the rows for clientID from every snapshot file.
func (d *Dir) Load(ctx context.Context, clientID string) (*model.ClientData, error) {
	data := &model.ClientData{ClientID: clientID}
	members := d.rules.ExpandClient(clientID)

	stRows, err := readTable(d.path, ServiceTypesFile, func(r *model.ServiceTypeRow) bool {
		return slices.Contains(members, r.Client)
	})
	if err != nil {
		return nil, err
	}
	for i := range stRows {
		stRows[i].Client = clientID
		data.ServiceTypes = append(data.ServiceTypes, normalize.ToServiceType(&stRows[i]))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lkRows, err := readTable(d.path, RecurringLookupFile, func(r *model.RecurringLookupRow) bool {
		return r.ClientID == clientID
	})
	if err != nil {
		return nil, err
	}
	for i := range lkRows {
		data.Lookup = append(data.Lookup, normalize.ToRecurringLookup(&lkRows[i]))
	}

	mgRows, err := readTable(d.path, MergedServiceTypesFile, func(r *model.MergedServiceTypeRow) bool {
		return r.ClientID == clientID
	})
	if err != nil {
		return nil, err
	}
	for i := range mgRows {
		data.MergedTypes = append(data.MergedTypes, normalize.ToMergedServiceType(&mgRows[i]))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	apRows, err := readTable(d.path, AppointmentsFile, func(r *model.AppointmentRow) bool {
		return r.ClientID == clientID && r.IndividualAccountID != ""
	})
	if err != nil {
		return nil, err
	}
	for i := range apRows {
		data.Appointments = append(data.Appointments, normalize.ToAppointment(&apRows[i]))
	}

	sbRows, err := readTable(d.path, SubscriptionsFile, func(r *model.SubscriptionRow) bool {
		return r.ClientID == clientID
	})
	if err != nil {
		return nil, err
	}
	for i := range sbRows {
		data.Subscriptions = append(data.Subscriptions, normalize.ToSubscription(&sbRows[i]))
	}
	return data, nil
}

// readTable reads one snapshot file, treating a missing file as empty.
func readTable[T any](dir, name string, keep func(*T) bool) ([]T, error) {
	p := filepath.Join(dir, name)
	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) && name != ServiceTypesFile {
		return nil, nil
	}
	rows, err := ReadAll(p, keep)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return rows, nil
}
