package warehouse

import (
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/gyeh/stclassify/internal/config"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// safeInt casts a text flag column to bigint, yielding NULL for anything
// that is not an integer.
func safeInt(col string) string {
	return fmt.Sprintf(`CASE WHEN btrim(%[1]q) ~ '^-?[0-9]+$' THEN btrim(%[1]q)::bigint END AS %[1]q`, col)
}

// clientsQuery lists every distinct client in the service type catalog.
func clientsQuery(t config.Tables) (string, []any, error) {
	return psql.Select("DISTINCT client").
		From(t.ServiceTypes).
		Where("client IS NOT NULL").
		Where("btrim(client) <> ''").
		OrderBy("client").
		ToSql()
}

// serviceTypesQuery selects the latest load of each (client, type) for the
// given warehouse client ids. Columns follow model.ServiceTypeRow.
func serviceTypesQuery(t config.Tables, clients []string) (string, []any, error) {
	latest := psql.Select("*", "ROW_NUMBER() OVER (PARTITION BY client, type_id ORDER BY date_loaded DESC NULLS LAST) AS rn").
		From(t.ServiceTypes).
		Where(squirrel.Eq{"client": clients}).
		Where("type_id IS NOT NULL")

	return psql.Select(
		"client",
		"type_id",
		"description",
		safeInt("reservice"),
		safeInt("regular_service"),
		safeInt("frequency"),
		safeInt("default_length"),
		safeInt("initial_id"),
		safeInt("initial"),
		"COALESCE(date_loaded::text, '') AS date_loaded",
	).
		FromSelect(latest, "st").
		Where("rn = 1").
		OrderBy("type_id", "client").
		ToSql()
}

// recurringLookupQuery columns follow model.RecurringLookupRow.
func recurringLookupQuery(t config.Tables, clientID string) (string, []any, error) {
	return psql.Select(
		"client_id",
		"COALESCE(service_type, '')",
		"COALESCE(is_recurring, '')",
	).
		From(t.RecurringLookup).
		Where(squirrel.Eq{"client_id": clientID}).
		ToSql()
}

// mergedServiceTypesQuery columns follow model.MergedServiceTypeRow.
func mergedServiceTypesQuery(t config.Tables, clientID string) (string, []any, error) {
	return psql.Select("client_id", "type_id", "description").
		From(t.MergedServiceTypes).
		Where(squirrel.Eq{"client_id": clientID}).
		Where("type_id IS NOT NULL").
		OrderBy("type_id").
		ToSql()
}

// appointmentsQuery columns follow model.AppointmentRow. Rows without an
// account or type cannot contribute evidence and are left out.
func appointmentsQuery(t config.Tables, clientID string) (string, []any, error) {
	return psql.Select(
		"individual_account_id",
		"type",
		"COALESCE(appointment_date::text, '')",
		"client_id",
	).
		From(t.Appointments).
		Where(squirrel.Eq{"client_id": clientID}).
		Where(squirrel.NotEq{"individual_account_id": nil, "type": nil}).
		ToSql()
}

// subscriptionsQuery columns follow model.SubscriptionRow.
func subscriptionsQuery(t config.Tables, clientID string) (string, []any, error) {
	return psql.Select(
		"COALESCE(subscription_id::text, '')",
		"COALESCE(service_id::text, '')",
		"annual_recurring_services::text",
		"COALESCE(active, false)",
		"date_cancelled::text",
		"client_id",
	).
		From(t.Subscriptions).
		Where(squirrel.Eq{"client_id": clientID}).
		OrderBy("subscription_id").
		ToSql()
}

// discardQuery deletes one client's rows from a results table.
func discardQuery(table, clientColumn, clientID string) (string, []any, error) {
	return psql.Delete(table).
		Where(squirrel.Eq{clientColumn: clientID}).
		ToSql()
}
