package normalize

import (
	"strings"

	"github.com/gyeh/stclassify/internal/model"
)

// ToServiceType converts a snapshot catalog row. An unparseable load date
// leaves LoadedAt zero, so the row loses any de-duplication tie.
func ToServiceType(row *model.ServiceTypeRow) model.ServiceType {
	st := model.ServiceType{
		ClientID:    row.Client,
		TypeID:      row.TypeID,
		Description: row.Description,
		Flags: model.VendorFlags{
			Frequency:      row.Frequency,
			Reservice:      row.Reservice,
			DefaultLength:  row.DefaultLength,
			RegularService: row.RegularService,
			InitialID:      row.InitialID,
			Initial:        row.Initial,
		},
	}
	if t := ParseDate(row.DateLoaded); t != nil {
		st.LoadedAt = *t
	}
	return st
}

// ToRecurringLookup converts a sales-mapping row, normalizing the flag text.
func ToRecurringLookup(row *model.RecurringLookupRow) model.RecurringLookup {
	return model.RecurringLookup{
		ClientID:    row.ClientID,
		ServiceType: row.ServiceType,
		IsRecurring: strings.ToUpper(strings.TrimSpace(row.IsRecurring)),
	}
}

// ToMergedServiceType converts a merged catalog row.
func ToMergedServiceType(row *model.MergedServiceTypeRow) model.MergedServiceType {
	return model.MergedServiceType{
		ClientID:    row.ClientID,
		TypeID:      row.TypeID,
		Description: row.Description,
	}
}

// ToAppointment converts an appointment row. Unparseable dates yield a zero
// VisitDate, which the recurrence detector drops.
func ToAppointment(row *model.AppointmentRow) model.Appointment {
	a := model.Appointment{
		AccountID: row.IndividualAccountID,
		TypeID:    row.Type,
		ClientID:  row.ClientID,
	}
	if t := ParseDate(row.AppointmentDate); t != nil {
		a.VisitDate = *t
	}
	return a
}

// ToSubscription converts a subscription row.
func ToSubscription(row *model.SubscriptionRow) model.Subscription {
	return model.Subscription{
		SubscriptionID:       row.SubscriptionID,
		ServiceID:            strings.TrimSpace(row.ServiceID),
		Active:               row.Active,
		CancelledAt:          ParseDatePtr(row.DateCancelled),
		ClientID:             row.ClientID,
		AnnualRecurringValue: row.AnnualRecurringServices,
	}
}
