package model

// FrequencyMonths translates a Monarch recurring-frequency string into the
// number of months between charges. Sub-monthly frequencies map to values
// below 1 and are treated as continuous saving rates by the projection
// calculator. Unknown frequencies default to monthly.
func FrequencyMonths(frequency string) float64 {
	switch frequency {
	case "weekly":
		return 0.25
	case "biweekly", "every_2_weeks":
		return 0.5
	case "twice_a_month", "semimonthly":
		return 0.5
	case "monthly":
		return 1
	case "every_2_months":
		return 2
	case "quarterly", "every_3_months":
		return 3
	case "every_4_months":
		return 4
	case "semiannually", "every_6_months":
		return 6
	case "annually", "yearly":
		return 12
	case "every_2_years":
		return 24
	default:
		return 1
	}
}
