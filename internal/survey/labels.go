package survey

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxLabelLength is the longest display label before truncation.
const MaxLabelLength = 30

// questionLabels holds the human-readable prompt for each field, per year.
// Fields missing here fall back to FormatFieldName.
var questionLabels = map[int]map[string]string{
	2021: {
		"email_address":                    "Email address",
		"firm_name":                        "Name of firm",
		"participant_name":                 "Name of participant",
		"role_title":                       "Role / title of participant",
		"team_based":                       "Where is your team based?",
		"geographic_focus":                 "What is the geographic focus of your fund/vehicle?",
		"fund_stage":                       "What is the stage of your current fund/vehicle's operations?",
		"current_fund_size":                "What is the current size of your fund (USD)?",
		"target_fund_size":                 "What is the target size of your fund (USD)?",
		"target_irr":                       "What is your target IRR (USD)?",
		"legal_domicile":                   "Where is the legal domicile of your fund?",
		"currency_investments":             "In what currency do you make investments?",
		"currency_lp_commitments":          "In what currency are LP commitments made?",
		"typical_investment_size":          "What is your typical investment size (USD)?",
		"covid_impact_aggregate":           "What has been the aggregate impact of COVID-19 on your portfolio?",
		"network_value_rating":             "How valuable has the network been to you?",
		"additional_comments":              "Any additional comments?",
		"gender_considerations_investment": "Which gender considerations apply to your investment decisions?",
	},
	2022: {
		"email_address":           "Email address",
		"organisation_name":       "Name of organisation",
		"fund_name":               "Name of fund",
		"geographic_markets":      "In which geographic markets do you invest?",
		"team_based":              "Where is your team based?",
		"current_ftes":            "Current number of full-time staff",
		"legal_domicile":          "Where is the legal domicile of your fund?",
		"currency_investments":    "In what currency do you make investments?",
		"currency_lp_commitments": "In what currency are LP commitments made?",
		"target_fund_size":        "What is the target size of your fund (USD)?",
		"target_irr":              "What is your target IRR (USD)?",
		"business_stages":         "Which business stages do you target?",
		"financing_needs":         "Which financing needs do you address?",
		"sector_activities":       "In which sectors do you invest?",
		"average_investment_size": "What is your average investment size (USD)?",
		"portfolio_count":         "How many portfolio companies do you have?",
		"fund_priorities":         "What are your fund priorities for the next 12 months?",
		"receive_results":         "Would you like to receive the survey results?",
	},
	2023: {
		"email_address":           "Email address",
		"organisation_name":       "Name of organisation",
		"fund_name":               "Name of fund",
		"geographic_markets":      "In which geographic markets do you invest?",
		"team_based":              "Where is your team based?",
		"legal_domicile":          "Where is the legal domicile of your fund?",
		"currency_investments":    "In what currency do you make investments?",
		"currency_lp_commitments": "In what currency are LP commitments made?",
		"target_fund_size":        "What is the target size of your fund (USD)?",
		"concessionary_capital":   "Does your fund use concessionary capital?",
		"lp_capital_sources":      "What are your sources of LP capital?",
		"gp_management_fee":       "What management fee does the GP charge?",
		"hurdle_rate":             "What is your hurdle rate?",
		"sector_focus":            "Which sectors do you focus on?",
		"average_investment_size": "What is your average investment size (USD)?",
		"portfolio_count":         "How many portfolio companies do you have?",
		"fund_priorities":         "What are your fund priorities for the next 12 months?",
		"additional_comments":     "Any additional comments?",
	},
	2024: {
		"email_address":                       "Email address",
		"investment_networks":                 "Which investment networks are you a member of?",
		"organisation_name":                   "Name of organisation",
		"fund_name":                           "Name of fund",
		"geographic_markets":                  "In which geographic markets do you invest?",
		"team_based":                          "Where is your team based?",
		"legal_domicile":                      "Where is the legal domicile of your fund?",
		"currency_investments":                "In what currency do you make investments?",
		"currency_lp_commitments":             "In what currency are LP commitments made?",
		"target_fund_size":                    "What is the target size of your fund (USD)?",
		"fund_stage":                          "What is the stage of your fund?",
		"sector_target_allocation":            "What is your target sector allocation?",
		"average_investment_size_per_company": "What is your average investment size per company (USD)?",
		"portfolio_count":                     "How many portfolio companies do you have?",
		"fund_priorities_next_12_months":      "What are your fund priorities for the next 12 months?",
		"receive_results":                     "Would you like to receive the survey results?",
	},
}

// legalDomicileLabels names the domicile codes used across survey years.
var legalDomicileLabels = map[string]string{
	"mauritius":      "Mauritius",
	"south_africa":   "South Africa",
	"kenya":          "Kenya",
	"nigeria":        "Nigeria",
	"ghana":          "Ghana",
	"rwanda":         "Rwanda",
	"uganda":         "Uganda",
	"tanzania":       "Tanzania",
	"senegal":        "Senegal",
	"cote_divoire":   "Côte d'Ivoire",
	"drc":            "Democratic Republic of the Congo",
	"egypt":          "Egypt",
	"morocco":        "Morocco",
	"tunisia":        "Tunisia",
	"netherlands":    "Netherlands",
	"dutch_antilles": "Dutch Antilles",
	"luxembourg":     "Luxembourg",
	"ireland":        "Ireland",
	"uk":             "United Kingdom",
	"usa":            "United States",
	"delaware":       "Delaware (USA)",
	"cayman_islands": "Cayman Islands",
	"bvi":            "British Virgin Islands",
	"other":          "Other",
}

// currencyLabels names the currency codes used in the currency questions.
var currencyLabels = map[string]string{
	"usd":        "USD",
	"eur":        "EUR",
	"gbp":        "GBP",
	"lcu":        "Local Currency",
	"local":      "Local Currency",
	"usd_lcu":    "USD & Local Currency",
	"multi":      "Multiple Currencies",
	"eur_lcu":    "EUR & Local Currency",
	"hard_local": "Hard & Local Currency",
}

// valueFormatters overrides the default label formatting for specific fields.
var valueFormatters = map[string]func(string) string{
	"legal_domicile":          formatLegalDomicile,
	"currency_investments":    lookupFormatter(currencyLabels),
	"currency_lp_commitments": lookupFormatter(currencyLabels),
}

func lookupFormatter(table map[string]string) func(string) string {
	return func(raw string) string {
		if label, ok := table[strings.ToLower(raw)]; ok {
			return label
		}
		return FormatFieldName(raw)
	}
}

// QuestionLabel returns the prompt for field in year, falling back to a
// formatted field name when no label is registered.
func QuestionLabel(field string, year int) string {
	if label, ok := questionLabels[year][field]; ok {
		return label
	}
	return FormatFieldName(field)
}

// FormatFieldName replaces underscores with spaces and upper-cases the
// first letter of each word. The rest of each word is left unchanged.
func FormatFieldName(s string) string {
	upper := cases.Upper(language.Und)
	words := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = upper.String(string(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// FormatValueLabel renders a stringified raw value for field.
func FormatValueLabel(field, raw string) string {
	if f, ok := valueFormatters[field]; ok {
		return f(raw)
	}
	return FormatFieldName(raw)
}

// LegalDomicileLabel returns the registered name for a domicile code.
func LegalDomicileLabel(code string) (string, bool) {
	label, ok := legalDomicileLabels[strings.ToLower(code)]
	return label, ok
}

func formatLegalDomicile(raw string) string {
	if label, ok := LegalDomicileLabel(raw); ok {
		return label
	}
	return FormatFieldName(raw)
}

// TruncateLabel shortens labels longer than MaxLabelLength runes and
// appends an ellipsis.
func TruncateLabel(label string) string {
	if utf8.RuneCountInString(label) <= MaxLabelLength {
		return label
	}
	runes := []rune(label)
	return string(runes[:MaxLabelLength]) + "..."
}
