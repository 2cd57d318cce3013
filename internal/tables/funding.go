package tables

import "github.com/JonMunkholm/csvtable/internal/table"

// Column classes shared by the stylesheet.
const (
	classText      = "text-column"
	classNumeric   = "numeric-column"
	classShortText = "short-text-column"
)

func init() {
	registerFunding()
}

// registerFunding registers the startup funding rounds table.
func registerFunding() {
	table.Register(table.Definition{
		Info: table.Info{
			Key:    "funding",
			Label:  "Startup Funding",
			Source: "funding.csv",
		},
		Columns: []table.Column{
			{Name: "permalink", Label: "Permalink", Class: classText},
			{Name: "company", Label: "Company", Class: classText},
			{Name: "numEmps", Label: "Employees", Class: classNumeric, Kind: table.Number{}},
			{Name: "category", Label: "Category"},
			{Name: "city", Label: "City"},
			{Name: "state", Label: "State", Class: classShortText},
			{Name: "fundedDate", Label: "Funded When", Kind: table.Date{}},
			{Name: "raisedAmt", Label: "Amount Raised", Class: classNumeric, Kind: table.Currency{Units: 1, SymbolColumn: "raisedCurrency"}},
			{Name: "raisedCurrency", Label: "Currency", Class: classShortText, Kind: table.CurrencyName{}},
			{Name: "round", Label: "Round"},
		},
	})
}
