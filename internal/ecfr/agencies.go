package ecfr

import (
	"fmt"
	"strconv"
)

// ReservedAgency is the sentinel agency for reserved titles.
const ReservedAgency = "Reserved"

// titleAgencies maps CFR title numbers to the agency name responsible
// for them. Numbers without a dedicated entry resolve to a generic
// federal-agency name.
var titleAgencies = map[int]string{
	1:  "General Provisions",
	2:  "Grants and Agreements",
	3:  "The President",
	4:  "Accounts",
	5:  "Administrative Personnel",
	7:  "Agriculture",
	8:  "Aliens and Nationality",
	9:  "Animals and Animal Products",
	10: "Energy",
	12: "Banks and Banking",
	14: "Aeronautics and Space",
	15: "Commerce and Foreign Trade",
	16: "Commercial Practices",
	17: "Commodity and Securities Exchanges",
	18: "Conservation of Power and Water Resources",
	19: "Customs Duties",
	20: "Employees' Benefits",
	21: "Food and Drugs",
	22: "Foreign Relations",
	24: "Housing and Urban Development",
	25: "Indians",
	26: "Internal Revenue",
	27: "Alcohol, Tobacco Products and Firearms",
	28: "Judicial Administration",
	29: "Labor",
	30: "Mineral Resources",
	32: "National Defense",
	33: "Navigation and Navigable Waters",
	34: "Education",
	36: "Parks, Forests, and Public Property",
	38: "Pensions, Bonuses, and Veterans' Relief",
	40: "Protection of Environment",
	41: "Public Contracts and Property Management",
	42: "Public Health",
	43: "Public Lands: Interior",
	44: "Emergency Management and Assistance",
	45: "Public Welfare",
	46: "Shipping",
	47: "Telecommunication",
	48: "Federal Acquisition Regulations System",
	49: "Transportation",
	50: "Wildlife and Fisheries",
}

// ResolveAgency maps a raw title number to its agency name. Numbers
// outside the table resolve to "Federal Agency (Title n)"; inputs
// that are not a number resolve to "Unknown Agency".
func ResolveAgency(titleNumber string) string {
	n, err := strconv.Atoi(titleNumber)
	if err != nil {
		return "Unknown Agency"
	}
	if name, ok := titleAgencies[n]; ok {
		return name
	}
	return fmt.Sprintf("Federal Agency (Title %d)", n)
}
