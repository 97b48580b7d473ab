package domain

import "strings"

// Site is a canonical physical location code.
// Rooms belong to exactly one site; trainers and mobile units may be
// affiliated with several.
type Site string

const (
	SiteNorthCampus Site = "north_campus"
	SiteSouthCampus Site = "south_campus"

	// SiteInCompany marks training delivered at the customer's premises.
	// Events on this pseudo-site never require a room.
	SiteInCompany Site = "in_company"

	// SiteUnknown is returned when a legacy label cannot be normalized
	SiteUnknown Site = ""
)

// CampusSites lists the sites that own physical resources.
// Availability is aggregated per campus; in_company has no resource pool.
var CampusSites = []Site{SiteNorthCampus, SiteSouthCampus}

// siteAliases maps legacy free-text site labels, as found on deals and old
// variant rows, to canonical site codes. Lookup is case-insensitive on the
// trimmed label. Kept as an explicit table so the mapping stays testable.
var siteAliases = map[string]Site{
	"north_campus":      SiteNorthCampus,
	"campus norte":      SiteNorthCampus,
	"sede norte":        SiteNorthCampus,
	"madrid norte":      SiteNorthCampus,
	"formación norte":   SiteNorthCampus,
	"south_campus":      SiteSouthCampus,
	"campus sur":        SiteSouthCampus,
	"sede sur":          SiteSouthCampus,
	"madrid sur":        SiteSouthCampus,
	"formación sur":     SiteSouthCampus,
	"in_company":        SiteInCompany,
	"in company":        SiteInCompany,
	"empresa":           SiteInCompany,
	"en cliente":        SiteInCompany,
	"cliente":           SiteInCompany,
	"a domicilio":       SiteInCompany,
	"incompany":         SiteInCompany,
}

// NormalizeSiteLabel resolves a declared site label to a canonical Site.
// Unknown or empty labels normalize to SiteUnknown.
func NormalizeSiteLabel(label string) Site {
	key := strings.ToLower(strings.TrimSpace(label))
	if key == "" {
		return SiteUnknown
	}
	if site, ok := siteAliases[key]; ok {
		return site
	}
	return SiteUnknown
}

// IsCampus returns true if the site owns a physical resource pool
func (s Site) IsCampus() bool {
	for _, campus := range CampusSites {
		if s == campus {
			return true
		}
	}
	return false
}
