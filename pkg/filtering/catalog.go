// Package filtering classifies block and allow list lines into domain
// directives and loads whole lists into rule sets.
package filtering

// ListDefinition describes a built-in list.
type ListDefinition struct {
	ID          string
	Name        string
	URL         string
	Mirrors     []string
	Kind        Kind
	Category    string
	Description string
}

// Catalog lists the built-in lists available for selection.
var Catalog = map[string]ListDefinition{
	"adguard_dns": {
		ID:          "adguard_dns",
		Name:        "AdGuard DNS Filter",
		URL:         "https://adguardteam.github.io/AdGuardSDNSFilter/Filters/filter.txt",
		Kind:        KindFilter,
		Category:    "ads",
		Description: "Ad and tracker blocking list in filter syntax.",
	},
	"easylist": {
		ID:   "easylist",
		Name: "EasyList",
		URL:  "https://easylist.to/easylist/easylist.txt",
		Mirrors: []string{
			"https://easylist-downloads.adblockplus.org/easylist.txt",
		},
		Kind:        KindFilter,
		Category:    "ads",
		Description: "Primary advertising filter list.",
	},
	"easyprivacy": {
		ID:   "easyprivacy",
		Name: "EasyPrivacy",
		URL:  "https://easylist.to/easylist/easyprivacy.txt",
		Mirrors: []string{
			"https://easylist-downloads.adblockplus.org/easyprivacy.txt",
		},
		Kind:        KindFilter,
		Category:    "tracking",
		Description: "Tracking and telemetry filter list.",
	},
	"phishing_filter": {
		ID:   "phishing_filter",
		Name: "Phishing URL Blocklist",
		URL:  "https://curbengh.github.io/phishing-filter/phishing-filter-agh.txt",
		Mirrors: []string{
			"https://phishing-filter.pages.dev/phishing-filter-agh.txt",
		},
		Kind:        KindFilter,
		Category:    "phishing",
		Description: "Hosts associated with phishing campaigns.",
	},
	"peter_lowe": {
		ID:          "peter_lowe",
		Name:        "Peter Lowe's Ad and tracking server list",
		URL:         "https://pgl.yoyo.org/adservers/serverlist.php?hostformat=hosts&showintro=0&mimetype=plaintext",
		Kind:        KindHosts,
		Category:    "ads",
		Description: "Ad and tracking servers in hosts format.",
	},
	"stevenblack_adult": {
		ID:          "stevenblack_adult",
		Name:        "StevenBlack - Porn Only",
		URL:         "https://raw.githubusercontent.com/StevenBlack/hosts/master/alternates/porn-only/hosts",
		Kind:        KindHosts,
		Category:    "porn",
		Description: "Adult content list without ad/tracker blocking.",
	},
	"blocklistproject_malware": {
		ID:          "blocklistproject_malware",
		Name:        "Block List Project - Malware",
		URL:         "https://blocklistproject.github.io/Lists/malware.txt",
		Kind:        KindHosts,
		Category:    "malware",
		Description: "Hosts associated with malware distribution.",
	},
	"blocklistproject_ads": {
		ID:          "blocklistproject_ads",
		Name:        "Block List Project - Ads",
		URL:         "https://blocklistproject.github.io/Lists/ads.txt",
		Kind:        KindHosts,
		Category:    "ads",
		Description: "Advertising and tracking hosts.",
	},
	"oisd_small": {
		ID:          "oisd_small",
		Name:        "OISD Small",
		URL:         "https://small.oisd.nl/",
		Kind:        KindFilter,
		Category:    "ads",
		Description: "Ad and tracker blocking list in filter syntax.",
	},
}
