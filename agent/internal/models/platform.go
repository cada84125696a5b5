package models

// Platform identifies one gated site family. Visits and session consent are keyed by it.
type Platform string

const (
	PlatformLinkedIn Platform = "linkedin"
	PlatformTwitter  Platform = "twitter"
	PlatformFacebook Platform = "facebook"
	PlatformSocial   Platform = "social"
	PlatformMedia    Platform = "media"
	PlatformCustom   Platform = "custom"
	PlatformAI       Platform = "ai"
)

// AllPlatforms lists every platform in a stable order.
var AllPlatforms = []Platform{
	PlatformLinkedIn,
	PlatformTwitter,
	PlatformFacebook,
	PlatformSocial,
	PlatformMedia,
	PlatformCustom,
	PlatformAI,
}

func (p Platform) Valid() bool {
	for _, known := range AllPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

// BlockType names the rule that produced a Deny.
type BlockType string

const (
	BlockNone           BlockType = ""
	BlockVacation       BlockType = "vacation"
	BlockWeekend        BlockType = "weekend"
	BlockOutsideHours   BlockType = "outside_hours"
	BlockAlreadyVisited BlockType = "already_visited"
)

func (b BlockType) Valid() bool {
	switch b {
	case BlockVacation, BlockWeekend, BlockOutsideHours, BlockAlreadyVisited:
		return true
	}
	return false
}

// CategoryKey is the key of a category inside SiteConfiguration.
type CategoryKey string

const (
	CategoryAI     CategoryKey = "aiSites"
	CategorySocial CategoryKey = "socialMediaSites"
	CategoryNews   CategoryKey = "newsSites"
	CategoryCustom CategoryKey = "customSites"
)

// AllCategories lists category keys in their persisted order.
var AllCategories = []CategoryKey{CategoryAI, CategorySocial, CategoryNews, CategoryCustom}

func (c CategoryKey) Valid() bool {
	switch c {
	case CategoryAI, CategorySocial, CategoryNews, CategoryCustom:
		return true
	}
	return false
}

// brandDomains maps well-known social domains onto their own platform.
var brandDomains = map[string]Platform{
	"linkedin.com": PlatformLinkedIn,
	"twitter.com":  PlatformTwitter,
	"x.com":        PlatformTwitter,
	"facebook.com": PlatformFacebook,
	"fb.com":       PlatformFacebook,
}

// PlatformFor returns the platform a site of the given category is gated as.
func PlatformFor(category CategoryKey, domain string) Platform {
	switch category {
	case CategoryAI:
		return PlatformAI
	case CategoryNews:
		return PlatformMedia
	case CategoryCustom:
		return PlatformCustom
	case CategorySocial:
		if p, ok := brandDomains[domain]; ok {
			return p
		}
		return PlatformSocial
	}
	return PlatformCustom
}
