package model

// Source is a candidate supporting document returned by evidence search
type Source struct {
	Title     string        `json:"title"`
	URL       string        `json:"url"`
	Origin    SourceOrigin  `json:"origin"`
	Authority AuthorityTier `json:"authority,omitempty"` // Informational only, never affects ranking
}

// SourceOrigin identifies which corpus produced a source
type SourceOrigin string

const (
	OriginFactCheckRegistry SourceOrigin = "fact_check_registry" // Published fact-check reviews
	OriginAcademicSearch    SourceOrigin = "academic_search"     // Academic paper search
)

// AuthorityTier represents the classification of source authority
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Academic papers, official documents, .gov/.edu
	TierSecondary AuthorityTier = 2 // Fact-check outlets, encyclopedias, reputable media
	TierTertiary  AuthorityTier = 3 // Blogs, personal websites
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// MarshalText renders the tier by name in JSON and YAML output
func (t AuthorityTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a tier name written by MarshalText
func (t *AuthorityTier) UnmarshalText(text []byte) error {
	switch string(text) {
	case "primary":
		*t = TierPrimary
	case "secondary":
		*t = TierSecondary
	case "tertiary":
		*t = TierTertiary
	default:
		*t = TierUnknown
	}
	return nil
}
