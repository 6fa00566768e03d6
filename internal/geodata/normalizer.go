package geodata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"github.com/plaatsgids/discovery/internal/entity"
	"github.com/plaatsgids/discovery/internal/hours"
)

// ErrNoCategoryMapping indicates the category slug has no tag-filter entry.
// This is an operator error: the caller asked for a category the tables do
// not know.
var ErrNoCategoryMapping = fmt.Errorf("no tag mapping for category")

const defaultPhoneRegion = "NL"

// BBox is a south/west/north/east bounding box in WGS84 degrees.
type BBox struct {
	South float64
	West  float64
	North float64
	East  float64
}

func (b BBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.South, b.West, b.North, b.East)
}

// Candidate pairs a normalized business with the category slug its tags
// resolved to. Search callers already know the category; QueryCity callers
// need it per feature.
type Candidate struct {
	Business     entity.CandidateBusiness
	CategorySlug string
}

// Normalizer turns category or city queries into bounded geodata queries and
// maps the returned features onto candidate business records.
type Normalizer struct {
	client *Client
	log    *slog.Logger
}

// NewNormalizer wires a normalizer over a geodata client.
func NewNormalizer(client *Client, log *slog.Logger) *Normalizer {
	if log == nil {
		log = slog.Default()
	}
	return &Normalizer{client: client, log: log}
}

// Search queries one category within a bounding box and returns normalized
// candidates. Features without a usable name are filtered out.
func (n *Normalizer) Search(ctx context.Context, category string, box BBox) ([]entity.CandidateBusiness, error) {
	filters, ok := categoryFilters[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoCategoryMapping, category)
	}

	var query strings.Builder
	query.WriteString("[out:json][timeout:60];(")
	for _, f := range filters {
		fmt.Fprintf(&query, "nwr[%q=%q](%s);", f.Key, f.Value, box)
	}
	query.WriteString(");out center tags;")

	elements, err := n.client.Query(ctx, query.String())
	if err != nil {
		return nil, err
	}

	var businesses []entity.CandidateBusiness
	for _, el := range elements {
		business, ok := n.normalize(el)
		if !ok {
			continue
		}
		businesses = append(businesses, business)
	}

	n.log.Info("geodata search complete", "category", category, "features", len(elements), "candidates", len(businesses))
	return businesses, nil
}

// QueryCity fetches every feature within the named city area that matches any
// reverse category rule, regardless of which. Used for bulk city imports.
func (n *Normalizer) QueryCity(ctx context.Context, cityName string) ([]Candidate, error) {
	keys := make(map[string]bool)
	for _, rule := range categoryRules {
		keys[rule.Key] = true
	}

	var query strings.Builder
	fmt.Fprintf(&query, "[out:json][timeout:120];area[name=%q][boundary=administrative]->.city;(", cityName)
	for key := range keys {
		fmt.Fprintf(&query, "nwr[%q](area.city);", key)
	}
	query.WriteString(");out center tags;")

	elements, err := n.client.Query(ctx, query.String())
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, el := range elements {
		slug, ok := CategoryForTags(el.Tags)
		if !ok {
			continue
		}
		business, ok := n.normalize(el)
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{Business: business, CategorySlug: slug})
	}

	n.log.Info("geodata city query complete", "city", cityName, "features", len(elements), "candidates", len(candidates))
	return candidates, nil
}

// normalize maps one tagged feature onto a candidate business. Returns false
// when the feature has no usable name; name presence is a hard filter.
func (n *Normalizer) normalize(el Element) (entity.CandidateBusiness, bool) {
	name := strings.TrimSpace(el.Tags["name"])
	if name == "" {
		return entity.CandidateBusiness{}, false
	}

	externalID := el.ExternalID()
	business := entity.CandidateBusiness{
		ExternalID: &externalID,
		Name:       name,
		Source:     entity.SourceMapData,
		Status:     entity.StatusPending,
	}

	if lat, lon, ok := el.Position(); ok {
		business.Latitude = &lat
		business.Longitude = &lon
	}

	if address := buildAddress(el.Tags); address != "" {
		business.Address = &address
	}
	if phone := normalizePhone(firstTag(el.Tags, "contact:phone", "phone")); phone != "" {
		business.Phone = &phone
	}
	if website := normalizeWebsite(firstTag(el.Tags, "contact:website", "website", "url")); website != "" {
		business.Website = &website
	}
	if email := strings.TrimSpace(firstTag(el.Tags, "contact:email", "email")); email != "" {
		business.Email = &email
	}
	if parsed := hours.Parse(el.Tags["opening_hours"]); len(parsed) > 0 {
		business.OpeningHours = parsed
	}

	business.Raw = rawBag(el.Tags)
	return business, true
}

// buildAddress assembles "street housenumber, postcode city" from component
// tags, omitting whatever is missing.
func buildAddress(tags map[string]string) string {
	street := strings.TrimSpace(tags["addr:street"])
	if number := strings.TrimSpace(tags["addr:housenumber"]); number != "" && street != "" {
		street = street + " " + number
	}

	locality := strings.TrimSpace(tags["addr:postcode"])
	if city := strings.TrimSpace(tags["addr:city"]); city != "" {
		if locality != "" {
			locality = locality + " " + city
		} else {
			locality = city
		}
	}

	switch {
	case street != "" && locality != "":
		return street + ", " + locality
	case street != "":
		return street
	default:
		return locality
	}
}

func normalizePhone(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parsed, err := phonenumbers.Parse(value, defaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		// Keep the raw value: messy source data beats losing the field.
		return value
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

func normalizeWebsite(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if !strings.Contains(value, "://") {
		value = "https://" + value
	}
	parsed, err := url.Parse(value)
	if err != nil || parsed.Host == "" {
		return ""
	}
	if host, err := idna.Lookup.ToASCII(strings.ToLower(parsed.Hostname())); err == nil {
		port := parsed.Port()
		if port != "" {
			parsed.Host = host + ":" + port
		} else {
			parsed.Host = host
		}
	}
	return parsed.String()
}

// extraTags are the secondary hints worth carrying into the raw bag when the
// feature has them.
var extraTags = []string{
	"cuisine",
	"wheelchair",
	"payment:cash",
	"payment:cards",
	"contact:facebook",
	"contact:instagram",
	"contact:twitter",
}

func rawBag(tags map[string]string) json.RawMessage {
	bag := map[string]any{"tags": tags}

	extras := make(map[string]string)
	for _, key := range extraTags {
		if value := strings.TrimSpace(tags[key]); value != "" {
			extras[key] = value
		}
	}
	if len(extras) > 0 {
		bag["extras"] = extras
	}

	data, err := json.Marshal(bag)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, key := range keys {
		if value := tags[key]; value != "" {
			return value
		}
	}
	return ""
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from a business name.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
