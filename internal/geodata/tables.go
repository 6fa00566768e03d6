package geodata

// TagFilter selects map features carrying one key/value pair.
type TagFilter struct {
	Key   string
	Value string
}

// categoryFilters maps a directory category slug to the tag pairs that select
// it. Several categories need alternates because the same business type is
// tagged inconsistently across contributors.
var categoryFilters = map[string][]TagFilter{
	"restaurant":   {{"amenity", "restaurant"}},
	"cafe":         {{"amenity", "cafe"}},
	"bar":          {{"amenity", "bar"}, {"amenity", "pub"}},
	"bakery":       {{"shop", "bakery"}},
	"butcher":      {{"shop", "butcher"}},
	"supermarket":  {{"shop", "supermarket"}, {"shop", "convenience"}},
	"clothing":     {{"shop", "clothes"}, {"shop", "fashion"}},
	"hairdresser":  {{"shop", "hairdresser"}, {"shop", "beauty"}},
	"pharmacy":     {{"amenity", "pharmacy"}, {"healthcare", "pharmacy"}},
	"gym":          {{"leisure", "fitness_centre"}, {"amenity", "gym"}},
	"hotel":        {{"tourism", "hotel"}, {"tourism", "guest_house"}},
	"museum":       {{"tourism", "museum"}},
	"bookstore":    {{"shop", "books"}},
	"bike-shop":    {{"shop", "bicycle"}},
	"florist":      {{"shop", "florist"}},
	"dentist":      {{"amenity", "dentist"}, {"healthcare", "dentist"}},
	"veterinarian": {{"amenity", "veterinary"}},
	"garage":       {{"shop", "car_repair"}},
}

// categoryRule is one reverse-mapping entry used for bulk city imports where
// no category is given up front.
type categoryRule struct {
	Key   string
	Value string
	Slug  string
}

// categoryRules is evaluated in order; the first matching rule decides the
// category slug. Features matching no rule are skipped, not created. More
// specific values come before the broad shop/amenity catch cases.
var categoryRules = []categoryRule{
	{"amenity", "restaurant", "restaurant"},
	{"amenity", "cafe", "cafe"},
	{"amenity", "bar", "bar"},
	{"amenity", "pub", "bar"},
	{"amenity", "pharmacy", "pharmacy"},
	{"healthcare", "pharmacy", "pharmacy"},
	{"amenity", "dentist", "dentist"},
	{"healthcare", "dentist", "dentist"},
	{"amenity", "veterinary", "veterinarian"},
	{"amenity", "gym", "gym"},
	{"leisure", "fitness_centre", "gym"},
	{"tourism", "hotel", "hotel"},
	{"tourism", "guest_house", "hotel"},
	{"tourism", "museum", "museum"},
	{"shop", "bakery", "bakery"},
	{"shop", "butcher", "butcher"},
	{"shop", "supermarket", "supermarket"},
	{"shop", "convenience", "supermarket"},
	{"shop", "clothes", "clothing"},
	{"shop", "fashion", "clothing"},
	{"shop", "hairdresser", "hairdresser"},
	{"shop", "beauty", "hairdresser"},
	{"shop", "books", "bookstore"},
	{"shop", "bicycle", "bike-shop"},
	{"shop", "florist", "florist"},
	{"shop", "car_repair", "garage"},
}

// CategoryForTags resolves the directory category for a feature's tag set.
func CategoryForTags(tags map[string]string) (string, bool) {
	for _, rule := range categoryRules {
		if tags[rule.Key] == rule.Value {
			return rule.Slug, true
		}
	}
	return "", false
}

// KnownCategories lists every category slug the normalizer can search for.
func KnownCategories() []string {
	slugs := make([]string, 0, len(categoryFilters))
	for slug := range categoryFilters {
		slugs = append(slugs, slug)
	}
	return slugs
}
