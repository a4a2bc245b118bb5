package reviews

// AllowedLocations is the fixed set of locations a new review may be filed under
var AllowedLocations = []string{
	"Albuquerque, New Mexico",
	"Carlsbad, California",
	"Chula Vista, California",
	"Colorado Springs, Colorado",
	"Denver, Colorado",
	"El Cajon, California",
	"El Paso, Texas",
	"Escondido, California",
	"Fresno, California",
	"La Mesa, California",
	"Las Vegas, Nevada",
	"Los Angeles, California",
	"Oceanside, California",
	"Phoenix, Arizona",
	"Sacramento, California",
	"Salt Lake City, Utah",
	"San Diego, California",
	"Tucson, Arizona",
}

var allowedLocationSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(AllowedLocations))
	for _, location := range AllowedLocations {
		set[location] = struct{}{}
	}
	return set
}()

// IsAllowedLocation reports whether location is on the allow-list (exact match)
func IsAllowedLocation(location string) bool {
	_, ok := allowedLocationSet[location]
	return ok
}
