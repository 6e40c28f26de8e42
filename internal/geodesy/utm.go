// Package geodesy converts between UTM grid coordinates and WGS84 latitude/longitude.
//
// Survey spreadsheets carry parcel centroids as UTM easting/northing pairs (zone 47N for the
// parks this system was built for). The inverse series here is the classic ellipsoidal
// transverse-Mercator expansion; it is accurate to well below a centimetre inside a zone and
// degrades gracefully (without failing) far outside it.
package geodesy

import (
	"math"
	"strings"
)

// WGS84 ellipsoid and UTM projection constants.
const (
	SemiMajorAxis = 6378137.0
	Flattening    = 1 / 298.257223563
	ScaleFactor   = 0.9996

	falseEasting          = 500000.0
	southernFalseNorthing = 10000000.0

	// Precision is the number of decimal places kept on converted degrees (~1 cm).
	Precision = 7
)

// Hemisphere selects the false northing applied to a UTM zone.
type Hemisphere int

const (
	North Hemisphere = iota
	South
)

// String returns "north" or "south".
func (h Hemisphere) String() string {
	if h == South {
		return "south"
	}
	return "north"
}

// ParseHemisphere accepts "n", "north", "s" or "south" (any case). Anything else is North.
func ParseHemisphere(s string) Hemisphere {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "south":
		return South
	}
	return North
}

var (
	eccSq      = 2*Flattening - Flattening*Flattening // e²
	eccPrimeSq = eccSq / (1 - eccSq)                  // e'²
)

// HasCoordinate reports whether an easting/northing pair should be treated as supplied.
// Zero or negative values mean the surveyor left the cell empty.
func HasCoordinate(easting, northing float64) bool {
	return easting > 0 && northing > 0
}

// CentralMeridian returns the central meridian of a UTM zone in degrees.
func CentralMeridian(zone int) float64 {
	return float64((zone-1)*6 - 180 + 3)
}

// ToLatLng converts a UTM coordinate into latitude and longitude in degrees,
// rounded to Precision decimal places.
func ToLatLng(easting, northing float64, zone int, hemisphere Hemisphere) (lat, lng float64) {
	latRad, lngRad := inverse(easting, northing, zone, hemisphere)
	return round(radToDeg(latRad)), round(radToDeg(lngRad))
}

// inverse returns unrounded latitude/longitude in radians.
func inverse(easting, northing float64, zone int, hemisphere Hemisphere) (float64, float64) {
	a := SemiMajorAxis
	e2 := eccSq
	ep2 := eccPrimeSq

	x := easting - falseEasting
	y := northing
	if hemisphere == South {
		y -= southernFalseNorthing
	}

	m := y / ScaleFactor
	mu := m / (a * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	sqrt1e2 := math.Sqrt(1 - e2)
	e1 := (1 - sqrt1e2) / (1 + sqrt1e2)

	phi1 := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	sinPhi1 := math.Sin(phi1)
	cosPhi1 := math.Cos(phi1)
	tanPhi1 := math.Tan(phi1)

	c1 := ep2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	n1 := a / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	r1 := a * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := x / (n1 * ScaleFactor)

	lat := phi1 - (n1*tanPhi1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*math.Pow(d, 4)/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*math.Pow(d, 6)/720)

	lng0 := degToRad(CentralMeridian(zone))
	lng := lng0 + (d-
		(1+2*t1+c1)*math.Pow(d, 3)/6+
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*math.Pow(d, 5)/120)/cosPhi1

	return lat, lng
}

// FromLatLng projects latitude/longitude in degrees onto the given UTM zone.
// It is the forward counterpart of ToLatLng and is not rounded.
func FromLatLng(lat, lng float64, zone int, hemisphere Hemisphere) (easting, northing float64) {
	a := SemiMajorAxis
	e2 := eccSq
	ep2 := eccPrimeSq

	phi := degToRad(lat)
	lambda := degToRad(lng)
	lambda0 := degToRad(CentralMeridian(zone))

	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	tanPhi := math.Tan(phi)

	n := a / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	ad := cosPhi * (lambda - lambda0)

	e4 := e2 * e2
	e6 := e4 * e2
	m := a * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))

	x := ScaleFactor * n * (ad +
		(1-t+c)*math.Pow(ad, 3)/6 +
		(5-18*t+t*t+72*c-58*ep2)*math.Pow(ad, 5)/120)

	y := ScaleFactor * (m + n*tanPhi*(ad*ad/2+
		(5-t+9*c+4*c*c)*math.Pow(ad, 4)/24+
		(61-58*t+t*t+600*c-330*ep2)*math.Pow(ad, 6)/720))

	easting = x + falseEasting
	northing = y
	if hemisphere == South {
		northing += southernFalseNorthing
	}
	return easting, northing
}

func round(v float64) float64 {
	p := math.Pow(10, Precision)
	return math.Round(v*p) / p
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }

func radToDeg(r float64) float64 { return r * 180 / math.Pi }
