package geo

import "math"

// Ellipsoid is a reference ellipsoid given by its semi-major axis (meters)
// and flattening.
type Ellipsoid struct {
	A float64
	F float64
}

// GRS80 is the ellipsoid of SIRGAS 2000.
var GRS80 = Ellipsoid{A: 6378137.0, F: 1 / 298.257222101}

const (
	utmScale         = 0.9996
	utmFalseEasting  = 500000.0
	utmFalseNorthing = 10000000.0
)

// UTM is a Universal Transverse Mercator zone.
type UTM struct {
	Ellipsoid Ellipsoid
	Zone      int
	South     bool
}

// CentralMeridian returns the zone's central meridian in degrees.
func (u UTM) CentralMeridian() float64 {
	return float64(u.Zone*6 - 183)
}

// ToWGS84 converts easting/northing in meters to longitude/latitude in degrees.
//
// It evaluates the inverse Krüger series to third order in the third
// flattening, which stays well below a millimeter inside the zone.
func (u UTM) ToWGS84(easting, northing float64) (lon, lat float64) {
	n := u.Ellipsoid.F / (2 - u.Ellipsoid.F)
	n2, n3 := n*n, n*n*n

	// rectifying radius
	a := u.Ellipsoid.A / (1 + n) * (1 + n2/4 + n2*n2/64)

	beta := [3]float64{
		n/2 - 2*n2/3 + 37*n3/96,
		n2/48 + n3/15,
		17 * n3 / 480,
	}
	delta := [3]float64{
		2*n - 2*n2/3 - 2*n3,
		7*n2/3 - 8*n3/5,
		56 * n3 / 15,
	}

	y := northing
	if u.South {
		y -= utmFalseNorthing
	}

	xi := y / (utmScale * a)
	eta := (easting - utmFalseEasting) / (utmScale * a)

	xiP, etaP := xi, eta
	for j := 1; j <= 3; j++ {
		k := 2 * float64(j)
		xiP -= beta[j-1] * math.Sin(k*xi) * math.Cosh(k*eta)
		etaP -= beta[j-1] * math.Cos(k*xi) * math.Sinh(k*eta)
	}

	// conformal latitude, then geodetic latitude
	chi := math.Asin(math.Sin(xiP) / math.Cosh(etaP))
	phi := chi
	for j := 1; j <= 3; j++ {
		phi += delta[j-1] * math.Sin(2*float64(j)*chi)
	}

	lambda := math.Atan2(math.Sinh(etaP), math.Cos(xiP))

	lon = u.CentralMeridian() + lambda*(180.0/math.Pi)
	lat = phi * (180.0 / math.Pi)

	return lon, lat
}
