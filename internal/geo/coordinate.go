package geo

// Coordinate is a geographic point in decimal degrees.
// Latitude is in [-90, 90], longitude in [-180, 180]; the package does not
// enforce the ranges, callers own validation of their inputs.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Path is an ordered sequence of coordinates. The order is the traversal
// order of the route and is meaningful to consumers drawing it as a line.
type Path []Coordinate
