// Package polyline encodes and decodes Google's Encoded Polyline Algorithm
// Format, the compact route geometry representation returned by OSRM, Google
// and GraphHopper routing APIs.
package polyline

import (
	"fmt"
	"math"

	"routelink/internal/geo"
)

// DefaultScale is the standard coordinate scaling factor (5 decimal places,
// the Google Maps / OSRM default).
const DefaultScale = 1e5

// Valid chunk characters are '?'..'~': 5-bit groups offset by 63, with bit 6
// carrying the continuation flag.
const (
	minChunkChar = 63
	maxChunkChar = 126
)

// DecodeError reports a malformed encoded polyline. The decoder never returns
// a partial path alongside it; a failed decode yields nothing.
type DecodeError struct {
	Offset int    // byte offset in the encoded string where decoding failed
	Reason string // what was malformed
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("polyline: invalid encoding at offset %d: %s", e.Offset, e.Reason)
}

// Decode converts an encoded polyline string to the sequence of coordinates
// it represents, at the standard 1e5 precision. An empty string decodes to an
// empty path. Malformed input (a chunk sequence cut off mid-character, a
// latitude with no matching longitude, or a byte outside the polyline
// alphabet) fails with a *DecodeError.
func Decode(encoded string) (geo.Path, error) {
	return DecodeWithScale(encoded, DefaultScale)
}

// DecodeWithScale decodes a polyline with a custom scaling factor.
// For GraphHopper geometry use 1e6 (they encode with a multiplier of
// 1,000,000). Accumulated integers are divided by scale, so coordinates that
// sit exactly on the scale grid decode to exact values.
func DecodeWithScale(encoded string, scale float64) (geo.Path, error) {
	var points geo.Path
	index, lat, lng := 0, 0, 0

	for index < len(encoded) {
		// Extract latitude delta
		delta, next, err := decodeDelta(encoded, index)
		if err != nil {
			return nil, err
		}
		index = next
		lat += delta

		if index >= len(encoded) {
			return nil, &DecodeError{Offset: index, Reason: "latitude without matching longitude"}
		}

		// Extract longitude delta
		delta, next, err = decodeDelta(encoded, index)
		if err != nil {
			return nil, err
		}
		index = next
		lng += delta

		points = append(points, geo.Coordinate{
			Lat: float64(lat) / scale,
			Lng: float64(lng) / scale,
		})
	}

	return points, nil
}

// decodeDelta reads one signed delta starting at index and returns it with
// the index of the next unread byte. Deltas are zig-zag encoded: the low bit
// is the sign, and for negative values the magnitude is recovered with the
// bitwise complement (^x == -x-1).
func decodeDelta(encoded string, index int) (delta, next int, err error) {
	shift, result := 0, 0
	for {
		if index >= len(encoded) {
			return 0, 0, &DecodeError{Offset: index, Reason: "input ends inside a chunk sequence"}
		}

		c := encoded[index]
		if c < minChunkChar || c > maxChunkChar {
			return 0, 0, &DecodeError{Offset: index, Reason: fmt.Sprintf("character %q outside the polyline alphabet", c)}
		}

		b := int(c) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), index, nil
	}
	return result >> 1, index, nil
}

// Encode converts a path to its encoded polyline representation at the
// standard 1e5 precision. Coordinates are rounded to the scale grid first, so
// Encode(Decode(s)) reproduces s for any valid s.
func Encode(path geo.Path) string {
	return EncodeWithScale(path, DefaultScale)
}

// EncodeWithScale encodes a path with a custom scaling factor.
func EncodeWithScale(path geo.Path, scale float64) string {
	if len(path) == 0 {
		return ""
	}

	buf := make([]byte, 0, len(path)*4)
	prevLat, prevLng := 0, 0

	for _, c := range path {
		lat := int(math.Round(c.Lat * scale))
		lng := int(math.Round(c.Lng * scale))

		buf = appendDelta(buf, lat-prevLat)
		buf = appendDelta(buf, lng-prevLng)

		prevLat, prevLng = lat, lng
	}

	return string(buf)
}

// appendDelta writes one zig-zag encoded delta as 5-bit chunks.
func appendDelta(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}

	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	return append(buf, byte(value)+63)
}
