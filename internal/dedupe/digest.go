package dedupe

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/stwalsh4118/landsync/internal/models"
)

// DigestLength is the number of hex characters kept from the geometry hash.
const DigestLength = 12

// Digest hashes an ordered point sequence. Equal sequences always produce equal digests;
// an empty sequence has no digest.
func Digest(points []models.Point) string {
	if len(points) == 0 {
		return ""
	}

	h := xxhash.New()
	buf := make([]byte, 0, 64)
	for _, p := range points {
		buf = buf[:0]
		buf = strconv.AppendFloat(buf, p[0], 'f', -1, 64)
		buf = append(buf, ',')
		buf = strconv.AppendFloat(buf, p[1], 'f', -1, 64)
		buf = append(buf, ';')
		_, _ = h.Write(buf)
	}

	return fmt.Sprintf("%016x", h.Sum64())[:DigestLength]
}

// BoundaryDigest hashes every vertex of a boundary in file order.
func BoundaryDigest(b models.Boundary) string {
	return Digest(b.Points())
}
