package l1packets

import (
	"encoding/binary"
	"math"
)

// Encode builds the wire form of f. Point angles are not encoded; the wire
// only carries the start and end angles. Values are rounded to the wire's
// fixed-point resolution and clamped to the uint16 range. It is used to build
// synthetic captures and test fixtures.
func Encode(f MeasurementFrame) RawPacket {
	var p RawPacket
	p[0] = HeaderByte
	p[offsetVerLen] = f.VerLen
	putFixed(p[:], offsetSpeed, f.SpeedDegPerSec, speedScale)
	putFixed(p[:], offsetStartAngle, f.StartAngleDeg, angleScale)
	putFixed(p[:], offsetEndAngle, f.EndAngleDeg, angleScale)
	putFixed(p[:], offsetTimestamp, f.TimestampS, timestampScale)
	for i, pt := range f.Points {
		off := offsetPoints + i*pointStride
		putFixed(p[:], off, pt.DistanceM, distanceScale)
		p[off+2] = pt.Intensity
	}
	p[offsetCRC] = f.CRC
	return p
}

func putFixed(b []byte, off int, v, scale float64) {
	raw := math.Round(v * scale)
	switch {
	case raw < 0:
		raw = 0
	case raw > math.MaxUint16:
		raw = math.MaxUint16
	}
	binary.LittleEndian.PutUint16(b[off:off+2], uint16(raw))
}
