package l1packets

import (
	"encoding/binary"
	"math"
)

// Decode validates the header of p and decodes it. Angles are interpolated
// linearly from the start angle to the end angle across the 12 points; if the
// end angle is below the start angle the span crosses 0° and 360° is added to
// the end before interpolating. Decode does no I/O and does not log.
func Decode(p RawPacket) (MeasurementFrame, error) {
	if p[0] != HeaderByte {
		return MeasurementFrame{}, ErrInvalidHeader
	}

	start := float64(u16(p[:], offsetStartAngle)) / angleScale
	end := float64(u16(p[:], offsetEndAngle)) / angleScale

	f := MeasurementFrame{
		VerLen:         p[offsetVerLen],
		SpeedDegPerSec: float64(u16(p[:], offsetSpeed)) / speedScale,
		StartAngleDeg:  math.Mod(start, 360),
		EndAngleDeg:    math.Mod(end, 360),
		TimestampS:     float64(u16(p[:], offsetTimestamp)) / timestampScale,
		CRC:            p[offsetCRC],
	}

	span := end
	if span < start {
		span += 360
	}
	step := (span - start) / float64(PointsPerPacket-1)

	for i := range f.Points {
		off := offsetPoints + i*pointStride
		f.Points[i] = PointSample{
			AngleDeg:  math.Mod(start+float64(i)*step, 360),
			DistanceM: float64(u16(p[:], off)) / distanceScale,
			Intensity: p[off+2],
		}
	}

	return f, nil
}

// DecodeBytes decodes a packet held in a slice, rejecting any slice that is
// not exactly PacketSize bytes.
func DecodeBytes(b []byte) (MeasurementFrame, error) {
	if len(b) != PacketSize {
		return MeasurementFrame{}, ErrInvalidLength
	}
	var p RawPacket
	copy(p[:], b)
	return Decode(p)
}

func u16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off : off+2])
}
