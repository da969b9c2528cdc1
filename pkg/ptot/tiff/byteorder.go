package tiff

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Byte order names accepted by ParseByteOrder.
const (
	OrderHost   = "host"
	OrderLittle = "little"
	OrderBig    = "big"
)

// HostOrder returns the byte order of the machine.
func HostOrder() binary.ByteOrder {
	if binary.NativeEndian.Uint16([]byte{1, 0}) == 1 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// ParseByteOrder resolves a byte order name. The empty name means host.
func ParseByteOrder(name string) (binary.ByteOrder, error) {
	switch strings.ToLower(name) {
	case "", OrderHost:
		return HostOrder(), nil
	case OrderLittle, "ii", "intel":
		return binary.LittleEndian, nil
	case OrderBig, "mm", "motorola":
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("unknown byte order %q", name)
	}
}

// orderMarker returns the two header bytes naming the byte order.
func orderMarker(order binary.ByteOrder) [2]byte {
	if order == binary.BigEndian {
		return [2]byte{'M', 'M'}
	}
	return [2]byte{'I', 'I'}
}
