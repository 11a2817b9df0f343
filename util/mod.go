package util

import (
	"fmt"
	"strconv"
	"strings"
	"unsafe"
)

// ArrayToString renders every element as fixed width lowercase hex, in slice
// order.
func ArrayToString[T uint8 | uint16 | uint32 | uint64](arr []T) string {
	var sb strings.Builder

	for _, v := range arr {
		bitWidth := int(unsafe.Sizeof(v) * 8)
		sb.WriteString(fmt.Sprintf("%0[1]*[2]x", bitWidth/4, v))
	}

	return sb.String()
}

// ParseHexUint64 parses a seed as written by ArrayToString, with an optional
// 0x prefix.
func ParseHexUint64(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")

	return strconv.ParseUint(s, 16, 64)
}
