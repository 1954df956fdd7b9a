package utils

import (
	"fmt"
	"hash/crc32"
)

// CalculateHash generates a quoted CRC32 hash of data, suitable for use
// as an HTTP ETag.
func CalculateHash(data []byte) string {
	table := crc32.MakeTable(crc32.IEEE)
	return fmt.Sprintf("\"%08x\"", crc32.Checksum(data, table))
}
