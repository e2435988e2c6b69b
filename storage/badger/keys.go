package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/stilbar/core"
)

// Key prefixes for different data types
const (
	compoundRecordPrefix = "cmprec"
	compoundCodePrefix   = "cmpcode"
	compoundKeyOfPrefix  = "cmpkeyof"
	compoundNumPrefix    = "cmpnum"
	compoundNumSeq       = "cmpnumseq"
)

// makeCompoundKey generates a key for a compound record by identity.
func makeCompoundKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s", compoundRecordPrefix, id))
}

// makeCodeIndexKey generates a key for the code index. The code index maps
// an assigned code key (normalized code, possibly with a duplicate suffix)
// to the owning identity.
func makeCodeIndexKey(codeKey string) []byte {
	return []byte(fmt.Sprintf("%s:%s", compoundCodePrefix, codeKey))
}

// makeKeyOfKey generates the reverse-index key holding which code key a
// given identity was assigned.
func makeKeyOfKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s", compoundKeyOfPrefix, id))
}

// makeNumKey generates a key for the sequence index.
// Format: prefix:num
func makeNumKey(num uint64) []byte {
	prefix := compoundNumPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], num)
	return buf
}
