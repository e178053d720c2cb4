// Package keys derives the counter-store identity of a (API, application,
// resolved path, tier) tuple.
//
// Keys have the form
//
//	<apiID>:<applicationID>:<pathHash>:<tierIndex>
//
// The resolved path is hashed rather than embedded so that keys stay short and
// free of separator characters. Distinct paths can in theory share a 64-bit
// digest; that risk is accepted.
package keys

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// Separator joins key components.
const Separator = ':'

// PathHash selects the digest used for the resolved path component.
type PathHash string

const (
	// HashXXH64 is the default: fast, non-cryptographic.
	HashXXH64 PathHash = "xxhash"
	// HashBLAKE2b uses a 64-bit BLAKE2b digest for deployments that prefer a
	// keyed-quality hash over raw speed.
	HashBLAKE2b PathHash = "blake2b"
)

// Valid reports whether h names a supported digest. The empty value selects
// the default.
func (h PathHash) Valid() bool {
	return h == "" || h == HashXXH64 || h == HashBLAKE2b
}

// Builder builds counter keys. The zero value uses xxhash.
type Builder struct {
	hash PathHash
}

// NewBuilder returns a Builder that hashes paths with h.
func NewBuilder(h PathHash) Builder {
	return Builder{hash: h}
}

// Build returns the key for tier of the given request identity.
func (b Builder) Build(apiID, applicationID, resolvedPath string, tier int) string {
	var sb strings.Builder
	sb.Grow(len(apiID) + len(applicationID) + 32)
	sb.WriteString(apiID)
	sb.WriteByte(Separator)
	sb.WriteString(applicationID)
	sb.WriteByte(Separator)
	sb.WriteString(strconv.FormatUint(b.sum(resolvedPath), 10))
	sb.WriteByte(Separator)
	sb.WriteString(strconv.Itoa(tier))
	return sb.String()
}

func (b Builder) sum(path string) uint64 {
	if b.hash == HashBLAKE2b {
		h, _ := blake2b.New(8, nil)
		_, _ = h.Write([]byte(path))
		return binary.BigEndian.Uint64(h.Sum(nil))
	}
	return xxhash.Sum64String(path)
}
