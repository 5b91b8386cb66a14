// Package fingerprint computes the deterministic, order-independent
// SHA-256 digest over a function set that keys persistence cache
// reuse, per spec §3/§4.7.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/hsn0918/codegraph/pkg/codegraph"
)

// Empty is the literal fingerprint for an empty function set.
const Empty = "fn:0"

// Compute hashes the sorted list of "fn_id:|source|:lang" descriptors
// joined by "|" with SHA-256, returned as lowercase hex. The result is
// order-independent (invariant #1) and changes whenever a function's
// source length or language changes (invariant #2).
func Compute(functions []codegraph.Function) string {
	if len(functions) == 0 {
		return Empty
	}
	descriptors := make([]string, len(functions))
	for i, fn := range functions {
		descriptors[i] = descriptorFor(fn)
	}
	sort.Strings(descriptors)
	joined := strings.Join(descriptors, "|")
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}

func descriptorFor(fn codegraph.Function) string {
	var b strings.Builder
	b.WriteString(fn.FnID)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(len(fn.Source)))
	b.WriteByte(':')
	b.WriteString(fn.Lang)
	return b.String()
}
