package project

import (
	"crypto/sha256"
	"fmt"

	"templint/internal/rule"
)

// Digest is a fixed 256-bit hash, compatible with source.File.Hash.
type Digest [32]byte

// HashBytes hashes raw content into a Digest.
func HashBytes(content []byte) Digest {
	return sha256.Sum256(content)
}

// Combine builds H(d1 || d2 || ...). Callers must pass parts in a
// deterministic order.
func Combine(parts ...Digest) Digest {
	h := sha256.New()
	for _, d := range parts {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// OptionsDigest hashes the effective rule options. It feeds the result
// cache key so a config change invalidates cached findings.
func OptionsDigest(opts rule.Options) Digest {
	canonical := fmt.Sprintf("properties=%s;variables=%s;template-references=%s",
		opts.Properties, opts.Variables, opts.TemplateReferences)
	return HashBytes([]byte(canonical))
}
