package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Scope namespaces idempotency keys per kind of side effect
type Scope string

const (
	// ScopeLedgerAppend guards the append of a finalized invoice
	ScopeLedgerAppend Scope = "ledger_append"
	// ScopeBillEvent identifies one bill transition on the event bus
	ScopeBillEvent Scope = "bill_event"
)

// Generator derives deterministic keys so that retries of the same side
// effect collapse into one
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateKey hashes the scope and the sorted params
func (g *Generator) GenerateKey(scope Scope, params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(scope))
	for _, k := range keys {
		fmt.Fprintf(&b, ":%s=%v", k, params[k])
	}

	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s-%s", scope, hex.EncodeToString(hash[:8]))
}

// ValidateKey checks a key against the params it should have been built from
func (g *Generator) ValidateKey(scope Scope, params map[string]any, key string) bool {
	return g.GenerateKey(scope, params) == key
}
