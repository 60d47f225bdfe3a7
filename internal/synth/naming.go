package synth

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/minio/highwayhash"
)

// hashKey is a fixed 32-byte HighwayHash key: naming only needs a stable,
// collision-resistant digest across a single run, not cryptographic
// secrecy, so a constant key keeps generated names reproducible across
// invocations (grounded on inspector/graph/hash.go's identical fixed-key
// use for content-addressed names).
var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// Namer is the process-wide monotonic function->id map spec.md §4.8 and §9
// describe, plus the deterministic reorder-stable suffix SPEC_FULL.md adds
// on top of it.
type Namer struct {
	mu   sync.Mutex
	ids  map[string]int
	next int
}

// NewNamer returns an empty Namer.
func NewNamer() *Namer {
	return &Namer{ids: map[string]int{}}
}

// idFor returns callee's stable id, assigning the next monotonic id the
// first time callee is seen.
func (n *Namer) idFor(callee string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if id, ok := n.ids[callee]; ok {
		return id
	}
	n.next++
	n.ids[callee] = n.next
	return n.next
}

// FuseName derives the fused function's base name (without _parallel/_serial
// suffix) from the participating callees. Per-callee ids are assigned in
// first-seen order but the name embeds them sorted, so createName is
// deterministic and reordering the same callee set never changes it
// (spec.md §8's round-trip property); a HighwayHash digest of the sorted
// callee names is appended to keep distinct candidates that happen to
// collapse to the same id set (impossible in practice, but cheap to guard)
// from colliding.
func (n *Namer) FuseName(callees []string) string {
	ids := make([]int, len(callees))
	for i, c := range callees {
		ids[i] = n.idFor(c)
	}
	sort.Ints(ids)

	var b strings.Builder
	b.WriteString("fuse")
	for _, id := range ids {
		fmt.Fprintf(&b, "_F%d", id)
	}

	sorted := append([]string(nil), callees...)
	sort.Strings(sorted)
	sum, err := hashCallees(sorted)
	if err == nil {
		b.WriteString("_")
		b.WriteString(hex.EncodeToString(sum[:4]))
	}

	return b.String()
}

func hashCallees(sorted []string) ([]byte, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return nil, err
	}
	if _, err := h.Write([]byte(strings.Join(sorted, "\x00"))); err != nil {
		return nil, err
	}
	sum := h.Sum(nil)
	return sum, nil
}

// ParallelVariant and SerialVariant append the two body-template suffixes
// spec.md §4.8 names.
func ParallelVariant(base string) string { return base + "_parallel" }
func SerialVariant(base string) string   { return base + "_serial" }
