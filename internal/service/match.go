package service

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"github.com/schollz/closestmatch"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ContractRef is one linkable contract inside a ContractIndex: either a
// contract persisted earlier for the same team (ID set) or a draft extracted
// from the current batch (ID is uuid.Nil until BulkEntityCreator inserts it).
type ContractRef struct {
	ID          uuid.UUID
	ClientName  string
	ProjectName string
}

// Key is the canonical normalized identity of the contract, used both for
// fuzzy candidate search and for exact resolution at persist time.
func (r ContractRef) Key() string {
	return NormalizeName(r.ClientName + " " + r.ProjectName)
}

// ContractIndex fuzzy-matches free-text contract mentions (client and/or
// project names from receivable and expense rows) against known contracts.
// Build it, Freeze it, then share it read-only across concurrent transformer
// calls.
type ContractIndex struct {
	threshold float64
	refs      map[string]ContractRef
	keys      []string
	cm        *closestmatch.ClosestMatch
}

func NewContractIndex(threshold float64) *ContractIndex {
	return &ContractIndex{
		threshold: threshold,
		refs:      make(map[string]ContractRef),
	}
}

func (idx *ContractIndex) Add(ref ContractRef) {
	key := ref.Key()
	if key == "" {
		return
	}
	if _, exists := idx.refs[key]; !exists {
		idx.keys = append(idx.keys, key)
	}
	idx.refs[key] = ref
}

func (idx *ContractIndex) Len() int {
	return len(idx.refs)
}

// Freeze builds the n-gram search structure. No Add calls after Freeze;
// Match is safe for concurrent readers from then on.
func (idx *ContractIndex) Freeze() {
	if len(idx.keys) > 0 {
		idx.cm = closestmatch.New(idx.keys, []int{2, 3})
	}
}

// Match returns the best contract for a free-text mention when its similarity
// clears the index threshold. Case- and accent-insensitive, tolerant of the
// mention being a substring of the contract identity (or vice versa).
func (idx *ContractIndex) Match(mention string) (ContractRef, bool) {
	query := NormalizeName(mention)
	if query == "" || len(idx.refs) == 0 {
		return ContractRef{}, false
	}

	if ref, ok := idx.refs[query]; ok {
		return ref, true
	}

	// Substring containment is a strong signal regardless of edit distance:
	// "joao silva" should hit "joao silva casa da praia".
	best := ""
	bestScore := 0.0
	for _, key := range idx.keys {
		if strings.Contains(key, query) || strings.Contains(query, key) {
			score := similarity(query, key)
			// Containment floors the score well above typical noise.
			if score < 0.8 {
				score = 0.8
			}
			if score > bestScore {
				best, bestScore = key, score
			}
		}
	}

	// Otherwise take the n-gram candidate and verify it with edit distance.
	if best == "" && idx.cm != nil {
		if candidate := idx.cm.Closest(query); candidate != "" {
			best, bestScore = candidate, similarity(query, candidate)
		}
	}

	if best == "" || bestScore < idx.threshold {
		return ContractRef{}, false
	}
	return idx.refs[best], true
}

// similarity is a normalized edit-distance ratio in [0,1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

var nameNormalizer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName lowercases, strips accents and collapses whitespace so that
// "João  Silva" and "joao silva" compare equal.
func NormalizeName(s string) string {
	folded, _, err := transform.String(nameNormalizer, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}
