// Package risk derives a mood risk score from decrypted sentiment vectors.
// It is pure: nothing is stored and ciphertext is never touched.
package risk

import (
	"fmt"
	"sort"
	"strings"
)

// Threshold is the score at which the alert presentation is shown.
const Threshold = 10

// Tag names accepted by ParseTags, in wire order.
const (
	TagHopeless = "hopeless"
	TagAnxious  = "anxious"
	TagSuicidal = "suicidal"
	TagFine     = "fine"
)

var weights = map[string]int{
	TagHopeless: 3,
	TagAnxious:  1,
	TagSuicidal: 10,
	TagFine:     0,
}

// Vector flags which tags apply to one entry; each field is 0 or 1.
// Field order fixes the JSON key order.
type Vector struct {
	Hopeless int `json:"hopeless"`
	Anxious  int `json:"anxious"`
	Suicidal int `json:"suicidal"`
	Fine     int `json:"fine"`
}

// Tags lists the tags set to 1.
func (v Vector) Tags() []string {
	var out []string
	for _, t := range []struct {
		name string
		val  int
	}{{TagHopeless, v.Hopeless}, {TagAnxious, v.Anxious}, {TagSuicidal, v.Suicidal}, {TagFine, v.Fine}} {
		if t.val == 1 {
			out = append(out, t.name)
		}
	}
	return out
}

// Weight is the vector's contribution to a score. Values other than 1 count
// as absent.
func (v Vector) Weight() int {
	total := 0
	for _, tag := range v.Tags() {
		total += weights[tag]
	}
	return total
}

// ParseTags builds a Vector from tag names, case-insensitively. Commas split
// an argument, so "anxious,hopeless" and ["anxious", "hopeless"] agree.
func ParseTags(tags []string) (Vector, error) {
	var v Vector
	var unknown []string
	for _, arg := range tags {
		for _, raw := range strings.Split(arg, ",") {
			switch t := strings.ToLower(strings.TrimSpace(raw)); t {
			case "":
			case TagHopeless:
				v.Hopeless = 1
			case TagAnxious:
				v.Anxious = 1
			case TagSuicidal:
				v.Suicidal = 1
			case TagFine:
				v.Fine = 1
			default:
				unknown = append(unknown, t)
			}
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Vector{}, fmt.Errorf("unknown tags: %s (want hopeless, anxious, suicidal, fine)", strings.Join(unknown, ", "))
	}
	return v, nil
}

// Score sums the weights of every vector. Order does not matter.
func Score(vectors []Vector) int {
	total := 0
	for _, v := range vectors {
		total += v.Weight()
	}
	return total
}

func IsAlert(score int) bool {
	return score >= Threshold
}

// Result is one history entry as seen by the scorer. Vector is nil when the
// entry could not be decrypted or parsed.
type Result struct {
	Vector *Vector
}

type Report struct {
	Entries int
	Scored  int
	Skipped int
	Score   int
	Alert   bool
}

// Analyze scores the entries that decrypted and counts the rest as skipped.
func Analyze(results []Result) Report {
	r := Report{Entries: len(results)}
	vectors := make([]Vector, 0, len(results))
	for _, res := range results {
		if res.Vector == nil {
			r.Skipped++
			continue
		}
		vectors = append(vectors, *res.Vector)
	}
	r.Scored = len(vectors)
	r.Score = Score(vectors)
	r.Alert = IsAlert(r.Score)
	return r
}
