package model

import "math"

// Contains reports whether id is a member of set.
func Contains(set []string, id string) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

// AddToSet appends id unless already present. The input is not modified.
func AddToSet(set []string, id string) []string {
	if Contains(set, id) {
		return cloneStrings(set)
	}
	out := make([]string, 0, len(set)+1)
	out = append(out, set...)
	return append(out, id)
}

// RemoveFromSet drops every occurrence of the given ids. The input is not modified.
func RemoveFromSet(set []string, ids ...string) []string {
	out := make([]string, 0, len(set))
	for _, v := range set {
		if !Contains(ids, v) {
			out = append(out, v)
		}
	}
	return out
}

// Round2 rounds a monetary amount to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
