package models

import (
	"encoding/json"
	"strings"
)

// SkillSet is a set of normalized skill terms. Terms are lower-cased and
// deduplicated; iteration follows first-insertion order so output is stable.
type SkillSet struct {
	terms []string
	index map[string]struct{}
}

func NewSkillSet(terms ...string) SkillSet {
	s := SkillSet{}
	for _, t := range terms {
		s.Add(t)
	}
	return s
}

// Add inserts a term after trimming and case-folding it. Empty terms are ignored.
func (s *SkillSet) Add(term string) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return
	}
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[term]; ok {
		return
	}
	s.index[term] = struct{}{}
	s.terms = append(s.terms, term)
}

func (s SkillSet) Contains(term string) bool {
	_, ok := s.index[strings.ToLower(strings.TrimSpace(term))]
	return ok
}

func (s SkillSet) Len() int {
	return len(s.terms)
}

// Terms returns a copy of the terms in insertion order.
func (s SkillSet) Terms() []string {
	out := make([]string, len(s.terms))
	copy(out, s.terms)
	return out
}

// Intersect returns the terms of s that are also in other, in s's order.
func (s SkillSet) Intersect(other SkillSet) SkillSet {
	out := SkillSet{}
	for _, t := range s.terms {
		if other.Contains(t) {
			out.Add(t)
		}
	}
	return out
}

// Difference returns the terms of s that are not in other, in s's order.
func (s SkillSet) Difference(other SkillSet) SkillSet {
	out := SkillSet{}
	for _, t := range s.terms {
		if !other.Contains(t) {
			out.Add(t)
		}
	}
	return out
}

func (s SkillSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Terms())
}

func (s *SkillSet) UnmarshalJSON(data []byte) error {
	var terms []string
	if err := json.Unmarshal(data, &terms); err != nil {
		return err
	}
	*s = NewSkillSet(terms...)
	return nil
}
