package model

import (
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Search returns the nodes whose title fuzzy-matches query, closest match
// first, followed by nodes that only match in their description. Ties keep
// tree order. Hidden nodes are searched too.
func (d *Document) Search(query string) []*Node {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	var nodes []*Node
	var titles []string
	d.Walk(func(n *Node, _ int) bool {
		nodes = append(nodes, n)
		titles = append(titles, n.Title)
		return true
	})

	ranks := fuzzy.RankFindFold(query, titles)
	slices.SortStableFunc(ranks, func(a, b fuzzy.Rank) int {
		if a.Distance != b.Distance {
			return a.Distance - b.Distance
		}
		return a.OriginalIndex - b.OriginalIndex
	})

	matched := make(map[int]bool, len(ranks))
	results := make([]*Node, 0, len(ranks))
	for _, r := range ranks {
		matched[r.OriginalIndex] = true
		results = append(results, nodes[r.OriginalIndex])
	}
	for i, n := range nodes {
		if !matched[i] && n.Description != "" && fuzzy.MatchFold(query, n.Description) {
			results = append(results, n)
		}
	}
	return results
}
