package identity

import (
	"sort"

	"cuisine-adapter/internal/pkg/common"
)

// TermFrequency 計算食材出現頻率 TF_i = count_i / total。
// 空輸入回傳空 mapping，不是錯誤。
func TermFrequency(ingredients []string) map[string]float64 {
	total := len(ingredients)
	if total == 0 {
		return map[string]float64{}
	}

	counts := make(map[string]int, total)
	for _, ing := range ingredients {
		counts[ing]++
	}

	freq := make(map[string]float64, len(counts))
	for ing, count := range counts {
		freq[ing] = float64(count) / float64(total)
	}
	return freq
}

// cooccurrenceGraph 無向共現圖。邊權為共現次數，centrality 本身
// 用不到權重，保留給後續擴充。
type cooccurrenceGraph struct {
	neighbors map[string]map[string]int
}

func newCooccurrenceGraph() *cooccurrenceGraph {
	return &cooccurrenceGraph{neighbors: make(map[string]map[string]int)}
}

func (g *cooccurrenceGraph) addEdge(a, b string) {
	if a == b {
		return
	}
	g.link(a, b)
	g.link(b, a)
}

func (g *cooccurrenceGraph) link(from, to string) {
	m, ok := g.neighbors[from]
	if !ok {
		m = make(map[string]int)
		g.neighbors[from] = m
	}
	m[to]++
}

// DegreeCentrality 對每份食譜的食材建無向共現圖後計算
// C(i) = deg(i) / (N-1)。節點數 0 或 1 時回傳空 mapping。
func DegreeCentrality(recipeIngredients [][]string) map[string]float64 {
	g := newCooccurrenceGraph()

	for _, names := range recipeIngredients {
		for i := 0; i < len(names); i++ {
			for j := i + 1; j < len(names); j++ {
				g.addEdge(names[i], names[j])
			}
		}
	}

	n := len(g.neighbors)
	if n <= 1 {
		return map[string]float64{}
	}

	centrality := make(map[string]float64, n)
	for node, ns := range g.neighbors {
		centrality[node] = common.Round4(float64(len(ns)) / float64(n-1))
	}
	return centrality
}

// RankedIngredient 頻率排行中的一項
type RankedIngredient struct {
	Name       string  `json:"name"`
	Frequency  float64 `json:"frequency"`
	Centrality float64 `json:"centrality"`
}

// TopIngredients 取頻率前 k 名，平手時依名稱升冪，保證可重現
func TopIngredients(freq, centrality map[string]float64, k int) []RankedIngredient {
	ranked := make([]RankedIngredient, 0, len(freq))
	for name, f := range freq {
		ranked = append(ranked, RankedIngredient{
			Name:       name,
			Frequency:  common.Round4(f),
			Centrality: centrality[name],
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Frequency != ranked[j].Frequency {
			return ranked[i].Frequency > ranked[j].Frequency
		}
		return ranked[i].Name < ranked[j].Name
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// TopWeights 取 mapping 權重前 k 名組成截斷後的 mapping
func TopWeights(m map[string]float64, k int) map[string]float64 {
	if len(m) <= k {
		return common.RoundMap4(m)
	}

	type entry struct {
		name   string
		weight float64
	}
	entries := make([]entry, 0, len(m))
	for name, w := range m {
		entries = append(entries, entry{name, w})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].weight != entries[j].weight {
			return entries[i].weight > entries[j].weight
		}
		return entries[i].name < entries[j].name
	})

	out := make(map[string]float64, k)
	for _, e := range entries[:k] {
		out[e.name] = common.Round4(e.weight)
	}
	return out
}
