package adaptation

import (
	"math"
	"sort"

	"cuisine-adapter/internal/core/identity"
)

// 每個待替換食材最多檢查前 10 個候選
const candidateLimit = 10

// Replacement 一筆替換：原食材、替換食材、分子相容性分數
type Replacement struct {
	Original    string
	Replacement string
	Score       float64
}

// RankForReplacement 依替換優先度 P(i) = 1 - C(i) 排序食材，
// 取前 max(1, ⌊n·intensity·0.6⌋) 個。同分時維持食譜原始順序。
func RankForReplacement(ingredients []string, centrality map[string]float64, intensity float64) []string {
	type ranked struct {
		name     string
		priority float64
	}
	prioritized := make([]ranked, len(ingredients))
	for i, ing := range ingredients {
		prioritized[i] = ranked{name: ing, priority: 1.0 - centrality[ing]}
	}

	sort.SliceStable(prioritized, func(i, j int) bool {
		return prioritized[i].priority > prioritized[j].priority
	})

	count := ReplacementCount(len(ingredients), intensity)
	if count > len(prioritized) {
		count = len(prioritized)
	}

	selected := make([]string, count)
	for i := 0; i < count; i++ {
		selected[i] = prioritized[i].name
	}
	return selected
}

// CandidatePool 從目標菜系的詞頻表建立候選池：排除 exclude 中的食材，
// 依頻率遞減排序，同頻率依名稱遞增。
func CandidatePool(targetFrequency map[string]float64, exclude []string) []string {
	excluded := make(map[string]bool, len(exclude))
	for _, ing := range exclude {
		excluded[ing] = true
	}

	pool := make([]string, 0, len(targetFrequency))
	for ing := range targetFrequency {
		if !excluded[ing] {
			pool = append(pool, ing)
		}
	}

	sort.Slice(pool, func(i, j int) bool {
		fi, fj := targetFrequency[pool[i]], targetFrequency[pool[j]]
		if fi != fj {
			return fi > fj
		}
		return pool[i] < pool[j]
	})
	return pool
}

// SelectReplacements 為每個待替換食材從候選池挑出分子相容性最高者。
// 每輪只檢查池中前 10 個候選，選中的候選從池中移除不再重用。
// 候選池耗盡時提前結束。
func SelectReplacements(toReplace, pool []string, lookup identity.MoleculeLookup) ([]Replacement, error) {
	available := make([]string, len(pool))
	copy(available, pool)

	var replacements []Replacement
	for _, original := range toReplace {
		if len(available) == 0 {
			break
		}

		origMol, err := lookup(original)
		if err != nil {
			return nil, err
		}

		bestIdx := -1
		bestScore := -1.0
		limit := candidateLimit
		if limit > len(available) {
			limit = len(available)
		}
		for i := 0; i < limit; i++ {
			candMol, err := lookup(available[i])
			if err != nil {
				return nil, err
			}
			score := MolecularCompatibility(origMol, candMol)
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		if bestIdx >= 0 {
			replacements = append(replacements, Replacement{
				Original:    original,
				Replacement: available[bestIdx],
				Score:       bestScore,
			})
			available = append(available[:bestIdx], available[bestIdx+1:]...)
		}
	}
	return replacements, nil
}

// AdaptationDistance 計算改編距離 AD = |對稱差| / |原始食材集合|。
func AdaptationDistance(original, adapted []string) float64 {
	if len(original) == 0 {
		return 0.0
	}

	originalSet := make(map[string]bool, len(original))
	for _, ing := range original {
		originalSet[ing] = true
	}
	adaptedSet := make(map[string]bool, len(adapted))
	for _, ing := range adapted {
		adaptedSet[ing] = true
	}

	differences := 0
	for ing := range originalSet {
		if !adaptedSet[ing] {
			differences++
		}
	}
	for ing := range adaptedSet {
		if !originalSet[ing] {
			differences++
		}
	}

	return float64(differences) / float64(len(originalSet))
}

// MultiObjectiveScore 多目標分數 = 0.4·CS + 0.3·IS − 0.2·AD + 0.1·FCS。
func MultiObjectiveScore(identityScore, compatibilityScore, adaptationDistance, flavorCoherence float64) float64 {
	return 0.4*compatibilityScore + 0.3*identityScore - 0.2*adaptationDistance + 0.1*flavorCoherence
}

// ReplacementCount 回傳 n 個食材在指定強度下的替換數量。
func ReplacementCount(n int, intensity float64) int {
	count := int(math.Floor(float64(n) * intensity * 0.6))
	if count < 1 {
		return 1
	}
	return count
}
