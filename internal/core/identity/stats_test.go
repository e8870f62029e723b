package identity

import (
	"math"
	"testing"
)

func TestTermFrequencySumsToOne(t *testing.T) {
	freq := TermFrequency([]string{"tomato", "basil", "tomato", "olive oil"})

	if got := freq["tomato"]; got != 0.5 {
		t.Errorf("tomato frequency = %v, want 0.5", got)
	}
	if got := freq["basil"]; got != 0.25 {
		t.Errorf("basil frequency = %v, want 0.25", got)
	}

	sum := 0.0
	for _, v := range freq {
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("frequencies sum to %v, want 1.0", sum)
	}
}

func TestTermFrequencyEmpty(t *testing.T) {
	freq := TermFrequency(nil)
	if len(freq) != 0 {
		t.Errorf("expected empty map, got %v", freq)
	}
}

func TestDegreeCentralityCompleteGraph(t *testing.T) {
	// 一份食譜包含全部食材：完全圖，每個中心性都是 1.0
	recipes := [][]string{{"a", "b", "c"}}
	centrality := DegreeCentrality(recipes)

	for _, name := range []string{"a", "b", "c"} {
		if got := centrality[name]; got != 1.0 {
			t.Errorf("centrality[%s] = %v, want 1.0", name, got)
		}
	}
}

func TestDegreeCentralityPartial(t *testing.T) {
	// a-b 與 a-c 各同食譜一次，b 和 c 從未共現
	recipes := [][]string{{"a", "b"}, {"a", "c"}}
	centrality := DegreeCentrality(recipes)

	if got := centrality["a"]; got != 1.0 {
		t.Errorf("centrality[a] = %v, want 1.0", got)
	}
	if got := centrality["b"]; got != 0.5 {
		t.Errorf("centrality[b] = %v, want 0.5", got)
	}
	if got := centrality["c"]; got != 0.5 {
		t.Errorf("centrality[c] = %v, want 0.5", got)
	}
}

func TestDegreeCentralitySingleIngredient(t *testing.T) {
	if got := DegreeCentrality([][]string{{"a"}}); len(got) != 0 {
		t.Errorf("single-ingredient corpus should give empty centrality, got %v", got)
	}
	if got := DegreeCentrality(nil); len(got) != 0 {
		t.Errorf("empty corpus should give empty centrality, got %v", got)
	}
}

func TestDegreeCentralityDuplicatesInRecipe(t *testing.T) {
	// 同一份食譜中的重複不產生自環
	recipes := [][]string{{"a", "a", "b"}}
	centrality := DegreeCentrality(recipes)

	if got := centrality["a"]; got != 1.0 {
		t.Errorf("centrality[a] = %v, want 1.0", got)
	}
}

func TestTopIngredientsOrdering(t *testing.T) {
	freq := map[string]float64{"rice": 0.4, "cumin": 0.2, "dal": 0.2, "ghee": 0.1}
	centrality := map[string]float64{"rice": 1.0, "cumin": 0.5}

	top := TopIngredients(freq, centrality, 3)
	if len(top) != 3 {
		t.Fatalf("len = %d, want 3", len(top))
	}
	if top[0].Name != "rice" {
		t.Errorf("top[0] = %s, want rice", top[0].Name)
	}
	// 同頻率依名稱遞增
	if top[1].Name != "cumin" || top[2].Name != "dal" {
		t.Errorf("tie order wrong: got %s, %s", top[1].Name, top[2].Name)
	}
	if top[0].Centrality != 1.0 {
		t.Errorf("rice centrality = %v, want 1.0", top[0].Centrality)
	}
	// 沒有中心性資料的食材補 0
	if top[2].Centrality != 0.0 {
		t.Errorf("dal centrality = %v, want 0.0", top[2].Centrality)
	}
}

func TestTopWeightsTruncates(t *testing.T) {
	m := map[string]float64{"a": 0.5, "b": 0.3, "c": 0.2}
	top := TopWeights(m, 2)
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	if _, ok := top["c"]; ok {
		t.Error("lowest weight should be dropped")
	}
}
