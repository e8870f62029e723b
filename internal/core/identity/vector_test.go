package identity

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBuildVectorSortedUnion(t *testing.T) {
	freq := map[string]float64{"tomato": 0.6, "basil": 0.4}
	mol := map[string]float64{"limonene": 0.7, "tomato": 0.1}

	features, vector := BuildVector(freq, mol)

	want := []string{"basil", "limonene", "tomato"}
	if len(features) != len(want) {
		t.Fatalf("features = %v, want %v", features, want)
	}
	for i := range want {
		if features[i] != want[i] {
			t.Fatalf("features = %v, want %v", features, want)
		}
	}

	// 同名特徵兩邊取值相加
	if !almostEqual(vector[2], 0.7) {
		t.Errorf("tomato value = %v, want 0.7", vector[2])
	}
	if !almostEqual(vector[0], 0.4) || !almostEqual(vector[1], 0.7) {
		t.Errorf("vector = %v", vector)
	}
}

func TestBuildVectorDeterministic(t *testing.T) {
	freq := map[string]float64{"a": 0.3, "b": 0.3, "c": 0.4}
	_, v1 := BuildVector(freq, nil)
	_, v2 := BuildVector(freq, nil)

	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("vectors differ at %d: %v vs %v", i, v1, v2)
		}
	}
}

func TestCosineSimilarityIdentical(t *testing.T) {
	v := []float64{0.2, 0.5, 0.3}
	if got := CosineSimilarity(v, v); !almostEqual(got, 1.0) {
		t.Errorf("cos(v, v) = %v, want 1.0", got)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	a := []float64{1, 0}
	b := []float64{0, 1}
	if got := CosineSimilarity(a, b); !almostEqual(got, 0.0) {
		t.Errorf("cos = %v, want 0.0", got)
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	if got := CosineSimilarity([]float64{0, 0}, []float64{1, 2}); got != 0.0 {
		t.Errorf("zero vector cos = %v, want 0.0", got)
	}
	if got := CosineSimilarity(nil, nil); got != 0.0 {
		t.Errorf("empty cos = %v, want 0.0", got)
	}
}

func TestCosineSimilarityPadsShorter(t *testing.T) {
	a := []float64{1, 1}
	b := []float64{1, 1, 0, 0}
	if got := CosineSimilarity(a, b); !almostEqual(got, 1.0) {
		t.Errorf("padded cos = %v, want 1.0", got)
	}
}

func TestPadTo(t *testing.T) {
	out := PadTo([]float64{1, 2}, 4)
	if len(out) != 4 || out[2] != 0 || out[3] != 0 {
		t.Errorf("PadTo = %v", out)
	}
}

func TestPCA2DFewVectors(t *testing.T) {
	out := PCA2D([][]float64{{1, 2, 3}})
	if len(out) != 1 || out[0][0] != 0.0 || out[0][1] != 0.0 {
		t.Errorf("single vector should map to origin, got %v", out)
	}
}

func TestPCA2DShape(t *testing.T) {
	vectors := [][]float64{
		{1.0, 0.0, 0.0},
		{0.0, 1.0, 0.0},
		{0.0, 0.0, 1.0},
		{0.5, 0.5, 0.0},
	}
	out := PCA2D(vectors)

	if len(out) != 4 {
		t.Fatalf("len = %d, want 4", len(out))
	}
	for i, coords := range out {
		if len(coords) != 2 {
			t.Errorf("coords[%d] has %d dims, want 2", i, len(coords))
		}
		for _, c := range coords {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				t.Errorf("coords[%d] = %v contains NaN/Inf", i, coords)
			}
		}
	}
}

func TestPCA2DDifferentLengths(t *testing.T) {
	// 長度不等的向量先補零再投影
	vectors := [][]float64{
		{1.0, 2.0},
		{3.0, 4.0, 5.0},
		{6.0},
	}
	out := PCA2D(vectors)
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	for _, coords := range out {
		if len(coords) != 2 {
			t.Errorf("coords = %v, want 2 dims", coords)
		}
	}
}
