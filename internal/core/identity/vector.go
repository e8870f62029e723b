package identity

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// BuildVector 把食材 TF 與分子分布融合成單一稀疏特徵向量。
// 特徵集合為兩個 mapping 鍵的聯集，值為兩邊取值相加（缺值視為 0）。
// 特徵名稱排序後輸出，重算時輸入不變則輸出位元級相同。
func BuildVector(ingredientFreq, moleculeDist map[string]float64) ([]string, []float64) {
	features := make([]string, 0, len(ingredientFreq)+len(moleculeDist))
	seen := make(map[string]struct{}, len(ingredientFreq)+len(moleculeDist))

	for name := range ingredientFreq {
		seen[name] = struct{}{}
		features = append(features, name)
	}
	for name := range moleculeDist {
		if _, ok := seen[name]; !ok {
			features = append(features, name)
		}
	}
	sort.Strings(features)

	vector := make([]float64, len(features))
	for i, name := range features {
		vector[i] = ingredientFreq[name] + moleculeDist[name]
	}
	return features, vector
}

// CosineSimilarity 零填充後的餘弦相似度，整個系統比較向量的唯一入口。
// 任一邊為零向量時回傳 0.0，這是合法的退化情況而不是錯誤。
func CosineSimilarity(a, b []float64) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0.0
	}

	var dot, normA, normB float64
	for i := 0; i < maxLen; i++ {
		var av, bv float64
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// PadTo 回傳長度為 length 的副本，不足的部分補零
func PadTo(v []float64, length int) []float64 {
	out := make([]float64, length)
	copy(out, v)
	return out
}

// PCA2D 對所有菜系向量做聯合 2D PCA 投影，僅供視覺化使用。
// 向量先補零到全域最大長度、逐欄標準化，再投影到前兩個主成分。
// 少於兩個向量時回傳全零座標。
func PCA2D(vectors [][]float64) [][]float64 {
	n := len(vectors)
	if n < 2 {
		out := make([][]float64, n)
		for i := range out {
			out[i] = []float64{0.0, 0.0}
		}
		return out
	}

	maxLen := 0
	for _, v := range vectors {
		if len(v) > maxLen {
			maxLen = len(v)
		}
	}

	// 補零 + 逐欄標準化
	data := make([]float64, 0, n*maxLen)
	padded := make([][]float64, n)
	for i, v := range vectors {
		padded[i] = PadTo(v, maxLen)
	}
	for j := 0; j < maxLen; j++ {
		col := make([]float64, n)
		for i := range padded {
			col[i] = padded[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1.0
		}
		for i := range padded {
			padded[i][j] = (padded[i][j] - mean) / std
		}
	}
	for _, row := range padded {
		data = append(data, row...)
	}

	x := mat.NewDense(n, maxLen, data)

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return zeroCoords(n)
	}

	components := 2
	if maxLen < components {
		components = maxLen
	}
	if n-1 < components {
		components = n - 1
	}
	if components < 1 {
		return zeroCoords(n)
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	var projected mat.Dense
	projected.Mul(x, vecs.Slice(0, maxLen, 0, components))

	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		coords := []float64{0.0, 0.0}
		for j := 0; j < components; j++ {
			coords[j] = projected.At(i, j)
		}
		out[i] = coords
	}
	return out
}

func zeroCoords(n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = []float64{0.0, 0.0}
	}
	return out
}
