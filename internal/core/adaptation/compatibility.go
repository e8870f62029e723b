package adaptation

// 無分子資料時的中性分數；無共享分子時的低相容分數
const (
	neutralCompatibility = 0.5
	lowCompatibility     = 0.2
)

// MolecularCompatibility 計算兩個分子檔案之間的相容性。
// 任一方沒有資料回傳中性分數 0.5；有資料但無共享分子回傳 0.2；
// 否則取共享分子強度的調和平均數之平均，上限 1.0。
func MolecularCompatibility(molA, molB map[string]float64) float64 {
	if len(molA) == 0 || len(molB) == 0 {
		return neutralCompatibility
	}

	shared := 0
	total := 0.0
	for mol, a := range molA {
		b, ok := molB[mol]
		if !ok {
			continue
		}
		shared++
		if a+b > 0 {
			total += 2 * (a * b) / (a + b)
		}
	}

	if shared == 0 {
		return lowCompatibility
	}

	compatibility := total / float64(shared)
	if compatibility > 1.0 {
		return 1.0
	}
	return compatibility
}
