package identity

// MoleculeLookup 取得單一食材的分子→強度表。查無資料回傳空 mapping。
type MoleculeLookup func(ingredientName string) (map[string]float64, error)

// MoleculeDistribution 把食材頻率分布映射為正規化的風味分子分布：
// M_j = Σ(TF_i × intensity_i,j)，再除以總和。
// 沒有分子資料的食材不貢獻任何權重；總和為 0 時回傳未正規化的全零 mapping。
func MoleculeDistribution(ingredientFreq map[string]float64, lookup MoleculeLookup) (map[string]float64, error) {
	scores := make(map[string]float64)

	for ing, freq := range ingredientFreq {
		profile, err := lookup(ing)
		if err != nil {
			return nil, err
		}
		for molecule, intensity := range profile {
			scores[molecule] += freq * intensity
		}
	}

	var total float64
	for _, v := range scores {
		total += v
	}
	if total > 0 {
		for k, v := range scores {
			scores[k] = v / total
		}
	}
	return scores, nil
}
