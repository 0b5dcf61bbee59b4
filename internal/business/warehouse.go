package business

import (
	"slices"

	"github.com/talgya/underworld/internal/catalog"
	"github.com/talgya/underworld/internal/economy"
)

// SaleResult is what a warehouse sale actually moved.
type SaleResult struct {
	Drug       catalog.Drug `json:"drug"`
	GramsSold  int          `json:"grams_sold"`
	AvgQuality float64      `json:"avg_quality"`
}

// SellWarehouseStock drains up to grams of drug from the warehouse, best
// quality first when preferBestQuality is set, otherwise in arrival order.
// The last lot touched may be left partially drained.
func (s *Store) SellWarehouseStock(drug catalog.Drug, grams int, preferBestQuality bool, now float64) SaleResult {
	res := SaleResult{Drug: drug}
	if grams <= 0 {
		return res
	}
	cur := s.Snapshot()

	var order []int
	for i, l := range cur.Lots {
		if l.Drug == drug {
			order = append(order, i)
		}
	}
	if len(order) == 0 {
		return res
	}
	if preferBestQuality {
		slices.SortStableFunc(order, func(a, b int) int {
			qa, qb := cur.Lots[a].Quality, cur.Lots[b].Quality
			switch {
			case qa > qb:
				return -1
			case qa < qb:
				return 1
			}
			return 0
		})
	}

	next := cur.clone()
	remaining := grams
	weighted := 0.0
	for _, i := range order {
		if remaining == 0 {
			break
		}
		lot := &next.Lots[i]
		have, clamped := economy.NonNegative(lot.Grams)
		if clamped {
			s.logger.Warn("negative lot clamped", "lot", lot.ID, "grams", lot.Grams)
		}
		take := min(have, remaining)
		lot.Grams = have - take
		remaining -= take
		res.GramsSold += take
		weighted += float64(take) * lot.Quality
	}
	next.Lots = slices.DeleteFunc(next.Lots, func(l WarehouseLot) bool { return l.Grams <= 0 })

	if res.GramsSold == 0 {
		return res
	}
	res.AvgQuality = weighted / float64(res.GramsSold)
	s.appendLog(next, now, "Sold %dg of %s (avg q%.0f)", res.GramsSold, drug, res.AvgQuality)
	s.commit(next)
	return res
}
