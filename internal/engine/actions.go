package engine

import (
	"errors"

	"github.com/talgya/underworld/internal/business"
	"github.com/talgya/underworld/internal/catalog"
	"github.com/talgya/underworld/internal/economy"
	"github.com/talgya/underworld/internal/result"
	"github.com/talgya/underworld/internal/roster"
	"github.com/talgya/underworld/internal/territory"
)

// Crew pricing.
const (
	hireCostPerLevel  = 1000.0
	trainCostPerLevel = 750.0
)

// HireCost is the signing fee for a dealer of the given level.
func HireCost(level int) float64 { return hireCostPerLevel * float64(level) }

// TrainCost is the price of taking a dealer from level to level+1.
func TrainCost(level int) float64 { return trainCostPerLevel * float64(level+1) }

// BuyBusiness buys a front.
func (s *Simulation) BuyBusiness(id string) result.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Business.BuyBusiness(id, s.Wallet, s.gameMinutes)
}

// UpgradeBusiness raises an owned front's level.
func (s *Simulation) UpgradeBusiness(id string) result.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Business.UpgradeBusiness(id, s.Wallet, s.gameMinutes)
}

// BuyWarehouse buys a storage tier.
func (s *Simulation) BuyWarehouse(id string) result.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Business.BuyWarehouse(id, s.Wallet, s.gameMinutes)
}

// BuyContract buys an import contract.
func (s *Simulation) BuyContract(id string) result.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Business.BuyContract(id, s.Wallet, s.gameMinutes)
}

// DispatchShipment sends a contract's next shipment now if it is ready.
func (s *Simulation) DispatchShipment(id string) (result.Result, *business.Shipment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Business.DispatchContractShipment(id, s.gameMinutes, s.luck)
}

// Sale is a completed warehouse sale and what it paid.
type Sale struct {
	business.SaleResult
	PricePerGram float64 `json:"price_per_gram"`
	Bonus        float64 `json:"bonus"`
	Demand       float64 `json:"demand"`
	Revenue      float64 `json:"revenue"`
}

// Quote prices one gram of drug at quality, including territory sale bonuses
// and current street demand.
func (s *Simulation) Quote(drug catalog.Drug, quality float64) (ppg, bonus, demand float64) {
	base := s.Business.Catalog().BasePrice(drug)
	bonus = s.Territory.ActiveBonuses().SalePrice(drug)
	demand = s.Demand.Multiplier(drug, s.GameMinutes())
	return economy.PricePerGram(base, quality) * (1 + bonus) * demand, bonus, demand
}

// SellStock sells up to grams of drug from the warehouse and credits the
// revenue to the wallet.
func (s *Simulation) SellStock(drug catalog.Drug, grams int, preferBestQuality bool) (Sale, result.Result) {
	if grams <= 0 {
		return Sale{}, result.Fail(result.ReasonInvalid, 0, "Sell at least one gram")
	}
	if s.Business.Catalog().BasePrice(drug) <= 0 {
		return Sale{}, result.Fail(result.ReasonNotFound, 0, "Nobody buys %q", drug)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sold := s.Business.SellWarehouseStock(drug, grams, preferBestQuality, s.gameMinutes)
	if sold.GramsSold == 0 {
		return Sale{SaleResult: sold}, result.Fail(result.ReasonNotFound, 0, "No %s in the warehouse", drug)
	}

	base := s.Business.Catalog().BasePrice(drug)
	sale := Sale{
		SaleResult: sold,
		Bonus:      s.Territory.ActiveBonuses().SalePrice(drug),
		Demand:     s.Demand.Multiplier(drug, s.gameMinutes),
	}
	sale.PricePerGram = economy.PricePerGram(base, sold.AvgQuality) * (1 + sale.Bonus) * sale.Demand
	sale.Revenue = economy.EstimateLotValue(sold.GramsSold, sale.PricePerGram)

	s.Wallet.Credit(sale.Revenue)
	s.stats.Sales += sale.Revenue
	s.stats.GramsSold += sold.GramsSold
	s.logger.Info("stock sold", "drug", drug, "grams", sold.GramsSold, "quality", sold.AvgQuality, "revenue", sale.Revenue)
	return sale, result.Succeed(0, "Sold %dg of %s for $%.0f", sold.GramsSold, drug, sale.Revenue)
}

// Fortify pays to fortify a territory before its next contest.
func (s *Simulation) Fortify(id string) result.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Territory.Fortify(id, s.Wallet)
}

// AssignDealer puts a crew member to work in a territory.
func (s *Simulation) AssignDealer(territoryID, dealerID string) result.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Crew.Get(dealerID); !ok {
		return result.Fail(result.ReasonNotFound, 0, "No dealer %q on the crew", dealerID)
	}
	return s.Territory.AssignDealer(territoryID, dealerID)
}

// UnassignDealer pulls a dealer off their territory.
func (s *Simulation) UnassignDealer(dealerID string) result.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Territory.UnassignDealer(dealerID)
}

// HireDealer signs a new dealer onto the crew.
func (s *Simulation) HireDealer(name string, typ territory.DealerType, level int) (territory.Dealer, result.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cost := HireCost(level)
	if s.Wallet.Cash() < cost {
		return territory.Dealer{}, result.Fail(result.ReasonInsufficientFunds, cost, "Not enough cash to hire a level %d dealer", level)
	}
	d, err := s.Crew.Hire(name, typ, level)
	if err != nil {
		return territory.Dealer{}, result.Fail(result.ReasonInvalid, cost, "%v", err)
	}
	if !s.Wallet.Spend(cost) {
		_ = s.Crew.Fire(d.ID)
		return territory.Dealer{}, result.Fail(result.ReasonInsufficientFunds, cost, "Not enough cash to hire a level %d dealer", level)
	}
	s.logger.Info("dealer hired", "dealer", d.ID, "name", d.Name, "type", d.Type, "level", d.Level, "cost", cost)
	return d, result.Succeed(cost, "Hired %s", d.Name)
}

// TrainDealer raises a dealer's level by one.
func (s *Simulation) TrainDealer(id string) (territory.Dealer, result.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.Crew.Get(id)
	if !ok {
		return territory.Dealer{}, result.Fail(result.ReasonNotFound, 0, "No dealer %q on the crew", id)
	}
	if d.Level >= roster.MaxLevel {
		return d, result.Fail(result.ReasonInvalid, 0, "%s is already at max level", d.Name)
	}
	cost := TrainCost(d.Level)
	if s.Wallet.Cash() < cost || !s.Wallet.Spend(cost) {
		return d, result.Fail(result.ReasonInsufficientFunds, cost, "Not enough cash to train %s", d.Name)
	}
	trained, err := s.Crew.Train(id)
	if err != nil {
		s.Wallet.Credit(cost)
		return d, result.Fail(result.ReasonInvalid, cost, "%v", err)
	}
	return trained, result.Succeed(cost, "%s trained to level %d", trained.Name, trained.Level)
}

// FireDealer removes a dealer from the crew and from any territory.
func (s *Simulation) FireDealer(id string) result.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.Crew.Get(id)
	if !ok {
		return result.Fail(result.ReasonNotFound, 0, "No dealer %q on the crew", id)
	}
	s.Territory.UnassignDealer(id)
	if err := s.Crew.Fire(id); err != nil && !errors.Is(err, roster.ErrNotFound) {
		return result.Fail(result.ReasonInvalid, 0, "%v", err)
	}
	return result.Succeed(0, "Let %s go", d.Name)
}
