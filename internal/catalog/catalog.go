// Package catalog holds the static, immutable definitions of everything the
// player can buy or contest: businesses, warehouse tiers, import contracts and
// territories. The catalog is loaded once and never mutated.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultYAML []byte

// Drug identifies a product line.
type Drug string

const (
	DrugCannabis Drug = "cannabis"
	DrugMDMA     Drug = "mdma"
	DrugMeth     Drug = "meth"
	DrugCocaine  Drug = "cocaine"
	DrugHeroin   Drug = "heroin"
)

// Difficulty rates how hard a territory's rivals push back in a contest.
type Difficulty string

const (
	DifficultyVeryEasy Difficulty = "very-easy"
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
)

// RivalBase returns the fixed part of a rival crew's contest power.
func (d Difficulty) RivalBase() float64 {
	switch d {
	case DifficultyVeryEasy:
		return 10
	case DifficultyEasy:
		return 20
	case DifficultyMedium:
		return 30
	case DifficultyHard:
		return 40
	default:
		return 0
	}
}

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	return d.RivalBase() > 0
}

// BonusType names what a territory bonus affects.
type BonusType string

const (
	BonusImportSpeed   BonusType = "import_speed"   // Fractional speed-up of shipment transit
	BonusSalePrice     BonusType = "sale_price"     // Fractional sale price premium, optionally per drug
	BonusIncome        BonusType = "income"         // Fractional business income premium
	BonusHeatReduction BonusType = "heat_reduction" // Consumed outside the core
)

// Business is a front that earns passive income every game-hour.
type Business struct {
	ID              string  `yaml:"id" json:"id"`
	Name            string  `yaml:"name" json:"name"`
	Cost            float64 `yaml:"cost" json:"cost"`
	ProfitPerHour   float64 `yaml:"profit_per_hour" json:"profit_per_hour"`
	MinLevel        int     `yaml:"min_level" json:"min_level"`
	UpgradeBaseCost float64 `yaml:"upgrade_base_cost" json:"upgrade_base_cost"`
}

// Warehouse is a purchasable storage tier. Capacities of owned tiers add up.
type Warehouse struct {
	ID       string  `yaml:"id" json:"id"`
	Name     string  `yaml:"name" json:"name"`
	Capacity int     `yaml:"capacity" json:"capacity"`
	Cost     float64 `yaml:"cost" json:"cost"`
	MinLevel int     `yaml:"min_level" json:"min_level"`
}

// Leg is one timed segment of a route.
type Leg struct {
	Name    string  `yaml:"name" json:"name"`
	Minutes float64 `yaml:"minutes" json:"minutes"`
}

// Route is an ordered sequence of legs.
type Route []Leg

// TotalMinutes returns the summed duration of all legs.
func (r Route) TotalMinutes() float64 {
	total := 0.0
	for _, l := range r {
		total += l.Minutes
	}
	return total
}

// QualityRange bounds the nominal quality of a contract's product.
type QualityRange struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Contract is an import deal that periodically spawns shipments.
type Contract struct {
	ID              string       `yaml:"id" json:"id"`
	Name            string       `yaml:"name" json:"name"`
	Drug            Drug         `yaml:"drug" json:"drug"`
	Cost            float64      `yaml:"cost" json:"cost"`
	MinLevel        int          `yaml:"min_level" json:"min_level"`
	CooldownMinutes float64      `yaml:"cooldown_minutes" json:"cooldown_minutes"`
	MinGrams        int          `yaml:"min_grams" json:"min_grams"`
	MaxGrams        int          `yaml:"max_grams" json:"max_grams"`
	Quality         QualityRange `yaml:"quality" json:"quality"`
	Route           Route        `yaml:"route" json:"route"`
}

// FirstDeliveryDelay is the grace period before a newly bought contract ships.
func (c Contract) FirstDeliveryDelay() float64 {
	return max(30, c.CooldownMinutes*0.25)
}

// Bonus is a territory perk at full control. Drug is empty for global bonuses.
type Bonus struct {
	Type  BonusType `yaml:"type" json:"type"`
	Drug  Drug      `yaml:"drug,omitempty" json:"drug,omitempty"`
	Value float64   `yaml:"value" json:"value"`
}

// Territory is a contestable area of the map.
type Territory struct {
	ID                   string     `yaml:"id" json:"id"`
	Name                 string     `yaml:"name" json:"name"`
	Density              float64    `yaml:"density" json:"density"`
	Difficulty           Difficulty `yaml:"difficulty" json:"difficulty"`
	HeatModifier         float64    `yaml:"heat_modifier" json:"heat_modifier"`
	PassiveIncomePerHour float64    `yaml:"passive_income_per_hour" json:"passive_income_per_hour"`
	UpkeepPerDealerHour  float64    `yaml:"upkeep_per_dealer_hour" json:"upkeep_per_dealer_hour"`
	FortifyCost          float64    `yaml:"fortify_cost" json:"fortify_cost"`
	Bonuses              []Bonus    `yaml:"bonuses" json:"bonuses"`
}

// Catalog is the full set of static definitions.
type Catalog struct {
	BasePrices  map[Drug]float64 `yaml:"base_prices" json:"base_prices"`
	Businesses  []Business       `yaml:"businesses" json:"businesses"`
	Warehouses  []Warehouse      `yaml:"warehouses" json:"warehouses"`
	Contracts   []Contract       `yaml:"contracts" json:"contracts"`
	Territories []Territory      `yaml:"territories" json:"territories"`
}

// Default returns the embedded catalog. It panics if the embedded document is
// invalid, which can only happen through a broken build.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	seen := make(map[string]bool)
	unique := func(kind, id string) error {
		if id == "" {
			return fmt.Errorf("%s with empty id", kind)
		}
		key := kind + "/" + id
		if seen[key] {
			return fmt.Errorf("duplicate %s id %q", kind, id)
		}
		seen[key] = true
		return nil
	}

	for _, b := range c.Businesses {
		if err := unique("business", b.ID); err != nil {
			return err
		}
		if b.Cost < 0 || b.ProfitPerHour < 0 || b.UpgradeBaseCost < 0 {
			return fmt.Errorf("business %q: negative economics", b.ID)
		}
	}
	for _, w := range c.Warehouses {
		if err := unique("warehouse", w.ID); err != nil {
			return err
		}
		if w.Capacity <= 0 {
			return fmt.Errorf("warehouse %q: capacity must be positive", w.ID)
		}
	}
	for _, ct := range c.Contracts {
		if err := unique("contract", ct.ID); err != nil {
			return err
		}
		if _, ok := c.BasePrices[ct.Drug]; !ok {
			return fmt.Errorf("contract %q: unknown drug %q", ct.ID, ct.Drug)
		}
		if ct.MinGrams < 1 || ct.MinGrams > ct.MaxGrams {
			return fmt.Errorf("contract %q: bad gram range [%d,%d]", ct.ID, ct.MinGrams, ct.MaxGrams)
		}
		if ct.Quality.Min < 0 || ct.Quality.Max > 100 || ct.Quality.Min > ct.Quality.Max {
			return fmt.Errorf("contract %q: bad quality range", ct.ID)
		}
		if len(ct.Route) == 0 {
			return fmt.Errorf("contract %q: empty route", ct.ID)
		}
		for _, leg := range ct.Route {
			if leg.Minutes <= 0 {
				return fmt.Errorf("contract %q: leg %q must have positive duration", ct.ID, leg.Name)
			}
		}
	}
	for _, t := range c.Territories {
		if err := unique("territory", t.ID); err != nil {
			return err
		}
		if !t.Difficulty.Valid() {
			return fmt.Errorf("territory %q: unknown difficulty %q", t.ID, t.Difficulty)
		}
		for _, b := range t.Bonuses {
			if b.Drug != "" {
				if _, ok := c.BasePrices[b.Drug]; !ok {
					return fmt.Errorf("territory %q: bonus for unknown drug %q", t.ID, b.Drug)
				}
			}
		}
	}
	return nil
}

// Business looks up a business definition by id.
func (c *Catalog) Business(id string) (Business, bool) {
	for _, b := range c.Businesses {
		if b.ID == id {
			return b, true
		}
	}
	return Business{}, false
}

// Warehouse looks up a warehouse tier by id.
func (c *Catalog) Warehouse(id string) (Warehouse, bool) {
	for _, w := range c.Warehouses {
		if w.ID == id {
			return w, true
		}
	}
	return Warehouse{}, false
}

// Contract looks up an import contract by id.
func (c *Catalog) Contract(id string) (Contract, bool) {
	for _, ct := range c.Contracts {
		if ct.ID == id {
			return ct, true
		}
	}
	return Contract{}, false
}

// Territory looks up a territory by id.
func (c *Catalog) Territory(id string) (Territory, bool) {
	for _, t := range c.Territories {
		if t.ID == id {
			return t, true
		}
	}
	return Territory{}, false
}

// BasePrice returns the street price per gram at quality-neutral terms.
// Unknown drugs price at zero.
func (c *Catalog) BasePrice(d Drug) float64 {
	return c.BasePrices[d]
}

// Drugs returns every drug with a base price, sorted by name.
func (c *Catalog) Drugs() []Drug {
	out := make([]Drug, 0, len(c.BasePrices))
	for d := range c.BasePrices {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}
