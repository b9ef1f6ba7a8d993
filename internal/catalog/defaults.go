package catalog

func num(v float64) *float64 { return &v }

// defaultEntries is the stock shop. Cost steps are the irregular flat bumps
// some upgrades take after each purchase.
var defaultEntries = []Entry{
	{ID: "extra-hands", Name: "Extra Hands", Kind: Producer, BaseCost: 10, CPC: num(2), ClickMode: ClickAdd},
	{ID: "cursor", Name: "Cursor", Kind: Producer, BaseCost: 50, CPS: num(0.5)},
	{ID: "grandma", Name: "Grandma", Kind: Producer, BaseCost: 100, CPS: num(1)},
	{ID: "farm", Name: "Farm", Kind: Producer, BaseCost: 500, CPS: num(5)},
	{ID: "factory", Name: "Factory", Kind: Producer, BaseCost: 1000, CPS: num(10)},

	{ID: "click-multiplier-1", Name: "Click Multiplier 1", Kind: Upgrade, BaseCost: 200, CPC: num(1.05), ClickMode: ClickMultiply, CostStep: 50},
	{ID: "click-multiplier-2", Name: "Click Multiplier 2", Kind: Upgrade, BaseCost: 500, CPC: num(1.15), ClickMode: ClickMultiply, CostStep: 125},
	{ID: "click-multiplier-3", Name: "Click Multiplier 3", Kind: Upgrade, BaseCost: 1000, CPC: num(1.35), ClickMode: ClickMultiply, CostStep: 400},
	{ID: "increase-click-1", Name: "Increase Click 1", Kind: Upgrade, BaseCost: 300, CPC: num(2), ClickMode: ClickAdd},
	{ID: "increase-click-2", Name: "Increase Click 2", Kind: Upgrade, BaseCost: 600, CPC: num(3), ClickMode: ClickAdd},
	{ID: "increase-click-3", Name: "Increase Click 3", Kind: Upgrade, BaseCost: 1200, CPC: num(5), ClickMode: ClickAdd, CostStep: 250},
}

// Default returns the stock catalog.
func Default() *Catalog {
	c, err := New(defaultEntries)
	if err != nil {
		panic("catalog: invalid default entries: " + err.Error())
	}
	return c
}
