package catalog

func fptr(v float64) *float64 { return &v }

// Default returns the built-in pricing catalog used when no fixture file is
// configured. Keys are normalized node types (the trailing segment of the
// raw workflow type).
func Default() *Catalog {
	return New(map[string]PricingRule{
		"httpRequest": {
			BasePrice: 10,
			Modifiers: []Modifier{
				{Name: "attachment_mb", Type: ModifierPerMB, PricePerUnit: 1.0},
				{Name: "concurrency", Type: ModifierPerUnit, PricePerUnit: 2.0},
				{Name: "retry_enabled", Type: ModifierBoolean, PricePerUnit: 3.0},
			},
			PriceRules: PriceRules{Min: fptr(5), Max: fptr(100)},
		},
		"webhook": {
			BasePrice: 15,
			Modifiers: []Modifier{
				{Name: "auth_required", Type: ModifierBoolean, PricePerUnit: 5.0},
				{Name: "payload_kb", Type: ModifierPerKB, PricePerUnit: 0.05},
			},
			PriceRules: PriceRules{Min: fptr(10), Max: fptr(120)},
		},
		"scheduleTrigger": {
			BasePrice: 8,
			Modifiers: []Modifier{
				{Name: "frequency_per_day", Type: ModifierPerUnit, PricePerUnit: 0.5},
			},
			PriceRules: PriceRules{Min: fptr(5), Max: fptr(60)},
		},
		"emailSend": {
			BasePrice: 12,
			Modifiers: []Modifier{
				{Name: "attachment_mb", Type: ModifierPerMB, PricePerUnit: 1.5},
				{Name: "recipients", Type: ModifierPerUnit, PricePerUnit: 0.25},
			},
			PriceRules: PriceRules{Min: fptr(8), Max: fptr(90)},
		},
		"code": {
			BasePrice: 25,
			Modifiers: []Modifier{
				{Name: "complexity", Type: ModifierMultiplier, PricePerUnit: 1.0},
			},
			PriceRules: PriceRules{Min: fptr(15), Max: fptr(250)},
		},
		"function": {
			BasePrice: 25,
			Modifiers: []Modifier{
				{Name: "complexity", Type: ModifierMultiplier, PricePerUnit: 1.0},
			},
			PriceRules: PriceRules{Min: fptr(15), Max: fptr(250)},
		},
		"if": {
			BasePrice:  5,
			PriceRules: PriceRules{Min: fptr(3), Max: fptr(30)},
		},
		"switch": {
			BasePrice:  6,
			PriceRules: PriceRules{Min: fptr(3), Max: fptr(40)},
		},
		"set": {
			BasePrice:  4,
			PriceRules: PriceRules{Min: fptr(2), Max: fptr(25)},
		},
		"merge": {
			BasePrice:  7,
			PriceRules: PriceRules{Min: fptr(4), Max: fptr(45)},
		},
		"wait": {
			BasePrice:  3,
			PriceRules: PriceRules{Min: fptr(2), Max: fptr(20)},
		},
		"slack": {
			BasePrice: 9,
			Modifiers: []Modifier{
				{Name: "channels", Type: ModifierPerUnit, PricePerUnit: 1.0},
			},
			PriceRules: PriceRules{Min: fptr(5), Max: fptr(70)},
		},
		"googleSheets": {
			BasePrice: 14,
			Modifiers: []Modifier{
				{Name: "rows_per_run", Type: ModifierPerUnit, PricePerUnit: 0.01},
			},
			PriceRules: PriceRules{Min: fptr(10), Max: fptr(110)},
		},
		"postgres": {
			BasePrice: 18,
			Modifiers: []Modifier{
				{Name: "queries", Type: ModifierPerUnit, PricePerUnit: 0.5},
			},
			PriceRules: PriceRules{Min: fptr(12), Max: fptr(150)},
		},
	})
}
