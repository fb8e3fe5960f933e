package catalog

// Category is a device category offered for coverage.
type Category string

const (
	CategorySmartphone Category = "smartphone"
	CategoryTablet     Category = "tablet"
	CategoryLaptop     Category = "laptop"
	CategoryConsole    Category = "console"
	CategoryWearable   Category = "wearable"
	CategoryDrone      Category = "drone"
	CategoryAudio      Category = "audio"
)

var categoryOrder = []Category{
	CategorySmartphone,
	CategoryTablet,
	CategoryLaptop,
	CategoryConsole,
	CategoryWearable,
	CategoryDrone,
	CategoryAudio,
}

var categoryLabels = map[Category]string{
	CategorySmartphone: "Smartphone",
	CategoryTablet:     "Tablet",
	CategoryLaptop:     "Laptop",
	CategoryConsole:    "Console",
	CategoryWearable:   "Wearable",
	CategoryDrone:      "Drone",
	CategoryAudio:      "Audio",
}

// Label returns the display label of a category.
func (c Category) Label() string {
	return categoryLabels[c]
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Model is a device model and the tier it is priced at.
type Model struct {
	Name string `json:"name"`
	Tier int    `json:"tier"`
}

// BrandModels groups the priced models of one brand.
type BrandModels struct {
	Brand  string  `json:"brand"`
	Models []Model `json:"models"`
}

// defaultModels is ordered by brand then by descending device value.
var defaultModels = map[Category][]BrandModels{
	CategorySmartphone: {
		{Brand: "Apple", Models: []Model{
			{"iPhone 15 Pro Max", 4},
			{"iPhone 15 Pro", 4},
			{"iPhone 15 Plus", 3},
			{"iPhone 15", 3},
			{"iPhone 14 Pro Max", 4},
			{"iPhone 14 Pro", 3},
			{"iPhone 14", 3},
			{"iPhone 13", 2},
			{"iPhone 12", 2},
			{"iPhone SE", 1},
		}},
		{Brand: "Samsung", Models: []Model{
			{"Galaxy S24 Ultra", 4},
			{"Galaxy S24+", 4},
			{"Galaxy S24", 3},
			{"Galaxy S23 Ultra", 4},
			{"Galaxy S23", 3},
			{"Galaxy Z Fold 5", 4},
			{"Galaxy Z Flip 5", 3},
			{"Galaxy A54", 2},
			{"Galaxy A34", 1},
		}},
		{Brand: "Google", Models: []Model{
			{"Pixel 8 Pro", 3},
			{"Pixel 8", 3},
			{"Pixel 7a", 2},
			{"Pixel 7", 2},
			{"Pixel 6a", 1},
		}},
		{Brand: "OnePlus", Models: []Model{
			{"OnePlus 12", 3},
			{"OnePlus 11", 3},
			{"OnePlus Nord 3", 2},
			{"OnePlus Nord CE 3", 1},
		}},
	},
	CategoryTablet: {
		{Brand: "Apple", Models: []Model{
			{`iPad Pro 12.9"`, 4},
			{`iPad Pro 11"`, 4},
			{"iPad Air", 3},
			{"iPad 10th Gen", 2},
			{"iPad Mini", 2},
		}},
		{Brand: "Samsung", Models: []Model{
			{"Galaxy Tab S9 Ultra", 4},
			{"Galaxy Tab S9+", 4},
			{"Galaxy Tab S9", 3},
			{"Galaxy Tab A9+", 2},
			{"Galaxy Tab A9", 1},
		}},
		{Brand: "Microsoft", Models: []Model{
			{"Surface Pro 9", 4},
			{"Surface Go 3", 2},
		}},
	},
	CategoryLaptop: {
		{Brand: "Apple", Models: []Model{
			{`MacBook Pro 16"`, 4},
			{`MacBook Pro 14"`, 4},
			{`MacBook Air 15"`, 3},
			{`MacBook Air 13"`, 3},
		}},
		{Brand: "Dell", Models: []Model{
			{"XPS 15", 4},
			{"XPS 13", 3},
			{"Inspiron 15", 2},
			{"Inspiron 14", 1},
		}},
		{Brand: "HP", Models: []Model{
			{"Spectre x360", 4},
			{"Envy x360", 3},
			{"Pavilion 15", 2},
			{"Pavilion 14", 1},
		}},
		{Brand: "Lenovo", Models: []Model{
			{"ThinkPad X1 Carbon", 4},
			{"ThinkPad T14", 3},
			{"IdeaPad 5", 2},
			{"IdeaPad 3", 1},
		}},
	},
	CategoryConsole: {
		{Brand: "Sony", Models: []Model{
			{"PlayStation 5", 3},
			{"PlayStation 5 Digital", 2},
			{"PlayStation 4 Pro", 2},
			{"PlayStation 4", 1},
		}},
		{Brand: "Microsoft", Models: []Model{
			{"Xbox Series X", 3},
			{"Xbox Series S", 2},
			{"Xbox One X", 2},
			{"Xbox One S", 1},
		}},
		{Brand: "Nintendo", Models: []Model{
			{"Switch OLED", 2},
			{"Switch", 2},
			{"Switch Lite", 1},
		}},
		{Brand: "Valve", Models: []Model{
			{"Steam Deck OLED", 3},
			{"Steam Deck", 2},
		}},
	},
	CategoryWearable: {
		{Brand: "Apple", Models: []Model{
			{"Apple Watch Ultra 2", 4},
			{"Apple Watch Series 9", 3},
			{"Apple Watch SE", 2},
		}},
		{Brand: "Samsung", Models: []Model{
			{"Galaxy Watch 6 Classic", 3},
			{"Galaxy Watch 6", 2},
			{"Galaxy Fit 3", 1},
		}},
		{Brand: "Garmin", Models: []Model{
			{"Fenix 7X", 4},
			{"Fenix 7", 3},
			{"Forerunner 965", 3},
			{"Forerunner 265", 2},
			{"Venu 3", 2},
		}},
	},
	CategoryDrone: {
		{Brand: "DJI", Models: []Model{
			{"Mavic 3 Pro", 4},
			{"Mavic 3 Classic", 4},
			{"Air 3", 3},
			{"Mini 4 Pro", 3},
			{"Mini 3", 2},
			{"Mini 2 SE", 1},
		}},
		{Brand: "Autel", Models: []Model{
			{"EVO II Pro", 4},
			{"EVO Nano+", 2},
			{"EVO Nano", 2},
		}},
	},
	CategoryAudio: {
		{Brand: "Apple", Models: []Model{
			{"AirPods Max", 3},
			{"AirPods Pro 2", 2},
			{"AirPods 3rd Gen", 1},
		}},
		{Brand: "Sony", Models: []Model{
			{"WH-1000XM5", 3},
			{"WH-1000XM4", 2},
			{"WF-1000XM5", 2},
			{"LinkBuds S", 1},
		}},
		{Brand: "Bose", Models: []Model{
			{"QuietComfort Ultra", 3},
			{"QuietComfort 45", 2},
			{"QuietComfort Earbuds II", 2},
		}},
		{Brand: "Sennheiser", Models: []Model{
			{"Momentum 4", 3},
			{"Momentum True Wireless 3", 2},
		}},
	},
}
