package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

type seedProduct struct {
	name, description string
	purchase, sale    string
	stock             int
}

var seedData = []struct {
	department string
	products   []seedProduct
}{
	{"Groceries", []seedProduct{
		{"Coffee Beans", "Medium roast, whole bean, 500g", "6.50", "12.90", 40},
		{"Green Tea", "Loose leaf sencha, 100g", "3.10", "7.50", 25},
		{"Olive Oil", "Extra virgin, cold pressed, 750ml", "5.80", "11.20", 18},
	}},
	{"Kitchen", []seedProduct{
		{"French Press", "Borosilicate glass, 1 litre", "9.00", "24.00", 8},
		{"Chef Knife", "20cm stainless steel blade", "14.00", "39.90", 5},
	}},
	{"Stationery", []seedProduct{
		{"Notebook", "A5 dotted, 120 pages", "1.20", "4.50", 60},
		{"Fountain Pen", "Fine nib, refillable converter", "7.70", "19.00", 12},
	}},
}

// Seed loads demo departments and products into an empty catalog. It is a
// no-op when the catalog already has products.
func Seed(ctx context.Context, s Store) (int, error) {
	existing, err := s.Search(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("catalog: seed: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	created := 0
	for _, group := range seedData {
		dept, err := s.CreateDepartment(ctx, group.department)
		if err != nil {
			return created, fmt.Errorf("catalog: seed department %q: %w", group.department, err)
		}
		for _, sp := range group.products {
			_, err := s.CreateProduct(ctx, NewProduct{
				Name:          sp.name,
				Description:   sp.description,
				PurchasePrice: decimal.RequireFromString(sp.purchase),
				SalePrice:     decimal.RequireFromString(sp.sale),
				Stock:         sp.stock,
				PurchaseUnit:  1,
				SaleUnit:      1,
				DepartmentID:  dept.ID,
			})
			if err != nil {
				return created, fmt.Errorf("catalog: seed product %q: %w", sp.name, err)
			}
			created++
		}
	}
	return created, nil
}
