package dto

import (
	"stocklot/internal/core/types"
	"stocklot/internal/domain/catalog"
)

type ProductResponse struct {
	ID           string           `json:"id"`
	SKU          string           `json:"sku"`
	Name         string           `json:"name"`
	Unit         string           `json:"unit"`
	CostPrice    types.MinorUnits `json:"costPrice"`
	SellingPrice types.MinorUnits `json:"sellingPrice"`
}

func FromProduct(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID.String(),
		SKU:          p.SKU,
		Name:         p.Name,
		Unit:         p.Unit,
		CostPrice:    p.CostPrice,
		SellingPrice: p.SellingPrice,
	}
}

func FromProductList(products []catalog.Product) []ProductResponse {
	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, FromProduct(&products[i]))
	}
	return items
}
