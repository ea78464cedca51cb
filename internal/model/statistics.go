package model

// ProductRanking is one row of the best sellers of a period.
type ProductRanking struct {
	ProductID     uint    `json:"product_id"`
	ProductName   string  `json:"product_name"`
	TotalQuantity int     `json:"total_quantity"`
	TotalValue    float64 `json:"total_value"`
}
