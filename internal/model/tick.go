package model

// Tick is a single trade print inside a bar.
type Tick struct {
	Seq   int     `json:"seq"` // position within the bar, 1-based
	Price float64 `json:"price"`
	Qty   float64 `json:"qty"`
}
