package domain

// CartLine is one pending product intent. Quantity is always positive.
type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// CloneLines copies lines so callers never alias a store's backing array.
func CloneLines(lines []CartLine) []CartLine {
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}
