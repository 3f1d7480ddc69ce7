package entity

// Result is the outcome of validating a single input.
type Result struct {
	Valid   bool   `json:"isValid"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// NumericResult carries the value the caller should use: the parsed value,
// the default for empty or unparsable input, or the clamped value.
type NumericResult struct {
	Result
	Value int `json:"parsedValue"`
}

// ColorResult reports contrast between the dark and light colors.
type ColorResult struct {
	Result
	ContrastRatio float64 `json:"contrastRatio"`
	Scannable     bool    `json:"scannable"`
}
