package types

import "strings"

// Placeholder marks an output that has not been filled in yet.
const Placeholder = "…"

// Row is one editable value inside a Block.
type Row struct {
	// TokenIndex is the position in the sequence token list; 0 is the headword.
	TokenIndex int `json:"tokenIndex"`

	// Token is the token label at TokenIndex when the row was created.
	Token string `json:"token"`

	// Block is the number of the owning Block.
	Block int `json:"block"`

	// Dec is the decimal sub-version within (Block, TokenIndex). Nil reads as 1.
	Dec *int `json:"dec,omitempty"`

	// Output is the operator's value, or Placeholder.
	Output string `json:"output"`

	// Excluded rows stay editable but never reach any export or upload.
	Excluded bool `json:"excluded,omitempty"`
}

// Decimal returns the row's decimal, applying the fallback of 1.
func (r Row) Decimal() int {
	if r.Dec == nil {
		return 1
	}
	return *r.Dec
}

// Filled reports whether the row carries a real output value.
func (r Row) Filled() bool { return IsFilled(r.Output) }

// Exportable reports whether the row contributes to exports and uploads.
func (r Row) Exportable() bool { return !r.Excluded && r.Filled() }

// DecPtr returns a pointer to d, for building rows.
func DecPtr(d int) *int { return &d }

// IsFilled reports whether output is neither blank nor the placeholder.
func IsFilled(output string) bool {
	v := strings.TrimSpace(output)
	return v != "" && v != Placeholder
}

// ExportValue returns the value written for output in exports and uploads.
func ExportValue(output string) string {
	return strings.TrimSpace(output)
}

// Block is one full pass of rows across the tokens of a sequence.
type Block struct {
	Block int   `json:"block"`
	Rows  []Row `json:"rows"`
}

// Clone returns a deep copy of b.
func (b Block) Clone() Block {
	out := Block{Block: b.Block, Rows: make([]Row, len(b.Rows))}
	for i, r := range b.Rows {
		if r.Dec != nil {
			r.Dec = DecPtr(*r.Dec)
		}
		out.Rows[i] = r
	}
	return out
}

// CloneBlocks returns a deep copy of blocks.
func CloneBlocks(blocks []Block) []Block {
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.Clone()
	}
	return out
}
