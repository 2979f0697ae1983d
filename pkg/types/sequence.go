package types

// Separators used when deriving sequence keys and titles.
const (
	SeqKeySep = "|"
	TitleSep  = " → "
)

// SeqModel is the derived view of one sequence path.
type SeqModel struct {
	SeqKey string   `json:"seqKey"`
	Title  string   `json:"title"`
	Tokens []string `json:"tokens"`
}

// CatalogItem describes one catalog entry referenced by sequence paths.
type CatalogItem struct {
	Key   string `json:"key" toml:"key"`
	Token string `json:"token" toml:"token"`
	Label string `json:"label" toml:"label"`
}

// Catalog resolves catalog keys to labels.
type Catalog interface {
	// Token returns the token label for key.
	Token(key string) string

	// Label returns the human label for key.
	Label(key string) string
}
