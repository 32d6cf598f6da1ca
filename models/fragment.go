package models

// RawFragment is one candidate line kept by the list-item filter.
type RawFragment struct {
	Text     string
	Position int // index of the line in the fetched page
}

// TokenSet holds the numeric substrings pulled out of a single fragment,
// in the order they appear in the text.
type TokenSet struct {
	Fragment RawFragment
	Tokens   []string
}

// Len returns the number of extracted tokens.
func (t TokenSet) Len() int { return len(t.Tokens) }

// Schema is the declared, ordered list of column names a token set must fill.
// The expected field count is len(Fields); it is never inferred from data.
type Schema struct {
	Fields []string
}

// Len returns the expected field count.
func (s Schema) Len() int { return len(s.Fields) }
