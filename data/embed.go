package data

import (
	_ "embed"
)

// Proverbs is the bundled proverbs table, {section: [{identifier, text, meaning}]}
//
//go:embed proverbs.json
var Proverbs []byte
