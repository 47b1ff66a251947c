package models

// SymbolQuery selects one symbol via ?symbol=.
type SymbolQuery struct {
	Symbol string `query:"symbol" validate:"required,symbol"`
}

// SetAutoRequest toggles auto gating. An empty symbol changes the global
// default and every watched symbol.
type SetAutoRequest struct {
	Symbol  string `json:"symbol" validate:"omitempty,symbol"`
	Enabled *bool  `json:"enabled" validate:"required"`
}

type WatchRequest struct {
	Symbol string `json:"symbol" param:"symbol" validate:"required,symbol"`
}

// TransitionsRequest carries the history query. from/to are parsed separately
// so RFC3339 and unix forms are both accepted.
type TransitionsRequest struct {
	Symbol string `query:"symbol" validate:"required,symbol"`
	From   string `query:"from"`
	To     string `query:"to"`
	Limit  int    `query:"limit" default:"500" validate:"gte=1"`
}

type AutoFlagsResponse struct {
	Default   bool            `json:"default"`
	PerSymbol map[string]bool `json:"per_symbol"`
}

type WatchResponse struct {
	Symbol  string `json:"symbol"`
	Changed bool   `json:"changed"`
}
