package coingecko

// Market is one row of the markets listing, reduced to the fields the
// dashboard renders. Numeric fields are pointers because CoinGecko omits
// them for thinly traded coins.
type Market struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	Image                    string   `json:"image"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCap                *int64   `json:"market_cap"`
	MarketCapRank            *int     `json:"market_cap_rank"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	TotalVolume              *float64 `json:"total_volume"`
	CirculatingSupply        *float64 `json:"circulating_supply"`
	TotalSupply              *float64 `json:"total_supply"`
}

// MarketPage is a paginated markets listing.
type MarketPage struct {
	Data    []Market `json:"data"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	PerPage int      `json:"per_page"`
}

// Chart holds historical series for one coin. Each point is a
// [timestamp-ms, value] pair, passed through from the upstream shape.
type Chart struct {
	CoinID       string      `json:"coin_id"`
	VsCurrency   string      `json:"vs_currency"`
	Days         int         `json:"days"`
	Prices       [][]float64 `json:"prices"`
	MarketCaps   [][]float64 `json:"market_caps"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

// TickerMarket identifies the exchange a ticker trades on.
type TickerMarket struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
}

// Ticker is one trading pair quote.
type Ticker struct {
	Base                   string             `json:"base"`
	Target                 string             `json:"target"`
	Market                 TickerMarket       `json:"market"`
	Last                   float64            `json:"last"`
	Volume                 float64            `json:"volume"`
	ConvertedLast          map[string]float64 `json:"converted_last"`
	ConvertedVolume        map[string]float64 `json:"converted_volume"`
	TrustScore             string             `json:"trust_score"`
	BidAskSpreadPercentage *float64           `json:"bid_ask_spread_percentage"`
	Timestamp              string             `json:"timestamp"`
	LastTradedAt           string             `json:"last_traded_at"`
	LastFetchAt            string             `json:"last_fetch_at"`
	IsAnomaly              bool               `json:"is_anomaly"`
	IsStale                bool               `json:"is_stale"`
	TradeURL               *string            `json:"trade_url"`
}

// TickerBook is the trading-pairs payload for one coin.
type TickerBook struct {
	CoinID  string   `json:"coin_id"`
	Tickers []Ticker `json:"tickers"`
}
