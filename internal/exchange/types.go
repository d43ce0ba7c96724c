package exchange

import (
	"github.com/shopspring/decimal"
)

// TransactionsResponse is the raw /info/user_transactions payload.
type TransactionsResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    *TransactionLists `json:"data"`
}

// TransactionLists groups raw records by direction as delivered upstream.
type TransactionLists struct {
	Deposit    []RawTransaction `json:"deposit"`
	Withdrawal []RawTransaction `json:"withdrawal"`
}

// RawTransaction is one deposit/withdrawal record exactly as received.
// Numeric and date fields arrive as strings except krw_amount and fee,
// which the exchange transmits as JSON numbers.
type RawTransaction struct {
	Search          string          `json:"search"`
	TransferDate    string          `json:"transfer_date"`
	OrderCurrency   string          `json:"order_currency"`
	PaymentCurrency string          `json:"payment_currency"`
	Units           string          `json:"units"`
	Price           string          `json:"price"`
	KRWAmount       decimal.Decimal `json:"krw_amount"`
	Fee             decimal.Decimal `json:"fee"`
	OrderBalance    string          `json:"order_balance"`
	OrderID         string          `json:"order_id"`
}

// Account is one balance entry from /v1/accounts.
type Account struct {
	Currency            string `json:"currency"`
	Balance             string `json:"balance"`
	Locked              string `json:"locked"`
	AvgBuyPrice         string `json:"avg_buy_price"`
	AvgBuyPriceModified bool   `json:"avg_buy_price_modified"`
	UnitCurrency        string `json:"unit_currency"`
}

// OrderChance describes order availability for one market (/v1/orders/chance).
type OrderChance struct {
	BidFee      string             `json:"bid_fee"`
	AskFee      string             `json:"ask_fee"`
	MakerBidFee string             `json:"maker_bid_fee"`
	MakerAskFee string             `json:"maker_ask_fee"`
	Market      OrderChanceMarket  `json:"market"`
	BidAccount  OrderChanceAccount `json:"bid_account"`
	AskAccount  OrderChanceAccount `json:"ask_account"`
}

// OrderChanceMarket carries per-market order constraints.
type OrderChanceMarket struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	OrderTypes []string      `json:"order_types"`
	OrderSides []string      `json:"order_sides"`
	BidTypes   []string      `json:"bid_types"`
	AskTypes   []string      `json:"ask_types"`
	Bid        MarketSupport `json:"bid"`
	Ask        MarketSupport `json:"ask"`
	MaxTotal   string        `json:"max_total"`
	State      string        `json:"state"`
}

// MarketSupport bounds one side of a market.
type MarketSupport struct {
	Currency  string `json:"currency"`
	PriceUnit string `json:"price_unit"`
	MinTotal  string `json:"min_total"`
}

// OrderChanceAccount is the account snapshot attached to an order chance.
type OrderChanceAccount struct {
	Currency            string `json:"currency"`
	Balance             string `json:"balance"`
	Locked              string `json:"locked"`
	AvgBuyPrice         string `json:"avg_buy_price"`
	AvgBuyPriceModified bool   `json:"avg_buy_price_modified"`
	UnitCurrency        string `json:"unit_currency"`
}

// MarketCode is one listing from /v1/market/all.
type MarketCode struct {
	Market        string `json:"market"`
	KoreanName    string `json:"korean_name"`
	EnglishName   string `json:"english_name"`
	MarketWarning string `json:"market_warning"`
}
