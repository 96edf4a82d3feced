package monitor

// Side is the direction of an open position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
	SideNone  Side = "NONE"
)

// Sort policies accepted by the aggregator.
const (
	SortDefault = "default"
	SortPnLPct  = "pnl_pct"
	SortSLUSD   = "sl_usd"
)

// absentField is the display sentinel for data a row does not have.
const absentField = "-"

// marginEpsilon substitutes a margin the exchange reports as zero so the
// leverage and percentage computations stay finite.
const marginEpsilon = 1e-6

// Sort-rank sentinels for placeholder rows. They sit below any real
// position so flat symbols always sort last under performance orderings.
const (
	pnlRankAbsent = -999
	slRankAbsent  = -9999
)

// Row is the normalized, presentation-ready unit: exactly one per
// configured symbol, whether or not a position is open. Numeric fields of
// a placeholder row (Open == false) are meaningless and must be rendered
// as absent; Leverage alone stays valid, taken from the configuration.
type Row struct {
	Symbol      string
	Side        Side
	Leverage    int
	EntryPrice  float64
	MarkPrice   float64
	Margin      float64 // used margin, USD
	Notional    float64 // absolute position value, USD
	PnL         float64 // unrealized, USD
	PnLPercent  float64 // relative to margin, not notional
	RiskPercent float64 // margin / wallet balance
	StopLoss    StopLoss
	Open        bool
}
