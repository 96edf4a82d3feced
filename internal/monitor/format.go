package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Formatter turns raw metric values into display strings. Formatting never
// fails: string inputs that do not parse are logged and passed through
// unchanged so a bad data point degrades one cell, not the table.
type Formatter struct {
	logger *zap.Logger
}

// NewFormatter creates a formatter that logs parse failures.
func NewFormatter(logger *zap.Logger) *Formatter {
	return &Formatter{logger: logger.Named("format")}
}

// SignedPercent renders v as "+X.XX%" or "-X.XX%". Values within threshold
// of zero form their own neutral class and carry no sign.
func (f *Formatter) SignedPercent(v, threshold float64) string {
	switch {
	case v > threshold:
		return fmt.Sprintf("+%.2f%%", v)
	case v < -threshold:
		return fmt.Sprintf("%.2f%%", v)
	default:
		return fmt.Sprintf("%.2f%%", v)
	}
}

// SignedDollar renders v as "+$1,234.56", "-$1,234.56" or "$0.00".
func (f *Formatter) SignedDollar(v float64) string {
	switch {
	case v > 0:
		return "+$" + groupThousands(v)
	case v < 0:
		return "-$" + groupThousands(-v)
	default:
		return "$0.00"
	}
}

// Dollar renders v as "$1,234.56" without a sign prefix.
func (f *Formatter) Dollar(v float64) string {
	return "$" + groupThousands(v)
}

// RiskDollar renders a dollar risk together with its share of the total
// balance: "$1,234.56 (4.20%)". A zero total yields 0%, never a panic.
func (f *Formatter) RiskDollar(v, totalBalance float64) string {
	pct := 0.0
	if totalBalance != 0 {
		pct = v / totalBalance * 100
	}
	return fmt.Sprintf("$%s (%.2f%%)", groupThousands(v), pct)
}

// PercentText is SignedPercent for values that arrive as strings.
func (f *Formatter) PercentText(raw string, threshold float64) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		f.logger.Error("failed to format percent", zap.String("value", raw), zap.Error(err))
		return raw
	}
	return f.SignedPercent(v, threshold)
}

// DollarText is SignedDollar for values that arrive as strings.
func (f *Formatter) DollarText(raw string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		f.logger.Error("failed to format dollar amount", zap.String("value", raw), zap.Error(err))
		return raw
	}
	return f.SignedDollar(v)
}

// groupThousands formats a value with two decimals and comma separators:
// 1234567.891 -> "1,234,567.89".
func groupThousands(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")

	if len(intPart) <= 3 {
		return sign + intPart + "." + fracPart
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + "." + fracPart
}
