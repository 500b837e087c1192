package strategy

import (
	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/indicator"
)

// IndicatorSet holds named indicator series, each index-aligned with
// the source bars. Warmup positions hold NaN; RSI holds its neutral 50
// sentinel instead.
type IndicatorSet map[string][]float64

// Series names produced by BuildIndicatorSet.
const (
	KeySMAFast    = "sma_fast"
	KeySMASlow    = "sma_slow"
	KeyRSI        = "rsi"
	KeyMACDDIF    = "macd_dif"
	KeyMACDDEA    = "macd_dea"
	KeyMACDHist   = "macd_hist"
	KeyBollMiddle = "boll_middle"
	KeyBollUpper  = "boll_upper"
	KeyBollLower  = "boll_lower"
	KeyVolumeSMA  = "volume_sma"
)

// Indicator periods used when the parameter set does not override them.
const (
	DefaultFastPeriod   = 5
	DefaultSlowPeriod   = 20
	DefaultRSIPeriod    = 14
	DefaultMACDFast     = 12
	DefaultMACDSlow     = 26
	DefaultMACDSignal   = 9
	DefaultBollPeriod   = 20
	DefaultBollWidth    = 2.0
	DefaultVolumePeriod = 20
)

// BuildIndicatorSet computes every indicator series the detector
// catalogue reads, once per bar series. All series are causal: the
// value at index i depends only on bars[0..i].
func BuildIndicatorSet(bars []core.Bar, params *Parameters) (IndicatorSet, error) {
	if len(bars) == 0 {
		return nil, core.WrapErrorf(core.ErrInvalidInput, "no bars to compute indicators from")
	}

	closes := core.Closes(bars)
	volumes := core.Volumes(bars)

	smaFast, err := indicator.SMA(closes, params.IntOr("fast_period", DefaultFastPeriod))
	if err != nil {
		return nil, err
	}
	smaSlow, err := indicator.SMA(closes, params.IntOr("slow_period", DefaultSlowPeriod))
	if err != nil {
		return nil, err
	}
	rsi, err := indicator.RSI(closes, params.IntOr("rsi_period", DefaultRSIPeriod))
	if err != nil {
		return nil, err
	}
	macd, err := indicator.MACD(closes,
		params.IntOr("macd_fast", DefaultMACDFast),
		params.IntOr("macd_slow", DefaultMACDSlow),
		params.IntOr("macd_signal", DefaultMACDSignal),
	)
	if err != nil {
		return nil, err
	}
	boll, err := indicator.Bollinger(closes,
		params.IntOr("boll_period", DefaultBollPeriod),
		params.FloatOr("boll_width", DefaultBollWidth),
	)
	if err != nil {
		return nil, err
	}
	volumeSMA, err := indicator.SMA(volumes, params.IntOr("volume_period", DefaultVolumePeriod))
	if err != nil {
		return nil, err
	}

	return IndicatorSet{
		KeySMAFast:    smaFast,
		KeySMASlow:    smaSlow,
		KeyRSI:        rsi,
		KeyMACDDIF:    macd.DIF,
		KeyMACDDEA:    macd.DEA,
		KeyMACDHist:   macd.Histogram,
		KeyBollMiddle: boll.Middle,
		KeyBollUpper:  boll.Upper,
		KeyBollLower:  boll.Lower,
		KeyVolumeSMA:  volumeSMA,
	}, nil
}
