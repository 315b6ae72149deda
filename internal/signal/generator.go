// Package signal generates trading signals from the current market price.
package signal

import (
	"context"
	"math"
	"math/rand"

	"trading-signal-bot/types"
)

const (
	stopLossFactor   = 0.995
	takeProfitFactor = 1.005

	confidenceMin = 70
	confidenceMax = 90
)

// Generator emits one Signal per call. Symbol and direction are uniform
// random draws; the offsets are symmetric regardless of direction.
type Generator struct {
	prices  types.PriceSource
	clock   types.Clock
	rnd     *rand.Rand
	symbols []string
}

func NewGenerator(prices types.PriceSource, clock types.Clock, rnd *rand.Rand, symbols []string) *Generator {
	if len(symbols) == 0 {
		symbols = []string{"XAUUSD", "EURUSD", "GBPUSD"}
	}
	return &Generator{
		prices:  prices,
		clock:   clock,
		rnd:     rnd,
		symbols: symbols,
	}
}

// Generate returns a signal or ErrMarketUnavailable when no price can be
// fetched. The caller must not deliver a partial signal.
func (g *Generator) Generate(ctx context.Context) (*types.Signal, error) {
	symbol := g.symbols[g.rnd.Intn(len(g.symbols))]

	price, err := g.prices.PriceOf(ctx, symbol)
	if err != nil {
		return nil, err
	}

	direction := types.DirectionBuy
	if g.rnd.Intn(2) == 1 {
		direction = types.DirectionSell
	}

	entry := round2(price)
	return &types.Signal{
		Symbol:     symbol,
		Direction:  direction,
		Mode:       types.ModeAuto,
		Entry:      entry,
		StopLoss:   round2(entry * stopLossFactor),
		TakeProfit: round2(entry * takeProfitFactor),
		Confidence: confidenceMin + g.rnd.Intn(confidenceMax-confidenceMin+1),
		Timestamp:  g.clock.NowTime().Format("2006-01-02 15:04:05"),
	}, nil
}

// round2 rounds half away from zero to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
