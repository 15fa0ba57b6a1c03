// Copyright (c) 2024 BVK Chaitanya

package strategy

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/bvk/ladderbot/exchange"
	"github.com/shopspring/decimal"
)

var testQuote = &exchange.Quote{
	Bid: decimal.RequireFromString("99.5"),
	Ask: decimal.RequireFromString("100.5"),
}

func testParams(v Variant) *Params {
	return &Params{
		Variant:               v,
		MinSize:               decimal.NewFromInt(1),
		MaxSize:               decimal.NewFromInt(5),
		IntervalMin:           time.Second,
		IntervalMax:           10 * time.Second,
		CycleIntervalMin:      time.Minute,
		CycleIntervalMax:      5 * time.Minute,
		MaxConsecutiveSide:    3,
		BalanceWindow:         10,
		BurstMinVolume:        decimal.NewFromInt(100),
		BurstMaxVolume:        decimal.NewFromInt(200),
		BurstMinExecutions:    5,
		BurstMaxExecutions:    15,
		BurstMaxTradeSize:     decimal.NewFromInt(30),
		BurstPriceSpreadUnits: decimal.RequireFromString("0.25"),
		BurstMicroDelayMin:    time.Second,
		BurstMicroDelayMax:    3 * time.Second,
	}
}

func TestConsecutiveSideBound(t *testing.T) {
	for _, v := range Variants {
		p := testParams(v)
		rng := rand.New(rand.NewPCG(7, uint64(len(v))))
		s := NewState()

		var sides []exchange.Side
		for i := 0; i < 2000; i++ {
			d, err := Decide(s, p, testQuote, rng)
			if err != nil {
				t.Fatal(err)
			}
			Begin(s, d)
			Record(s, p, d.Side, d.Size)
			sides = append(sides, d.Side)
		}

		run := 1
		for i := 1; i < len(sides); i++ {
			if sides[i] == sides[i-1] {
				run++
			} else {
				run = 1
			}
			if run > p.MaxConsecutiveSide {
				t.Fatalf("%s: %d consecutive %s decisions at %d", v, run, sides[i], i)
			}
		}
	}
}

func TestDecideRanges(t *testing.T) {
	for _, v := range Variants {
		if v == HighVolumeBurst {
			continue
		}
		p := testParams(v)
		rng := rand.New(rand.NewPCG(11, 13))
		s := NewState()
		for i := 0; i < 500; i++ {
			d, err := Decide(s, p, testQuote, rng)
			if err != nil {
				t.Fatal(err)
			}
			if d.Size.LessThan(p.MinSize) || d.Size.GreaterThan(p.MaxSize) {
				t.Fatalf("%s: size %s is out of range", v, d.Size)
			}
			if d.Delay < p.IntervalMin || d.Delay > p.IntervalMax {
				t.Fatalf("%s: delay %s is out of range", v, d.Delay)
			}
			if d.Burst != nil {
				t.Fatalf("%s: unexpected burst", v)
			}
			Record(s, p, d.Side, d.Size)
		}
	}
}

func TestDecideDoesNotModifyState(t *testing.T) {
	p := testParams(HighVolumeBurst)
	rng := rand.New(rand.NewPCG(1, 1))
	s := NewState()
	if _, err := Decide(s, p, testQuote, rng); err != nil {
		t.Fatal(err)
	}
	if s.IsBursting() || s.TradeCount != 0 || len(s.RecentSides) != 0 {
		t.Fatalf("decide must not modify the state")
	}
}

func TestAlternating(t *testing.T) {
	p := testParams(Alternating)
	rng := rand.New(rand.NewPCG(5, 6))
	s := NewState()
	var last exchange.Side
	for i := 0; i < 50; i++ {
		d, err := Decide(s, p, testQuote, rng)
		if err != nil {
			t.Fatal(err)
		}
		if i > 0 && d.Side == last {
			t.Fatalf("want %s, got %s", last.Opposite(), d.Side)
		}
		Record(s, p, d.Side, d.Size)
		last = d.Side
	}
}

func TestBalanced(t *testing.T) {
	p := testParams(Balanced)
	rng := rand.New(rand.NewPCG(8, 9))
	s := NewState()
	for i := 0; i < 3; i++ {
		Record(s, p, exchange.Sell, decimal.NewFromInt(1))
	}
	Record(s, p, exchange.Buy, decimal.NewFromInt(1))

	d, err := Decide(s, p, testQuote, rng)
	if err != nil {
		t.Fatal(err)
	}
	if d.Side != exchange.Buy {
		t.Fatalf("want BUY, got %s", d.Side)
	}

	for i := 0; i < 1000; i++ {
		d, err := Decide(s, p, testQuote, rng)
		if err != nil {
			t.Fatal(err)
		}
		Record(s, p, d.Side, d.Size)
		buys, sells := s.Counts(p.BalanceWindow)
		if diff := buys - sells; diff > 2 || diff < -2 {
			t.Fatalf("imbalance %d over the window", diff)
		}
	}
}

func TestSmartSpreadPrice(t *testing.T) {
	p := testParams(SmartSpread)
	rng := rand.New(rand.NewPCG(2, 3))
	s := NewState()
	for i := 0; i < 100; i++ {
		d, err := Decide(s, p, testQuote, rng)
		if err != nil {
			t.Fatal(err)
		}
		if d.Side == exchange.Buy && !d.Price.Equal(testQuote.Bid) {
			t.Fatalf("want buy at bid, got %s", d.Price)
		}
		if d.Side == exchange.Sell && !d.Price.Equal(testQuote.Ask) {
			t.Fatalf("want sell at ask, got %s", d.Price)
		}
		Record(s, p, d.Side, d.Size)
	}
}

func TestHeavyVariants(t *testing.T) {
	for _, v := range []Variant{BuyHeavy, SellHeavy} {
		p := testParams(v)
		p.MaxConsecutiveSide = 1000
		rng := rand.New(rand.NewPCG(21, 22))
		s := NewState()
		buys := 0
		const n = 10000
		for i := 0; i < n; i++ {
			d, err := Decide(s, p, testQuote, rng)
			if err != nil {
				t.Fatal(err)
			}
			if d.Side == exchange.Buy {
				buys++
			}
		}
		ratio := float64(buys) / n
		if v == BuyHeavy && (ratio < 0.65 || ratio > 0.75) {
			t.Fatalf("%s: want buy ratio near 0.7, got %f", v, ratio)
		}
		if v == SellHeavy && (ratio < 0.25 || ratio > 0.35) {
			t.Fatalf("%s: want buy ratio near 0.3, got %f", v, ratio)
		}
	}
}

func TestBurstTermination(t *testing.T) {
	p := testParams(HighVolumeBurst)
	rng := rand.New(rand.NewPCG(31, 37))
	s := NewState()

	for burst := 0; burst < 50; burst++ {
		d, err := Decide(s, p, testQuote, rng)
		if err != nil {
			t.Fatal(err)
		}
		if d.Burst == nil {
			t.Fatalf("want a new burst")
		}
		planned := d.Burst.ExecutionsPlanned
		target := d.Burst.TargetVolume
		if planned < p.BurstMinExecutions || planned > p.BurstMaxExecutions {
			t.Fatalf("planned executions %d out of range", planned)
		}
		if target.LessThan(p.BurstMinVolume) || target.GreaterThan(p.BurstMaxVolume) {
			t.Fatalf("target volume %s out of range", target)
		}
		if d.Burst.PerTradeSize.GreaterThan(p.BurstMaxTradeSize) {
			t.Fatalf("per trade size %s above the ceiling", d.Burst.PerTradeSize)
		}

		Begin(s, d)
		volume := decimal.Zero
		decisions := 0
		for s.IsBursting() {
			if decisions > 0 {
				if d, err = Decide(s, p, testQuote, rng); err != nil {
					t.Fatal(err)
				}
			}
			decisions++
			if decisions > planned {
				t.Fatalf("burst did not end within %d decisions", planned)
			}

			lo := testQuote.Mid().Sub(p.BurstPriceSpreadUnits)
			hi := testQuote.Mid().Add(p.BurstPriceSpreadUnits)
			if d.Price.LessThan(lo) || d.Price.GreaterThan(hi) {
				t.Fatalf("burst price %s outside [%s, %s]", d.Price, lo, hi)
			}

			Record(s, p, d.Side, d.Size)
			volume = volume.Add(d.Size)
			if s.IsBursting() {
				if d.Delay < p.BurstMicroDelayMin || d.Delay > p.BurstMicroDelayMax {
					t.Fatalf("micro delay %s out of range", d.Delay)
				}
			} else if d.Delay < p.CycleIntervalMin || d.Delay > p.CycleIntervalMax {
				t.Fatalf("delay after the burst %s out of range", d.Delay)
			}
		}
		if decisions < planned && volume.LessThan(target) {
			t.Fatalf("burst ended early at %d/%d with volume %s/%s", decisions, planned, volume, target)
		}
	}
	if s.BurstCount != 50 {
		t.Fatalf("want 50 bursts, got %d", s.BurstCount)
	}
}

func TestRecentSidesWindow(t *testing.T) {
	p := testParams(Random)
	s := NewState()
	for i := 0; i < 100; i++ {
		Record(s, p, exchange.Buy, decimal.NewFromInt(2))
	}
	if len(s.RecentSides) != p.Window() {
		t.Fatalf("want %d recent sides, got %d", p.Window(), len(s.RecentSides))
	}
	if s.TradeCount != 100 || !s.CumulativeVolume.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("unexpected totals %d %s", s.TradeCount, s.CumulativeVolume)
	}
	if side, n := s.ConsecutiveSameSide(); side != exchange.Buy || n != p.Window() {
		t.Fatalf("want BUY x %d, got %s x %d", p.Window(), side, n)
	}
}

func TestParamsCheck(t *testing.T) {
	p := testParams(Random)
	p.MaxConsecutiveSide = 0
	if err := p.Check(); err == nil {
		t.Fatalf("want error for zero max consecutive side")
	}
	p = testParams(Random)
	p.MaxSize = decimal.Zero
	if err := p.Check(); err == nil {
		t.Fatalf("want error for max size below min size")
	}
	p = testParams(HighVolumeBurst)
	p.BurstMaxExecutions = 1
	if err := p.Check(); err == nil {
		t.Fatalf("want error for burst max executions below min")
	}
	p = testParams("NOPE")
	if err := p.Check(); err == nil {
		t.Fatalf("want error for unknown variant")
	}
	if v, err := ParseVariant("high-volume-burst"); err != nil || v != HighVolumeBurst {
		t.Fatalf("want %s, got %s (err %v)", HighVolumeBurst, v, err)
	}
}

func TestBalanceUsesBalanceWindow(t *testing.T) {
	p := testParams(Balanced)
	p.BalanceWindow = 2
	p.MaxConsecutiveSide = 5
	rng := rand.New(rand.NewPCG(1, 1))

	s := NewState()
	for _, side := range []exchange.Side{exchange.Sell, exchange.Sell, exchange.Sell, exchange.Buy, exchange.Buy} {
		Record(s, p, side, decimal.NewFromInt(1))
	}
	if n := len(s.RecentSides); n != 5 {
		t.Fatalf("want 5 retained sides, got %d", n)
	}

	// Sells dominate the retained history but buys dominate the last two.
	d, err := Decide(s, p, testQuote, rng)
	if err != nil {
		t.Fatal(err)
	}
	if d.Side != exchange.Sell {
		t.Fatalf("want SELL, got %s", d.Side)
	}
}
