package quoter

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"poolquote/internal/model"
	"poolquote/internal/pool"
	"poolquote/internal/tickdata"
)

// BuildState validates a snapshot into a pool state ready for simulation.
// Tick records are sorted here; the validating constructors reject anything
// else that is off about the data.
func BuildState(snap *model.PoolSnapshot) (*pool.State, error) {
	if snap == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	if !common.IsHexAddress(snap.Token0) || !common.IsHexAddress(snap.Token1) {
		return nil, fmt.Errorf("bad token address in snapshot %s/%s", snap.Token0, snap.Token1)
	}

	sqrtPrice, err := parseBig(snap.SqrtPriceX96, "sqrt_price_x96")
	if err != nil {
		return nil, err
	}
	liquidity, err := parseBig(snap.Liquidity, "liquidity")
	if err != nil {
		return nil, err
	}

	ticks := make([]tickdata.Tick, 0, len(snap.Ticks))
	for _, rec := range snap.Ticks {
		net, err := parseBig(rec.LiquidityNet, fmt.Sprintf("tick %d liquidity_net", rec.Index))
		if err != nil {
			return nil, err
		}
		gross, err := parseBig(rec.LiquidityGross, fmt.Sprintf("tick %d liquidity_gross", rec.Index))
		if err != nil {
			return nil, err
		}
		ticks = append(ticks, tickdata.Tick{Index: rec.Index, LiquidityNet: net, LiquidityGross: gross})
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i].Index < ticks[j].Index })

	var opts []tickdata.Option
	if snap.Complete {
		opts = append(opts, tickdata.Complete())
	}
	set, err := tickdata.NewSet(ticks, snap.TickSpacing, opts...)
	if err != nil {
		return nil, err
	}

	return pool.New(pool.Config{
		Token0:       common.HexToAddress(snap.Token0),
		Token1:       common.HexToAddress(snap.Token1),
		Fee:          snap.Fee,
		TickSpacing:  snap.TickSpacing,
		SqrtPriceX96: sqrtPrice,
		Tick:         snap.Tick,
		Liquidity:    liquidity,
		Ticks:        set,
	})
}

func parseBig(value, field string) (*big.Int, error) {
	out, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("bad %s: %q", field, value)
	}
	return out, nil
}
