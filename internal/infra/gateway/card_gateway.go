package gateway

import (
	"context"
	"math/rand"

	"app/internal/usecase"

	"github.com/shopspring/decimal"
)

// 決済ゲートウェイのシミュレーション実装。
// 実運用では外部ゲートウェイの呼び出しに置き換わる。
type SimulatedCardGateway struct {
	//成功率（0.0〜1.0）
	SuccessRate float64
}

func NewSimulatedCardGateway() *SimulatedCardGateway {
	return &SimulatedCardGateway{SuccessRate: 0.95}
}

func (g *SimulatedCardGateway) Charge(ctx context.Context, card usecase.CardDetails, amount decimal.Decimal) (bool, error) {
	return rand.Float64() < g.SuccessRate, nil
}
