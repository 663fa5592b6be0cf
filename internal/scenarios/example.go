// Package scenarios is the built-in scenario set the loadforge CLI runs.
// A real deployment typically vendors its own scenario package; this one
// exists to exercise the full engine end to end against a Postgres
// target out of the box.
package scenarios

import (
	"time"

	"github.com/ryanbrace/loadforge/internal/engine"
	"github.com/ryanbrace/loadforge/internal/pgtarget"
)

// Build returns the scenarios the CLI runs by default, given the target
// DSN from the infra config.
func Build(targetDSN string) []*engine.Scenario {
	return []*engine.Scenario{pgSmoke(targetDSN)}
}

func pgSmoke(targetDSN string) *engine.Scenario {
	pool := pgtarget.Args("pg", targetDSN, 8)

	selectOne := engine.NewStep("select_one", func(ctx *engine.StepContext) engine.Response {
		conn, ok := pgtarget.Conn(ctx)
		if !ok {
			return engine.ResponseFail()
		}
		var one int
		if err := conn.QueryRow(ctx.Ctx, "select 1").Scan(&one); err != nil {
			ctx.Logger.Warn("select_one failed", "error", err)
			return engine.ResponseFail()
		}
		return engine.ResponseOk(one)
	}).WithPool(pool)

	pause := engine.NewPauseStep("think_time", 50*time.Millisecond)

	return engine.NewScenario("pg_smoke").
		WithSteps(selectOne, pause).
		WithWarmUp(5 * time.Second).
		WithLoad(
			engine.RampConstant(10, 10*time.Second),
			engine.KeepConstant(10, 30*time.Second),
		)
}
