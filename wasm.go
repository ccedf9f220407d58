package wasmloader

import (
	"context"

	"github.com/wippyai/wasm-loader/engine"
	"github.com/wippyai/wasm-loader/loader"
)

// Run loads and runs the module named by cfg once, on a fresh engine that is
// closed before returning. opts are applied after cfg's own options. Guest
// output under WASI goes to the same writers the loader reports to. The
// error covers engine setup only; run failures follow cfg.Mode.
func Run(ctx context.Context, cfg loader.Config, opts ...loader.Option) (*loader.Result, error) {
	opts = append(cfg.Options(), opts...)

	engCfg := cfg.EngineConfig()
	engCfg.Stdout, engCfg.Stderr = loader.New(nil, opts...).Output()
	eng, err := engine.NewWazeroEngineWithConfig(ctx, engCfg)
	if err != nil {
		return nil, err
	}
	defer eng.Close(ctx)

	return loader.New(eng, opts...).Run(ctx, cfg.Mode), nil
}
