package config

// LazyMode selects whether lazy evaluation is used at all.
type LazyMode string

const (
	LazyAuto     LazyMode = "auto"
	LazyEnabled  LazyMode = "enabled"
	LazyDisabled LazyMode = "disabled"
)

// CollectionStrategy selects how a Lazy plan's partitions are materialized;
// mirrors internal/frame.Strategy but expressed as config so it can be
// serialized (yaml/map) without importing the frame package from config.
type CollectionStrategy string

const (
	StrategySequential CollectionStrategy = "sequential"
	StrategyParallel   CollectionStrategy = "parallel"
	StrategyStreaming  CollectionStrategy = "streaming"
	StrategyAdaptive   CollectionStrategy = "adaptive"
)

// LazyEvalConfig is the lazy-evaluation sub-config (spec.md §4.3).
type LazyEvalConfig struct {
	Mode                     LazyMode
	ThresholdRows            int
	CollectionStrategy       CollectionStrategy
	MaxParallelCollections   int
	ChunkSize                int
	MemoryLimitMB            *int
	EnablePredicatePushdown  bool
	EnableProjectionPushdown bool
	EnableSlicePushdown      bool
	EnableExpressionCaching  bool
}

// DefaultLazyEvalConfig returns the documented defaults: auto mode, a
// reasonable row threshold before switching strategies, and all push-down
// optimizations enabled.
func DefaultLazyEvalConfig() LazyEvalConfig {
	return LazyEvalConfig{
		Mode:                     LazyAuto,
		ThresholdRows:            50_000,
		CollectionStrategy:       StrategyAdaptive,
		MaxParallelCollections:   4,
		ChunkSize:                10_000,
		EnablePredicatePushdown:  true,
		EnableProjectionPushdown: true,
		EnableSlicePushdown:      true,
		EnableExpressionCaching:  true,
	}
}
