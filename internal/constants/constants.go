package constants

const (
	BlockSize = 64

	TinyLimit        = 5000
	LargeThreshold   = 214748364
	ExtremeThreshold = 1 << 30

	LargeHead   = 5000
	ExtremeHead = 50000

	TinySeed    = 1.0
	DefaultSeed = 0.3
	LargeSeed   = 0.01
	ExtremeSeed = 0.02

	// Divisors the seeds were derived from. Never applied to a plan.
	TinyDivisor    = 1.0
	LargeDivisor   = 100.0
	ExtremeDivisor = 50.0

	ExpectedSkipStep = 100

	FooterSize   = 314
	MagicSize    = 12
	MagicExtLen  = 9
	KeyBlockSize = BlockSize
	BackupSuffix = ".kbckp"

	SweepFrom = ExtremeThreshold + 1
	SweepTo   = 1000 * ExtremeThreshold
)
