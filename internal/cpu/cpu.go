// Package cpu reports how many workers the pool should run.
package cpu

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// Counter はコア数を返す。戻り値は常に1以上
type Counter interface {
	Cores() int
}

// Physical は物理コア数を返す Counter
//
// cpuid が物理コア数を判定できない環境（非 x86 など）では
// runtime.NumCPU の論理 CPU 数にフォールバックする
type Physical struct{}

func (Physical) Cores() int {
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}

// Fixed は固定値を返す Counter（1未満は1として扱う）
type Fixed int

func (f Fixed) Cores() int {
	if f < 1 {
		return 1
	}
	return int(f)
}
