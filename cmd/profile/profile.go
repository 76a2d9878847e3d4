// Package profile provides CPU and heap profiling for command invocations.
package profile

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/pkg/errors"
)

// Profile manages a CPU and heap profile.
type Profile struct {
	// name is the name of the profile, used as a path prefix for its outputs.
	name string
	// cpuProfile is the output file for the CPU profile.
	cpuProfile *os.File
}

// New creates a new profile instance. The profiling begins immediately. The
// CPU profile is written to <name>_cpu.prof and the heap profile (at
// finalization) to <name>_heap.prof.
func New(name string) (*Profile, error) {
	// Open the CPU profile output.
	cpuProfile, err := os.Create(name + "_cpu.prof")
	if err != nil {
		return nil, errors.Wrap(err, "unable to create CPU profile")
	}

	// Start CPU profiling.
	if err := pprof.StartCPUProfile(cpuProfile); err != nil {
		cpuProfile.Close()
		return nil, errors.Wrap(err, "unable to start CPU profile")
	}

	// Success.
	return &Profile{
		name:       name,
		cpuProfile: cpuProfile,
	}, nil
}

// Finalize terminates a profile and writes its measurements to disk.
func (p *Profile) Finalize() error {
	// Close out the CPU profile.
	pprof.StopCPUProfile()
	if err := p.cpuProfile.Close(); err != nil {
		return errors.Wrap(err, "unable to close CPU profile")
	}

	// Run a GC cycle to update the heap profile statistics.
	runtime.GC()

	// Write a heap profile.
	heapProfile, err := os.Create(p.name + "_heap.prof")
	if err != nil {
		return errors.Wrap(err, "unable to create heap profile")
	}
	if err := pprof.WriteHeapProfile(heapProfile); err != nil {
		heapProfile.Close()
		return errors.Wrap(err, "unable to write heap profile")
	}
	if err := heapProfile.Close(); err != nil {
		return errors.Wrap(err, "unable to close heap profile")
	}

	// Success.
	return nil
}
