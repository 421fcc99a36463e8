package mmu_test

import (
	"fmt"

	mmu "github.com/mellowhype/rvmmu"
)

// Example demonstrates the core fuzz-restart loop this package exists for:
// allocate in a donor, fork it, write into the fork, then reset the fork
// back to the donor's pristine state. The MMU has no command-line
// surface, so this runnable, testable example stands in for a demo binary.
func Example() {
	donor := mmu.New(1024 * 1024)
	donor.SetBrk(0x10000)

	base, err := donor.Malloc(4096, false)
	if err != nil {
		panic(err)
	}

	fork := donor.Fork()

	if err := fork.Write(base, []byte("AAAA")); err != nil {
		panic(err)
	}

	out := make([]byte, 4)
	if err := fork.Read(base, out); err != nil {
		panic(err)
	}
	fmt.Printf("before reset: %s\n", out)

	if err := fork.Reset(donor); err != nil {
		panic(err)
	}

	if err := fork.Peek(base, out); err != nil {
		panic(err)
	}
	fmt.Printf("after reset: %v\n", out)

	// Output:
	// before reset: AAAA
	// after reset: [0 0 0 0]
}
