package types

import "fmt"

// Address is a process virtual address.
type Address uint64

// Page returns the 4KiB page index containing the address.
func (a Address) Page() uint64 { return uint64(a) >> 12 }

// String renders the address as a hexadecimal pointer.
func (a Address) String() string { return fmt.Sprintf("0x%x", uint64(a)) }

// InRange reports whether a falls in [start, start+size).
func (a Address) InRange(start Address, size Bytes) bool {
	return a >= start && uint64(a) < uint64(start)+uint64(size)
}
