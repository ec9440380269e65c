// util/bitflag.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"math/bits"
	"strings"

	"golang.org/x/exp/constraints"
)

// Flags is a set of bits indexed by the enumerant type T. Each enumerant
// names a bit position, not a mask: Flags[T](0).Set(A, B) has bits A and
// B set.
type Flags[T constraints.Unsigned] uint64

// MakeFlags returns the set holding the given enumerants.
func MakeFlags[T constraints.Unsigned](f ...T) Flags[T] {
	var fl Flags[T]
	return fl.Set(f...)
}

func (fl Flags[T]) Has(f T) bool {
	return fl&(1<<uint64(f)) != 0
}

// HasAny reports whether any of the given flags are set.
func (fl Flags[T]) HasAny(f ...T) bool {
	for _, v := range f {
		if fl.Has(v) {
			return true
		}
	}
	return false
}

// HasAll reports whether all of the given flags are set.
func (fl Flags[T]) HasAll(f ...T) bool {
	for _, v := range f {
		if !fl.Has(v) {
			return false
		}
	}
	return true
}

func (fl Flags[T]) Set(f ...T) Flags[T] {
	for _, v := range f {
		fl |= 1 << uint64(v)
	}
	return fl
}

func (fl Flags[T]) Clear(f ...T) Flags[T] {
	for _, v := range f {
		fl &^= 1 << uint64(v)
	}
	return fl
}

func (fl Flags[T]) Count() int {
	return bits.OnesCount64(uint64(fl))
}

// Format returns the set bits joined with "|" using names[i] for bit i;
// bits without a name are skipped.
func (fl Flags[T]) Format(names []string) string {
	var s []string
	for i, n := range names {
		if fl.Has(T(i)) {
			s = append(s, n)
		}
	}
	return strings.Join(s, "|")
}
