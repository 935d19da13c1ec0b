package main

import (
	"fmt"
	"math"
)

func toPort(p uint64) (uint16, error) {
	if p > math.MaxUint16 {
		return 0, fmt.Errorf("port %d out of range", p)
	}
	return uint16(p), nil
}
