package util

import (
	"testing"
	"time"
)

func TrueBefore(t *testing.T, predicate func() bool, deadline time.Time) {
	for {
		if predicate() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("predicate still false at deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
