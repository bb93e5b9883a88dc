package core

import "time"

// Clock stamps rows written by the repositories.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func NewRealClock() Clock { return RealClock{} }

func (RealClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always reports the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c).UTC() }
