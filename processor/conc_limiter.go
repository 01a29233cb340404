package processor

import (
	"sync"
)

// ConcLimiter bounds the number of in-flight worker calls. Wait blocks
// until every Increase has been matched by a Decrease.
type ConcLimiter struct {
	*sync.WaitGroup
	Pool chan struct{}
}

func (c *ConcLimiter) Increase() {
	c.Add(1)
	c.Pool <- struct{}{}
}

func (c *ConcLimiter) Decrease() {
	select {
	case <-c.Pool:
		c.Done()
	default:
	}
}

func NewConcLimiter(cLevel int) *ConcLimiter {
	if cLevel < 1 {
		cLevel = 1
	}
	var wg sync.WaitGroup
	return &ConcLimiter{&wg, make(chan struct{}, cLevel)}
}
