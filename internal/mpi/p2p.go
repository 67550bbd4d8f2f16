package mpi

import "fmt"

// send queues a message on the link to another rank. The payload is
// copied so the sender may reuse its slice immediately.
func (c *Comm) send(to int, m message) error {
	if to < 0 || to >= c.w.size {
		return c.fail(fmt.Errorf("mpi: rank %d: send to %d outside world of size %d", c.rank, to, c.w.size))
	}
	select {
	case c.w.links[c.rank][to] <- m:
		return nil
	case <-c.w.ctx.Done():
		return c.fail(fmt.Errorf("mpi: rank %d: blocked sending to %d tag %d: %w", c.rank, to, m.tag, c.w.ctx.Err()))
	}
}

// recv returns the next message from a rank with a matching tag.
// Messages with other tags are parked on the unexpected-message queue
// so delivery stays FIFO per (source, tag).
func (c *Comm) recv(from, tag int) (message, error) {
	if from < 0 || from >= c.w.size {
		return message{}, c.fail(fmt.Errorf("mpi: rank %d: recv from %d outside world of size %d", c.rank, from, c.w.size))
	}

	queue := c.pending[from]
	for i, m := range queue {
		if m.tag == tag {
			c.pending[from] = append(queue[:i], queue[i+1:]...)
			return m, nil
		}
	}

	for {
		select {
		case m := <-c.w.links[from][c.rank]:
			if m.tag == tag {
				return m, nil
			}
			c.pending[from] = append(c.pending[from], m)
		case <-c.w.ctx.Done():
			return message{}, c.fail(fmt.Errorf("mpi: rank %d: blocked receiving from %d tag %d: %w", c.rank, from, tag, c.w.ctx.Err()))
		}
	}
}

// sendF64 copies and sends a float64 payload on an arbitrary tag,
// including the reserved collective tags.
func (c *Comm) sendF64(to, tag int, data []float64) error {
	buf := make([]float64, len(data))
	copy(buf, data)
	return c.send(to, message{tag: tag, kind: kindF64, f64: buf})
}

// recvF64 receives a float64 payload on an arbitrary tag.
func (c *Comm) recvF64(from, tag int) ([]float64, error) {
	m, err := c.recv(from, tag)
	if err != nil {
		return nil, err
	}
	if m.kind != kindF64 {
		return nil, c.fail(fmt.Errorf("mpi: rank %d: recv from %d tag %d: message holds ints, not float64s", c.rank, from, tag))
	}
	return m.f64, nil
}

// Send delivers data to another rank on tag 0.
func (c *Comm) Send(to int, data []float64) error {
	return c.SendTag(to, 0, data)
}

// SendTag delivers data to another rank on a tag. Tags must be
// non-negative; negative tags are reserved for the collectives.
// Sends complete immediately while the link has buffer room and block
// until the receiver drains once it is full.
func (c *Comm) SendTag(to, tag int, data []float64) error {
	if tag < 0 {
		return c.fail(fmt.Errorf("mpi: rank %d: tag %d is reserved", c.rank, tag))
	}
	return c.sendF64(to, tag, data)
}

// Recv blocks for the next tag-0 message from a rank.
func (c *Comm) Recv(from int) ([]float64, error) {
	return c.RecvTag(from, 0)
}

// RecvTag blocks for the next message from a rank with the given tag.
// Messages between one (source, destination, tag) triple arrive in
// send order.
func (c *Comm) RecvTag(from, tag int) ([]float64, error) {
	if tag < 0 {
		return nil, c.fail(fmt.Errorf("mpi: rank %d: tag %d is reserved", c.rank, tag))
	}
	return c.recvF64(from, tag)
}

// SendInt delivers an int payload to another rank on tag 0.
func (c *Comm) SendInt(to int, data []int) error {
	buf := make([]int, len(data))
	copy(buf, data)
	return c.send(to, message{tag: 0, kind: kindInt, ints: buf})
}

// RecvInt blocks for the next tag-0 int payload from a rank.
func (c *Comm) RecvInt(from int) ([]int, error) {
	m, err := c.recv(from, 0)
	if err != nil {
		return nil, err
	}
	if m.kind != kindInt {
		return nil, c.fail(fmt.Errorf("mpi: rank %d: recv from %d: message holds float64s, not ints", c.rank, from))
	}
	return m.ints, nil
}
