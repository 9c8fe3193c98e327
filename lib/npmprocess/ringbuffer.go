// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package npmprocess

import "sync"

// DefaultOutputLimit is the capacity of each output buffer.
const DefaultOutputLimit = 100 * 1024

// RingBuffer is an io.Writer that keeps the most recent bytes written
// to it, up to a fixed capacity. Safe for concurrent use.
type RingBuffer struct {
	mu      sync.Mutex
	buffer  []byte
	start   int
	length  int
	dropped int64
}

// NewRingBuffer returns a buffer holding at most capacity bytes.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &RingBuffer{buffer: make([]byte, capacity)}
}

// Write always consumes all of p, discarding the oldest bytes when p
// does not fit.
func (r *RingBuffer) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	written := len(p)
	capacity := len(r.buffer)
	if capacity == 0 {
		r.dropped += int64(written)
		return written, nil
	}
	if len(p) > capacity {
		r.dropped += int64(len(p) - capacity)
		p = p[len(p)-capacity:]
	}
	if overflow := r.length + len(p) - capacity; overflow > 0 {
		r.start = (r.start + overflow) % capacity
		r.length -= overflow
		r.dropped += int64(overflow)
	}

	end := (r.start + r.length) % capacity
	copied := copy(r.buffer[end:], p)
	copy(r.buffer, p[copied:])
	r.length += len(p)
	return written, nil
}

// Bytes returns a copy of the retained bytes, oldest first.
func (r *RingBuffer) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]byte, r.length)
	copied := copy(result, r.buffer[r.start:min(r.start+r.length, len(r.buffer))])
	copy(result[copied:], r.buffer[:r.length-copied])
	return result
}

func (r *RingBuffer) String() string { return string(r.Bytes()) }

// Dropped returns how many bytes were discarded to make room.
func (r *RingBuffer) Dropped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
