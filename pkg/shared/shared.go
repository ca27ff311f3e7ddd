package shared
// A word memory designed to be attached to multiple machines at the same time.

import (
	"sync"

	"github.com/sirupsen/logrus"
)

type op interface {
	execute(*sharedMemoryBackend)
}

// SharedMemory implements cpu.MemoryBackend. All requests are served
// by a single goroutine that owns the backing words.
type SharedMemory struct {
	cmd  chan op
	size uint32
	once *sync.Once
}

type sharedMemoryBackend struct {
	memory []uint32
	cmd    chan op
}

type setWord struct {
	index uint32
	value uint32
	ret   chan uint32
}

type getWord struct {
	index uint32
	ret   chan uint32
}

func (c getWord) execute(b *sharedMemoryBackend) {
	if c.index >= uint32(len(b.memory)) {
		fields := logrus.Fields{
			"index": c.index,
			"op":    "get",
		}
		logrus.WithFields(fields).Warn("read outside shared memory")
		c.ret <- 0
		return
	}
	c.ret <- b.memory[c.index]
}

func (c setWord) execute(b *sharedMemoryBackend) {
	fields := logrus.Fields{
		"index": c.index,
		"value": c.value,
		"op":    "set",
	}
	if c.index >= uint32(len(b.memory)) {
		logrus.WithFields(fields).Warn("write outside shared memory")
		c.ret <- 0
		return
	}
	logrus.WithFields(fields).Debug("set value")
	rv := b.memory[c.index]
	b.memory[c.index] = c.value

	c.ret <- rv
}

func (b *sharedMemoryBackend) run() {
	for cmd := range b.cmd {
		cmd.execute(b)
	}
}

func NewSharedMemory(size uint32) SharedMemory {
	c := make(chan op)
	store := make([]uint32, size)
	backend := sharedMemoryBackend{cmd: c, memory: store}
	go backend.run()

	return SharedMemory{cmd: c, size: size, once: &sync.Once{}}
}

func (s SharedMemory) Size() uint32 {
	return s.size
}

func (s SharedMemory) FetchWord(index uint32) uint32 {
	c := make(chan uint32)
	s.cmd <- getWord{index: index, ret: c}
	rv := <-c
	close(c)
	return rv
}

func (s SharedMemory) WriteWord(index uint32, data uint32) uint32 {
	c := make(chan uint32)
	s.cmd <- setWord{index: index, value: data, ret: c}
	rv := <-c
	close(c)
	return rv
}

// Close stops the serving goroutine. The memory must not be used
// afterwards.
func (s SharedMemory) Close() {
	s.once.Do(func() {
		close(s.cmd)
	})
}
