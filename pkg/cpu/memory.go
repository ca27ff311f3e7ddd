package cpu

// The general interface for memory storage. Addresses handed to a
// MemoryBackend are word indices, not byte addresses.
type MemoryBackend interface {
	// Number of words the backend holds
	Size() uint32
	// Retrieve the word at the given index
	FetchWord(uint32) uint32
	// Store a word at the given index, returning what was there
	// before.
	WriteWord(uint32, uint32) uint32
}

// DirectMemory is plain local storage owned by one machine.
type DirectMemory struct {
	memory []uint32
}

func NewDirectMemory(size uint32) *DirectMemory {
	var rv DirectMemory

	rv.memory = make([]uint32, size)

	return &rv
}

func (m *DirectMemory) Size() uint32 {
	return uint32(len(m.memory))
}

// Out-of-range reads give 0.
func (m *DirectMemory) FetchWord(index uint32) uint32 {
	if index >= m.Size() {
		return 0
	}
	return m.memory[index]
}

// Out-of-range writes are dropped.
func (m *DirectMemory) WriteWord(index, data uint32) uint32 {
	if index >= m.Size() {
		return 0
	}
	old := m.memory[index]
	m.memory[index] = data
	return old
}
