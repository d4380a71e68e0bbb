package giga

import (
	"sync"

	"github.com/google/uuid"
)

// Handle is the opaque tensor reference returned by AllocateTensor, View
// and Reshape. Callers carry it around by value; the package resolves it
// back to a device and an internal tensor id on every call. Minting it
// from a UUID rather than handing back the registry's own uint64 id keeps
// the id space opaque across processes and devices, matching the "opaque
// handle" contract of §3 rather than exposing an internal counter.
type Handle struct {
	id uuid.UUID
}

// Zero reports whether h is the unset Handle value.
func (h Handle) Zero() bool { return h.id == uuid.Nil }

func (h Handle) String() string { return h.id.String() }

type handleEntry struct {
	deviceID uint32
	tensorID uint64
}

var (
	handleMu    sync.Mutex
	handleTable = make(map[uuid.UUID]handleEntry)
)

// mintHandle allocates a fresh opaque Handle bound to (deviceID, tensorID).
func mintHandle(deviceID uint32, tensorID uint64) Handle {
	id := uuid.New()
	handleMu.Lock()
	handleTable[id] = handleEntry{deviceID: deviceID, tensorID: tensorID}
	handleMu.Unlock()
	return Handle{id: id}
}

// resolveHandle looks up the (deviceID, tensorID) pair a Handle was minted
// for. A Handle that was never minted here, or has already been released
// and forgotten, resolves to ok=false.
func resolveHandle(h Handle) (handleEntry, bool) {
	handleMu.Lock()
	defer handleMu.Unlock()
	e, ok := handleTable[h.id]
	return e, ok
}

// forgetHandle drops h's entry after ReleaseTensor.
func forgetHandle(h Handle) {
	handleMu.Lock()
	delete(handleTable, h.id)
	handleMu.Unlock()
}
