// Package webgpu is the device id 1 backend stub of §6: it enumerates a
// GPU adapter through go-webgpu so device discovery has something real to
// report, but every compute entry point returns NotImplemented. §6
// explicitly scopes an actual WebGPU compute path as a non-goal; this
// package exists so giga.ListDevices/InitializeDevice have a second,
// honest device to enumerate rather than hard-coding "CPU only".
package webgpu

import (
	"fmt"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
	"k8s.io/klog/v2"

	"github.com/giga-project/giga/internal/backend/cpu"
	"github.com/giga-project/giga/internal/gigaerr"
	"github.com/giga-project/giga/internal/tensor"
	"github.com/giga-project/giga/internal/zone"
)

// DeviceID is the fixed device id this backend reports itself as.
const DeviceID uint32 = 1

// Backend holds the adapter handle obtained during Initialize. It never
// creates buffers or pipelines -- every kernel entry point is a stub.
type Backend struct {
	mu          sync.Mutex
	initialized bool
	instance    *wgpu.Instance
	adapter     *wgpu.Adapter
	adapterInfo wgpu.AdapterInfo
}

// New returns an uninitialized backend; call Initialize before use.
func New() *Backend {
	return &Backend{}
}

// Initialize requests a WebGPU adapter, mirroring §4.A's
// giga_initialize_device semantics for the GPU device id. Adapter
// unavailability (no compatible GPU, missing native library) is reported
// as DeviceError rather than panicking.
func (b *Backend) Initialize() (err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = gigaerr.Wrapf(gigaerr.DeviceError, "webgpu: adapter request panicked: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return gigaerr.Wrap(gigaerr.DeviceError, adapterErr)
	}

	b.instance = instance
	b.adapter = adapter
	b.adapterInfo = adapter.GetInfo()
	b.initialized = true
	klog.V(2).Infof("webgpu: adapter %q initialized as device %d", b.adapterInfo.Name, DeviceID)
	return nil
}

// Info returns the adapter's human-readable name, or "" if Initialize
// hasn't been called or failed.
func (b *Backend) Info() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return ""
	}
	return fmt.Sprintf("%s (%s)", b.adapterInfo.Name, b.adapterInfo.VendorName)
}

// Release frees the adapter/instance handles.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return
	}
	b.adapter.Release()
	b.instance.Release()
	b.initialized = false
}

// IsAvailable probes for a usable adapter without keeping it around,
// letting device enumeration report device id 1 only when a GPU is
// actually reachable.
func IsAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()
	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()
	return true
}

func notImplemented(op string) error {
	return gigaerr.Wrapf(gigaerr.NotImplemented, "webgpu: %s is not implemented on this backend", op)
}

// Conv2D always returns NotImplemented; §6 excludes a compute pipeline
// from this backend's scope. The signature matches cpu.Conv2D so callers
// can select a backend without branching on argument shape.
func (b *Backend) Conv2D(*zone.Collection, *tensor.Descriptor, *tensor.Descriptor, *tensor.Descriptor, *tensor.Descriptor, cpu.Conv2DParams) error {
	return notImplemented("conv2d")
}

// Dense always returns NotImplemented.
func (b *Backend) Dense(*zone.Collection, *tensor.Descriptor, *tensor.Descriptor, *tensor.Descriptor, *tensor.Descriptor, bool) error {
	return notImplemented("dense")
}

// Add always returns NotImplemented.
func (b *Backend) Add(*zone.Collection, *tensor.Descriptor, *tensor.Descriptor, *tensor.Descriptor) error {
	return notImplemented("add")
}

// Softmax always returns NotImplemented.
func (b *Backend) Softmax(*zone.Collection, *tensor.Descriptor, *tensor.Descriptor) error {
	return notImplemented("softmax")
}

// Upsample always returns NotImplemented.
func (b *Backend) Upsample(*zone.Collection, *tensor.Descriptor, *tensor.Descriptor, int) error {
	return notImplemented("upsample")
}
