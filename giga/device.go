package giga

import (
	"fmt"
	"os"
	"sync"

	"github.com/giga-project/giga/internal/backend/cpu"
	"github.com/giga-project/giga/internal/backend/webgpu"
	"github.com/giga-project/giga/internal/tensor"
	"github.com/giga-project/giga/internal/zone"
)

// DeviceID identifies one of the process's initialized devices. Device 0
// is always the CPU reference backend; device 1, if present, is the
// WebGPU stub of internal/backend/webgpu.
type DeviceID uint32

const (
	// CPUDevice is the reference backend's fixed id (§3: "device
	// identifier, currently always 0").
	CPUDevice DeviceID = 0
	// WebGPUDevice is the id reported by internal/backend/webgpu, when a
	// GPU adapter is reachable.
	WebGPUDevice DeviceID = 1
)

// kernelBackend is the shape both internal/backend/cpu (as adapted below)
// and internal/backend/webgpu.Backend satisfy, letting device dispatch
// pick one without a type switch per operation.
type kernelBackend interface {
	Conv2D(zones *zone.Collection, in, kernel, bias, out *tensor.Descriptor, p cpu.Conv2DParams) error
	Dense(zones *zone.Collection, in, kernel, bias, out *tensor.Descriptor, relu bool) error
	Add(zones *zone.Collection, a, b, out *tensor.Descriptor) error
	Softmax(zones *zone.Collection, in, out *tensor.Descriptor) error
	Upsample(zones *zone.Collection, in, out *tensor.Descriptor, factor int) error
}

// cpuKernelBackend adapts internal/backend/cpu's package-level functions
// to kernelBackend so device dispatch is uniform across backends.
type cpuKernelBackend struct{}

func (cpuKernelBackend) Conv2D(zones *zone.Collection, in, kernel, bias, out *tensor.Descriptor, p cpu.Conv2DParams) error {
	return cpu.Conv2D(zones, in, kernel, bias, out, p)
}
func (cpuKernelBackend) Dense(zones *zone.Collection, in, kernel, bias, out *tensor.Descriptor, relu bool) error {
	return cpu.Dense(zones, in, kernel, bias, out, relu)
}
func (cpuKernelBackend) Add(zones *zone.Collection, a, b, out *tensor.Descriptor) error {
	return cpu.Add(zones, a, b, out)
}
func (cpuKernelBackend) Softmax(zones *zone.Collection, in, out *tensor.Descriptor) error {
	return cpu.Softmax(zones, in, out)
}
func (cpuKernelBackend) Upsample(zones *zone.Collection, in, out *tensor.Descriptor, factor int) error {
	return cpu.Upsample(zones, in, out, factor)
}

// device bundles one DeviceID's zones, tensor registry and compute
// backend. Every device gets its own zone.Collection and Registry: tensor
// ids and byte offsets are meaningful only within a single device.
type device struct {
	id      DeviceID
	name    string
	zones   *zone.Collection
	reg     *tensor.Registry
	backend kernelBackend
}

var (
	devicesMu   sync.Mutex
	devices     = map[DeviceID]*device{}
	devicesInit bool
)

// discoverDevices lazily builds the process-wide device table: CPU device
// 0 always, WebGPU device 1 only when an adapter is actually reachable.
// Mirrors §6's "single-device stub" made slightly less trivial by probing
// for a genuine second device instead of hard-coding CPU-only.
func discoverDevices() {
	devicesMu.Lock()
	defer devicesMu.Unlock()
	if devicesInit {
		return
	}
	devicesInit = true

	cpuZones, err := zone.Default()
	if err != nil {
		// zone.Default logs the failure; fall back to an in-process
		// collection so the CPU device is still usable.
		cpuZones, _ = zone.New(os.Getenv(zone.EnvKey))
	}
	devices[CPUDevice] = &device{
		id:      CPUDevice,
		name:    "CPU",
		zones:   cpuZones,
		reg:     tensor.NewRegistry(cpuZones),
		backend: cpuKernelBackend{},
	}

	if webgpu.IsAvailable() {
		gpuZones, err := zone.New(os.Getenv(zone.EnvKey))
		if err == nil {
			b := webgpu.New()
			if initErr := b.Initialize(); initErr == nil {
				devices[WebGPUDevice] = &device{
					id:      WebGPUDevice,
					name:    fmt.Sprintf("WebGPU (%s)", b.Info()),
					zones:   gpuZones,
					reg:     tensor.NewRegistry(gpuZones),
					backend: b,
				}
			}
		}
	}
}

func getDevice(id DeviceID) (*device, ErrorCode) {
	discoverDevices()
	devicesMu.Lock()
	d, ok := devices[id]
	devicesMu.Unlock()
	if !ok {
		return nil, fail(DeviceNotInitialized)
	}
	return d, Success
}

// DeviceInfo describes one enumerated device, as reported by ListDevices.
type DeviceInfo struct {
	ID   DeviceID
	Name string
}

// GetDefaultDevice implements §6's get_default_device: the CPU reference
// backend is always device 0 and always available.
func GetDefaultDevice() DeviceID {
	discoverDevices()
	return CPUDevice
}

// ListDevices implements §6's list_devices.
func ListDevices() []DeviceInfo {
	discoverDevices()
	devicesMu.Lock()
	defer devicesMu.Unlock()
	out := make([]DeviceInfo, 0, len(devices))
	for _, id := range []DeviceID{CPUDevice, WebGPUDevice} {
		if d, ok := devices[id]; ok {
			out = append(out, DeviceInfo{ID: d.id, Name: d.name})
		}
	}
	return out
}

// InitializeDevice implements §6's initialize_device: it just confirms
// that id names a device already discovered by discoverDevices (device
// initialization itself is eager, not lazy per-call, since the reference
// backend has no expensive per-call setup to defer).
func InitializeDevice(id DeviceID) ErrorCode {
	_, code := getDevice(id)
	return code
}

// resetDevicesForTest discards the cached device table so tests can
// re-probe under a different GIGA_CPU_MEMORY. Not for production use.
func resetDevicesForTest() {
	devicesMu.Lock()
	devices = map[DeviceID]*device{}
	devicesInit = false
	devicesMu.Unlock()
}
