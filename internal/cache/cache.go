package cache

import (
	"sort"
	"sync"

	"github.com/vexlab/svr-debug/pkg/core"
)

// DeviceCache caches currently connected devices by host index so the
// record-sample handler can read poses without hitting the runtime again.
// Latency in these calls is critical; the cache is updated once per tick.
type DeviceCache struct {
	m       sync.Mutex
	devices map[uint32]core.TrackedDevice
}

func NewDeviceCache() *DeviceCache {
	return &DeviceCache{
		devices: make(map[uint32]core.TrackedDevice),
	}
}

func (c *DeviceCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.devices = make(map[uint32]core.TrackedDevice)
}

// Get returns the cached device at index.
func (c *DeviceCache) Get(index uint32) (core.TrackedDevice, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	d, ok := c.devices[index]
	return d, ok
}

// Put stores or replaces the device at its index.
func (c *DeviceCache) Put(d core.TrackedDevice) {
	c.m.Lock()
	defer c.m.Unlock()
	c.devices[d.Index] = d
}

// Delete removes the device at index.
func (c *DeviceCache) Delete(index uint32) {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.devices, index)
}

// Len returns the number of cached devices.
func (c *DeviceCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.devices)
}

// SetPose updates the pose of a cached device. No-op for unknown indices.
func (c *DeviceCache) SetPose(index uint32, pose core.Pose) {
	c.m.Lock()
	defer c.m.Unlock()
	if d, ok := c.devices[index]; ok {
		d.Pose = pose
		c.devices[index] = d
	}
}

// Controllers returns the cached controllers ordered by device index.
func (c *DeviceCache) Controllers() []core.TrackedDevice {
	return c.ByClass(core.ClassController)
}

// ByClass returns cached devices of one class ordered by device index.
func (c *DeviceCache) ByClass(class core.DeviceClass) []core.TrackedDevice {
	c.m.Lock()
	defer c.m.Unlock()
	out := make([]core.TrackedDevice, 0, len(c.devices))
	for _, d := range c.devices {
		if d.Class == class {
			out = append(out, d)
		}
	}
	sortByIndex(out)
	return out
}

// All returns every cached device ordered by device index.
func (c *DeviceCache) All() []core.TrackedDevice {
	c.m.Lock()
	defer c.m.Unlock()
	out := make([]core.TrackedDevice, 0, len(c.devices))
	for _, d := range c.devices {
		out = append(out, d)
	}
	sortByIndex(out)
	return out
}

func sortByIndex(devs []core.TrackedDevice) {
	sort.Slice(devs, func(i, j int) bool {
		return devs[i].Index < devs[j].Index
	})
}

// SafeCounter is a thread-safe counter, used for screenshot numbering.
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}

// Next increments the counter and returns the new value.
func (c *SafeCounter) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v++
	return c.v
}
