package route

import "slices"

// OutboundTag identifies the egress path a matched connection is sent through.
type OutboundTag string

const (
	OutboundDirect OutboundTag = "direct"
	OutboundProxy  OutboundTag = "proxy"
	OutboundBlock  OutboundTag = "block"
)

// DefaultOutbound is the outbound a freshly created rule points to.
const DefaultOutbound = OutboundDirect

// OutboundCatalog supplies the closed set of selectable outbound destinations.
type OutboundCatalog interface {
	Tags() []OutboundTag
	Contains(tag OutboundTag) bool
	Label(tag OutboundTag) string
}

type staticCatalog struct {
	tags   []OutboundTag
	labels map[OutboundTag]string
}

// Outbounds is the built-in catalog shared by validation and the API.
var Outbounds OutboundCatalog = &staticCatalog{
	tags: []OutboundTag{OutboundDirect, OutboundProxy, OutboundBlock},
	labels: map[OutboundTag]string{
		OutboundDirect: "Direct",
		OutboundProxy:  "Proxy",
		OutboundBlock:  "Block",
	},
}

func (c *staticCatalog) Tags() []OutboundTag {
	return slices.Clone(c.tags)
}

func (c *staticCatalog) Contains(tag OutboundTag) bool {
	return slices.Contains(c.tags, tag)
}

func (c *staticCatalog) Label(tag OutboundTag) string {
	if label, ok := c.labels[tag]; ok {
		return label
	}
	return string(tag)
}

// IsValid reports whether the tag is part of the outbound catalog.
func (t OutboundTag) IsValid() bool {
	return Outbounds.Contains(t)
}
