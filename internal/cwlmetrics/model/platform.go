package model

import (
	"fmt"
	"strconv"
)

const (
	PlatformHostname     = "hostname"
	PlatformInstanceType = "instance_type"
	PlatformRegion       = "region"
	PlatformTotalMemory  = "total_memory"
	PlatformDiskSize     = "disk_size"
)

// Platform is the flat attribute bag describing the machine a workflow ran on.
type Platform map[string]interface{}

func (p Platform) Hostname() string {
	return p.stringValue(PlatformHostname)
}

func (p Platform) InstanceType() string {
	return p.stringValue(PlatformInstanceType)
}

func (p Platform) Region() string {
	return p.stringValue(PlatformRegion)
}

func (p Platform) TotalMemory() string {
	return p.stringValue(PlatformTotalMemory)
}

func (p Platform) DiskSize() string {
	return p.stringValue(PlatformDiskSize)
}

func (p Platform) stringValue(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
