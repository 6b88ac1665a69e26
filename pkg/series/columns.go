package series

import (
	"github.com/voluzi/rtst/pkg/sar"
)

// column maps a display name to a value extracted from a record.
type column struct {
	name  string
	value func(r *sar.Record) float64
}

func field(name, key string) column {
	return column{
		name: name,
		value: func(r *sar.Record) float64 {
			v, _ := r.Value(key)
			return v
		},
	}
}

func ifaceField(name, iface, key string) column {
	return column{
		name: name,
		value: func(r *sar.Record) float64 {
			v, _ := r.InterfaceValue(iface, key)
			return v
		},
	}
}

const (
	guestNiceField = "%gnice"
	guestNiceName  = "% Guest Nice"
	guestNiceIndex = 5
)

var cpuColumns = []column{
	field("% System", "%sys"),
	field("% IRQ", "%irq"),
	field("% Soft IRQ", "%soft"),
	field("% Guest", "%guest"),
	field("% Userspace", "%usr"),
	field("% Nice", "%nice"),
	field("% Steal", "%steal"),
	field("% IO Wait", "%iowait"),
	field("% Idle", "%idle"),
}

var vmColumns = []column{
	field("Read IO", "pgpgin/s"),
	field("Write IO", "pgpgout/s"),
}

var memColumns = []column{
	field("Buffer Cache", "kbbuffers"),
	field("Page Cache", "kbcached"),
	{
		name: "Other",
		value: func(r *sar.Record) float64 {
			used, _ := r.Value("kbmemused")
			buffers, _ := r.Value("kbbuffers")
			cached, _ := r.Value("kbcached")
			return used - buffers - cached
		},
	},
	field("Free", "kbmemfree"),
}

// columnsFor returns the value columns of kind, excluding time. Columns that
// depend on the batch (guest nice, interfaces) are resolved here.
func columnsFor(kind sar.Kind, records []*sar.Record, interfaces []string) []column {
	switch kind {
	case sar.KindCPU:
		if !anyHas(records, guestNiceField) {
			return cpuColumns
		}
		cols := make([]column, 0, len(cpuColumns)+1)
		// index 0 is the time column
		cols = append(cols, cpuColumns[:guestNiceIndex-1]...)
		cols = append(cols, field(guestNiceName, guestNiceField))
		return append(cols, cpuColumns[guestNiceIndex-1:]...)
	case sar.KindVM:
		return vmColumns
	case sar.KindMem:
		return memColumns
	case sar.KindNet:
		cols := make([]column, 0, 2*len(interfaces))
		for _, iface := range interfaces {
			cols = append(cols,
				ifaceField(iface+" Receive", iface, "rxkB/s"),
				ifaceField(iface+" Transmit", iface, "txkB/s"),
			)
		}
		return cols
	default:
		return nil
	}
}

func anyHas(records []*sar.Record, key string) bool {
	for _, r := range records {
		if _, ok := r.Value(key); ok {
			return true
		}
	}
	return false
}
