package render

import (
	"strings"
	"sync"
	"time"

	"github.com/weatherdesk/weatherdesk/internal/weather"
)

// Container is one output slot of the page.
type Container struct {
	Caption string  `json:"caption,omitempty"`
	Tables  []Table `json:"tables,omitempty"`
}

// Empty reports whether nothing has been written to the container.
func (c Container) Empty() bool {
	return c.Caption == "" && len(c.Tables) == 0
}

// Snapshot is a copy of the displayed output.
type Snapshot struct {
	Info       Container `json:"info"`
	Weather    Container `json:"weather"`
	AirQuality Container `json:"airQuality"`
	Seq        uint64    `json:"seq"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}

// Display holds the three output containers. Each render replaces all of
// them; nothing accumulates between renders.
type Display struct {
	mu         sync.RWMutex
	info       Container
	weather    Container
	airQuality Container
	seq        uint64
	updatedAt  time.Time
}

// NewDisplay creates an empty display.
func NewDisplay() *Display {
	return &Display{}
}

// ClearAndRender empties all three containers and renders result into them.
// A seq not newer than the one on display is rejected and leaves the
// containers untouched.
func (d *Display) ClearAndRender(seq uint64, result weather.DisplayResult, aqi weather.AqiChoice) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if seq <= d.seq {
		return false
	}

	d.clear()

	d.info.Caption = caption(result.Info)
	d.weather.Tables = []Table{BuildTable(result.Info, WeatherLayout, nil)}

	if aqi.Includes() && result.AirQuality != nil {
		d.airQuality.Tables = []Table{
			BuildTable(result.AirQuality, AirQualityLayout, result.AirQuality.Values()),
		}
	}

	d.seq = seq
	d.updatedAt = time.Now()
	return true
}

// Snapshot returns a copy of the current output.
func (d *Display) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return Snapshot{
		Info:       copyContainer(d.info),
		Weather:    copyContainer(d.weather),
		AirQuality: copyContainer(d.airQuality),
		Seq:        d.seq,
		UpdatedAt:  d.updatedAt,
	}
}

func (d *Display) clear() {
	d.info = Container{}
	d.weather = Container{}
	d.airQuality = Container{}
}

// caption summarizes where and when the conditions apply.
func caption(info weather.Info) string {
	var place []string
	for _, v := range []*string{info.Location, info.Region, info.Country} {
		if v != nil && *v != "" {
			place = append(place, *v)
		}
	}
	if len(place) == 0 {
		return ""
	}

	text := "Current conditions for " + strings.Join(place, ", ")
	if info.Time != nil && *info.Time != "" {
		text += " at " + *info.Time
	}
	return text
}

func copyContainer(c Container) Container {
	out := Container{Caption: c.Caption}
	if c.Tables != nil {
		out.Tables = make([]Table, len(c.Tables))
		copy(out.Tables, c.Tables)
	}
	return out
}
