package timeaxis

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"weekview/internal/model"
)

// TotalLabels is the number of time labels visible in one screen height.
const TotalLabels = 24

const (
	minutesInDay = 24 * 60
	stepEpsilon  = 1e-9
)

// MinHoursInDisplay is the shortest span Build accepts: one label per
// minute.
const MinHoursInDisplay = float64(TotalLabels) / 60

// ErrInvalidHours is returned for a span shorter than MinHoursInDisplay.
var ErrInvalidHours = errors.New("timeaxis: hoursInDisplay out of range")

// Build returns one label per step across the whole day. The step is chosen
// so that TotalLabels labels cover hoursInDisplay hours. Labels that fall on
// the hour read "1 am", "12 pm" and so on; the rest read "H:MM".
func Build(hoursInDisplay float64) ([]string, error) {
	if !(hoursInDisplay >= MinHoursInDisplay) || math.IsInf(hoursInDisplay, 0) {
		return nil, fmt.Errorf("%w: %v (min %v)", ErrInvalidHours, hoursInDisplay, MinHoursInDisplay)
	}
	labelsPerHour := TotalLabels / hoursInDisplay
	minutesStep := 60 / labelsPerHour

	labels := make([]string, 0, int(math.Ceil(minutesInDay/minutesStep)))
	for i := 0; ; i++ {
		// stepEpsilon absorbs float error so a one-minute step never
		// truncates to 0:00 twice.
		timer := float64(i)*minutesStep + stepEpsilon
		if timer >= minutesInDay {
			break
		}
		total := int(timer)
		hour, minute := total/60, total%60
		if minute == 0 {
			labels = append(labels, HourLabel(hour))
			continue
		}
		labels = append(labels, strconv.Itoa(hour)+":"+pad2(minute))
	}
	return labels, nil
}

// HourLabel renders a 24h hour as "12 am" .. "11 pm".
func HourLabel(hour int) string {
	suffix := "am"
	if hour >= 12 {
		suffix = "pm"
	}
	return strconv.Itoa((hour+11)%12+1) + " " + suffix
}

// Builder memoizes Build on the last hoursInDisplay value.
type Builder struct {
	valid  bool
	hours  float64
	labels []string
}

// Labels returns the labels for hoursInDisplay, recomputing only when the
// value differs from the previous call. The result is a copy.
func (b *Builder) Labels(hoursInDisplay float64) ([]string, error) {
	if !b.valid || b.hours != hoursInDisplay {
		labels, err := Build(hoursInDisplay)
		if err != nil {
			return nil, err
		}
		b.valid = true
		b.hours = hoursInDisplay
		b.labels = labels
	}
	return slices.Clone(b.labels), nil
}

// Position is the vertical placement of an occurrence inside a day column.
type Position struct {
	Top    float64
	Height float64
}

// VerticalStart is the initial vertical scroll offset that puts startHour
// at the top of a container showing hoursInDisplay hours.
func VerticalStart(startHour int, hoursInDisplay, containerHeight float64) float64 {
	if hoursInDisplay <= 0 {
		return 0
	}
	return float64(startHour) * containerHeight / hoursInDisplay
}

// Place computes where an occurrence sits in its day column. The occurrence
// must already be clipped to a single day. Top follows the wall clock, the
// same scale the labels use, so a day that starts at 01:00 after a DST jump
// still lines up with its labels.
func Place(occ model.Event, hoursInDisplay, containerHeight float64) Position {
	if hoursInDisplay <= 0 {
		return Position{}
	}
	perMinute := containerHeight / (hoursInDisplay * 60)
	h, m, sec := occ.Start.Clock()
	startMin := float64(h*60+m) + (float64(sec)+float64(occ.Start.Nanosecond())/1e9)/60
	return Position{
		Top:    startMin * perMinute,
		Height: occ.End.Sub(occ.Start).Minutes() * perMinute,
	}
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
