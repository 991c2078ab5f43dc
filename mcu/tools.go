package mcu

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"gonum.org/v1/gonum/interp"

	"github.com/normen/mcu-host/gomcu"
)

// MinDB is the quietest level on the fader scale, anything below is -inf.
const MinDB = -96.0

var vowels = regexp.MustCompile(`([^-_ ]+)[AEIOUaeiou]([^-_ ]+)`)

var numberSuffixes = []struct {
	re   *regexp.Regexp
	tail int
}{
	{regexp.MustCompile(`.*[0-9][0-9][/_-][0-9][0-9]$`), 3},
	{regexp.MustCompile(`.*[0-9][/_-][0-9][0-9]$`), 3},
	{regexp.MustCompile(`.*[0-9][/_-][0-9]$`), 2},
	{regexp.MustCompile(`.*[0-9][0-9]$`), 2},
	{regexp.MustCompile(`.*[0-9]$`), 1},
}

var positionToDB interp.PiecewiseLinear
var dbToPosition interp.PiecewiseLinear

// fader positions for -96, -60, -50, -40, -30, -20, -10, -6, 0, +6, +10 dB
func init() {
	positions := []float64{1, 732, 1680, 3050, 4614, 5816, 7940, 10007, 12382, 14674, 16383}
	dbs := []float64{MinDB, -60, -50, -40, -30, -20, -10, -6, 0, 6, 10}
	if err := positionToDB.Fit(positions, dbs); err != nil {
		panic(err)
	}
	if err := dbToPosition.Fit(dbs, positions); err != nil {
		panic(err)
	}
}

// PositionToDB maps a 14 bit fader position to the dB printed on the fader.
func PositionToDB(position uint16) float64 {
	if position == 0 {
		return math.Inf(-1)
	}
	if position > gomcu.MaxPosition {
		position = gomcu.MaxPosition
	}
	return positionToDB.Predict(float64(position))
}

// DBToPosition is the inverse of PositionToDB.
func DBToPosition(db float64) uint16 {
	if math.IsNaN(db) || db <= MinDB {
		return 0
	}
	if db >= 10 {
		return gomcu.MaxPosition
	}
	return uint16(math.Round(dbToPosition.Predict(db)))
}

// ShortenText fits a channel name into width characters by dropping inner
// vowels, then separators, then the middle of numbered names.
func ShortenText(input string, width int) string {
	input = strings.ReplaceAll(input, "Input", "In")
	input = strings.ReplaceAll(input, "Output", "Out")
	length := utf8.RuneCountInString(input)
	for length > width && vowels.MatchString(input) {
		shorter := vowels.ReplaceAllString(input, `$1$2`)
		if shorter == input {
			break
		}
		input = shorter
		length = utf8.RuneCountInString(input)
	}
	if length > width {
		input = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(input)
		length = utf8.RuneCountInString(input)
	}
	if length > width {
		runes := []rune(input)
		for _, s := range numberSuffixes {
			if s.tail < width && s.re.MatchString(input) {
				input = string(runes[:width-s.tail]) + string(runes[length-s.tail:])
				break
			}
		}
		length = utf8.RuneCountInString(input)
	}
	if length > width {
		input = string([]rune(input)[:width])
	}
	return fmt.Sprintf("%-*s", width, input)
}

// centre pads ASCII text to width, cutting what does not fit
func centre(text string, width int) string {
	if len(text) >= width {
		return text[:width]
	}
	left := (width - len(text)) / 2
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", width-len(text)-left)
}
