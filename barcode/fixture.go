package barcode

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
)

// fixtureFramePeriodMs is the frame period of the 120 Hz camera counter written to fixtures
const fixtureFramePeriodMs = 8.333

// FixtureHeader is the header row of the logger-format test fixture
var FixtureHeader = []string{"time", "cycle", "state", "led1", "led2", "led3"}

// WriteFixture writes sig in the trigger logger's CSV format.
// time is in integer milliseconds; readers must scale it to seconds (TimeScale 0.001).
func WriteFixture(w io.Writer, sig Signal) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(FixtureHeader); err != nil {
		return fmt.Errorf("failed to write fixture header: %w", err)
	}

	row := make([]string, len(FixtureHeader))
	for _, s := range sig.Samples {
		millis := int64(math.Round(s.Time * 1000))
		cycle := int64(float64(millis-EncoderStartMs) / fixtureFramePeriodMs)

		row[0] = strconv.FormatInt(millis, 10)
		row[1] = strconv.FormatInt(cycle, 10)
		row[2] = strconv.Itoa(int(s.State))
		row[3] = "0"
		row[4] = "0"
		row[5] = "0"

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write fixture row at %d ms: %w", millis, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
