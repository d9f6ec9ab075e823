package shell

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"car-park/internal/parking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var start = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type steppingClock struct {
	now  time.Time
	step time.Duration
}

// Now advances by step on every call, so each park and exit is one step
// later than the previous one.
func (c *steppingClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func runShell(t *testing.T, capacity int, input string) (string, *tracetest.SpanRecorder) {
	t.Helper()

	engine := parking.NewEngine(parking.NewRegistry(capacity),
		parking.WithClock(&steppingClock{now: start, step: 10 * time.Minute}),
		parking.WithIDGenerator(parking.IDGeneratorFunc(func() string { return "bill-1" })),
	)

	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")
	ie, err := parking.NewInstrumentedEngine(engine, tracer, sdkmetric.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	var out bytes.Buffer
	New(ie, tracer, strings.NewReader(input), &out).Run(context.Background())
	return out.String(), recorder
}

func TestShellParkAndExit(t *testing.T) {
	out, _ := runShell(t, 2, strings.Join([]string{
		"park ABC123 1",
		"park XYZ789 3",
		"park LATE01 2",
		"status",
		"find abc123",
		"exit abc123",
		"exit abc123",
		"status",
	}, "\n"))

	assert.Equal(t, strings.Join([]string{
		"Allocated space number: 1",
		"Allocated space number: 2",
		"Sorry, car park is full",
		"Available spaces: 0",
		"Occupied spaces: 2",
		"1",
		// Parked at 09:00, exit clock read at 09:20.
		"Bill bill-1: ABC123 charged 6.00 (in 2024-03-01T09:00:00, out 2024-03-01T09:20:00)",
		"Not found",
		"Available spaces: 1",
		"Occupied spaces: 1",
		"",
	}, "\n"), out)
}

func TestShellRejections(t *testing.T) {
	out, _ := runShell(t, 2, strings.Join([]string{
		"park ABC123",
		"park ABC123 big",
		"park ABC123 7",
		"park ABC123 1",
		"park abc123 1",
		"exit",
		"find",
		"find NOPE",
		"fly away",
	}, "\n"))

	assert.Equal(t, strings.Join([]string{
		"Usage: park <registration_number> <vehicle_type>",
		"Invalid vehicle type: big",
		"Error: Invalid vehicle type code: 7",
		"Allocated space number: 1",
		"Error: Vehicle abc123 is already parked",
		"Usage: exit <registration_number>",
		"Usage: find <registration_number>",
		"Not found",
		"Unknown command: fly",
		"",
	}, "\n"), out)
}

func TestShellSpaces(t *testing.T) {
	out, _ := runShell(t, 3, "spaces\npark ABC123 2\nspaces\n")

	assert.Equal(t, strings.Join([]string{
		"Car park is empty",
		"Allocated space number: 1",
		"Space No.\tRegistration No\tType\tTime In",
		"1\t\tABC123\tMEDIUM\t2024-03-01T09:00:00",
		"",
	}, "\n"), out)
}

func TestShellHelpAndBlankLines(t *testing.T) {
	out, _ := runShell(t, 1, "\n   \nHELP\n")
	assert.True(t, strings.HasPrefix(out, "Commands:\n"))
	assert.Contains(t, out, "park <reg> <type>")
}

func TestShellTracesEachCommand(t *testing.T) {
	_, recorder := runShell(t, 1, "status\npark ABC123 1\n")

	counts := map[string]int{}
	for _, s := range recorder.Ended() {
		counts[s.Name()]++
	}
	assert.Equal(t, 1, counts["shell.run"])
	assert.Equal(t, 2, counts["shell.process_command"])
	assert.Equal(t, 1, counts["car_park.get_status"])
	assert.Equal(t, 1, counts["car_park.park_vehicle"])
}

func TestShellStopsWhenContextCancelled(t *testing.T) {
	engine := parking.NewEngine(parking.NewRegistry(1))
	ie, err := parking.NewInstrumentedEngine(engine,
		sdktrace.NewTracerProvider().Tracer("test"),
		sdkmetric.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	New(ie, sdktrace.NewTracerProvider().Tracer("test"), strings.NewReader("status\n"), &out).Run(ctx)
	assert.Empty(t, out.String())
}
