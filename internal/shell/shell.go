package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"car-park/internal/parking"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const timeLayout = "2006-01-02T15:04:05"

type CarPark interface {
	GetStatus(ctx context.Context) parking.Status
	ParkVehicle(ctx context.Context, vehicleReg string, vehicleTypeCode int) (parking.ParkResult, error)
	GenerateBillAndExit(ctx context.Context, vehicleReg string) (parking.Bill, error)
	FindVehicle(ctx context.Context, vehicleReg string) (parking.SpaceSnapshot, error)
	Spaces(ctx context.Context) []parking.SpaceSnapshot
}

// Shell reads one command per line and writes a human-readable reply.
type Shell struct {
	carPark CarPark
	tracer  trace.Tracer
	in      *bufio.Scanner
	out     io.Writer
}

func New(carPark CarPark, tracer trace.Tracer, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		carPark: carPark,
		tracer:  tracer,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

// Run processes input until EOF or until ctx is cancelled between lines.
func (s *Shell) Run(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")

	for s.in.Scan() {
		if ctx.Err() != nil {
			break
		}

		input := strings.TrimSpace(s.in.Text())
		if input == "" {
			continue
		}

		cmdCtx, cmdSpan := s.tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))
		s.processCommand(cmdCtx, input)
		cmdSpan.End()
	}

	span.AddEvent("shell_ended")
}

func (s *Shell) processCommand(ctx context.Context, input string) {
	span := trace.SpanFromContext(ctx)

	parts := strings.Fields(input)
	command := strings.ToLower(parts[0])
	span.SetAttributes(attribute.String("command.name", command))

	switch command {
	case "status":
		s.handleStatus(ctx)
	case "park":
		s.handlePark(ctx, parts)
	case "exit", "bill":
		s.handleExit(ctx, parts)
	case "find":
		s.handleFind(ctx, parts)
	case "spaces":
		s.handleSpaces(ctx)
	case "help":
		s.printf("Commands:\n" +
			"  status                 available and occupied space counts\n" +
			"  park <reg> <type>      park a vehicle (type 1=small, 2=medium, 3=large)\n" +
			"  exit <reg>             bill a vehicle and free its space\n" +
			"  find <reg>             show the space holding a vehicle\n" +
			"  spaces                 list occupied spaces\n")
	default:
		span.AddEvent("unknown_command", trace.WithAttributes(
			attribute.String("unknown_command", command),
		))
		s.printf("Unknown command: %s\n", parts[0])
	}
}

func (s *Shell) handleStatus(ctx context.Context) {
	status := s.carPark.GetStatus(ctx)
	s.printf("Available spaces: %d\nOccupied spaces: %d\n", status.Available, status.Occupied)
}

func (s *Shell) handlePark(ctx context.Context, parts []string) {
	span := trace.SpanFromContext(ctx)

	if len(parts) != 3 {
		span.AddEvent("invalid_arguments")
		s.printf("Usage: park <registration_number> <vehicle_type>\n")
		return
	}

	vehicleType, err := strconv.Atoi(parts[2])
	if err != nil {
		span.AddEvent("invalid_vehicle_type")
		s.printf("Invalid vehicle type: %s\n", parts[2])
		return
	}

	res, err := s.carPark.ParkVehicle(ctx, parts[1], vehicleType)
	if err != nil {
		span.AddEvent("parking_failed")
		s.printError(err)
		return
	}

	span.AddEvent("parking_successful", trace.WithAttributes(
		attribute.Int("allocated_space", res.SpaceIndex),
	))
	s.printf("Allocated space number: %d\n", res.SpaceIndex)
}

func (s *Shell) handleExit(ctx context.Context, parts []string) {
	span := trace.SpanFromContext(ctx)

	if len(parts) != 2 {
		span.AddEvent("invalid_arguments")
		s.printf("Usage: exit <registration_number>\n")
		return
	}

	bill, err := s.carPark.GenerateBillAndExit(ctx, parts[1])
	if err != nil {
		span.AddEvent("exit_failed")
		s.printError(err)
		return
	}

	span.AddEvent("exit_successful")
	s.printf("Bill %s: %s charged %s (in %s, out %s)\n",
		bill.BillID,
		bill.VehicleReg,
		bill.VehicleCharge.StringFixed(2),
		bill.TimeIn.Format(timeLayout),
		bill.TimeOut.Format(timeLayout),
	)
}

func (s *Shell) handleFind(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.printf("Usage: find <registration_number>\n")
		return
	}

	snap, err := s.carPark.FindVehicle(ctx, parts[1])
	if err != nil {
		s.printf("Not found\n")
		return
	}
	s.printf("%d\n", snap.Index)
}

func (s *Shell) handleSpaces(ctx context.Context) {
	var occupied []parking.SpaceSnapshot
	for _, space := range s.carPark.Spaces(ctx) {
		if space.Occupied {
			occupied = append(occupied, space)
		}
	}

	if len(occupied) == 0 {
		s.printf("Car park is empty\n")
		return
	}

	s.printf("Space No.\tRegistration No\tType\tTime In\n")
	for _, space := range occupied {
		s.printf("%d\t\t%s\t%s\t%s\n",
			space.Index, space.VehicleReg, space.VehicleClass, space.TimeIn.Format(timeLayout))
	}
}

func (s *Shell) printError(err error) {
	switch {
	case errors.Is(err, parking.ErrCarParkFull):
		s.printf("Sorry, car park is full\n")
	case errors.Is(err, parking.ErrVehicleNotFound):
		s.printf("Not found\n")
	default:
		s.printf("Error: %s\n", err.Error())
	}
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
