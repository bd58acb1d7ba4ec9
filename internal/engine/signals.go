package engine

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals emitted while building.
var (
	SignalLoaderBuilt      = capitan.NewSignal("retort.loader.built", "Loader produced")
	SignalDumperBuilt      = capitan.NewSignal("retort.dumper.built", "Dumper produced")
	SignalConverterBuilt   = capitan.NewSignal("retort.converter.built", "Converter produced")
	SignalProviderNotFound = capitan.NewSignal("retort.provider.not_found", "Request cannot be satisfied")
	SignalRecursionStub    = capitan.NewSignal("retort.recursion.stub", "Recursion stub installed")
)

// Field keys.
var (
	KeyTypeName = capitan.NewStringKey("type_name")
	KeyRequest  = capitan.NewStringKey("request")
	KeyLocation = capitan.NewStringKey("location")
	KeyDuration = capitan.NewDurationKey("duration")
	KeyError    = capitan.NewErrorKey("error")
)

// emitBuilt emits an event when a top level request is produced.
func emitBuilt(ctx context.Context, kind, typeName string, duration time.Duration) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyDuration.Field(duration),
	}

	switch kind {
	case kindLoader:
		capitan.Emit(ctx, SignalLoaderBuilt, fields...)
	case kindDumper:
		capitan.Emit(ctx, SignalDumperBuilt, fields...)
	case kindConverter:
		capitan.Emit(ctx, SignalConverterBuilt, fields...)
	}
}

// emitNotFound emits an event when a top level request fails.
func emitNotFound(ctx context.Context, kind, typeName string, err error) {
	capitan.Error(ctx, SignalProviderNotFound,
		KeyRequest.Field(kind),
		KeyTypeName.Field(typeName),
		KeyError.Field(err),
	)
}

// emitRecursionStub emits an event when a recursion stub is installed.
func emitRecursionStub(ctx context.Context, kind, location string) {
	capitan.Emit(ctx, SignalRecursionStub,
		KeyRequest.Field(kind),
		KeyLocation.Field(location),
	)
}
