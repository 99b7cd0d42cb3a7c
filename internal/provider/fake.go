package provider

import (
	"context"
	"fmt"
	"os"
)

const fakeName = "fixture"

// FakeGenerator answers every request with the contents of a fixture file,
// decoded exactly like a live completion.
type FakeGenerator struct {
	FixturePath string
}

func NewFakeGenerator(path string) *FakeGenerator {
	return &FakeGenerator{FixturePath: path}
}

func (f *FakeGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	_ = ctx
	_ = req
	data, err := os.ReadFile(f.FixturePath)
	if err != nil {
		return Response{}, transportError(fakeName, fmt.Errorf("failed to read provider fixture: %w", err))
	}
	raw := string(data)
	plan, err := Decode(raw)
	if err != nil {
		return Response{Raw: raw}, decodeError(fakeName, raw, err)
	}
	return Response{Plan: plan, Raw: raw}, nil
}

func (f *FakeGenerator) HealthCheck(ctx context.Context) error {
	_ = ctx
	if _, err := os.Stat(f.FixturePath); err != nil {
		return transportError(fakeName, err)
	}
	return nil
}
