package pgtarget

import (
	"context"
	"testing"

	"github.com/ryanbrace/loadforge/internal/engine"
)

func TestArgsCarriesNameAndCount(t *testing.T) {
	args := Args("pg", "postgres://localhost:5432/app", 5)
	if args.Name != "pg" {
		t.Errorf("want pool name %q, got %q", "pg", args.Name)
	}
	if args.Count != 5 {
		t.Errorf("want count 5, got %d", args.Count)
	}
}

func TestArgsOpenRejectsInvalidDSN(t *testing.T) {
	args := Args("pg", "not a dsn \x00", 1)
	_, err := args.Open(context.Background(), 0)
	if err == nil {
		t.Fatal("want an invalid dsn to fail before attempting to dial")
	}
}

func TestCloseIgnoresNonPoolConnection(t *testing.T) {
	args := Args("pg", "postgres://localhost:5432/app", 1)
	if err := args.Close(context.Background(), "not-a-pool"); err != nil {
		t.Fatalf("want Close to tolerate a non-pool value rather than error, got %v", err)
	}
}

func TestConnReturnsFalseForUnrelatedConnection(t *testing.T) {
	ctx := &engine.StepContext{Connection: 42}
	_, ok := Conn(ctx)
	if ok {
		t.Fatal("want Conn to report ok=false when the step's connection isn't a *pgxpool.Pool")
	}
}

func TestConnReturnsFalseForNilConnection(t *testing.T) {
	ctx := &engine.StepContext{}
	_, ok := Conn(ctx)
	if ok {
		t.Fatal("want Conn to report ok=false when no pool connection is attached")
	}
}
