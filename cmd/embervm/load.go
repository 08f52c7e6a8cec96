package main

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"embervm/bytecode"
	"embervm/value"
)

func init() {
	gob.Register(value.IntValue{})
	gob.Register(value.FloatValue{})
	gob.Register(value.StringValue{})
	gob.Register(value.BoolValue{})
	gob.Register(value.NilValue{})
}

// loadProgram reads a gob-encoded bytecode image (the form a front end
// would emit once compilation has happened out of process — the front
// end itself is out of this VM's scope, see DESIGN.md).
func loadProgram(path string) (*bytecode.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var image struct {
		Instructions []bytecode.Instruction
		Constants    []value.Value
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&image); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &bytecode.Program{Instructions: image.Instructions, Constants: image.Constants}, nil
}
