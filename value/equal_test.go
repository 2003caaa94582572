package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null nil", Null{}, nil, true},
		{"null vs int", Null{}, Int(0), false},
		{"ints", Int(5), Int(5), true},
		{"int float numeric", Int(5), Float(5), true},
		{"float int numeric", Float(5), Int(5), true},
		{"int float differ", Int(5), Float(5.5), false},
		{"bool", Bool(true), Bool(false), false},
		{"string vs int", String("5"), Int(5), false},
		{"arrays", Array{Int(1), String("a")}, Array{Int(1), String("a")}, true},
		{"array length", Array{Int(1)}, Array{Int(1), Int(2)}, false},
		{"array order", Array{Int(1), Int(2)}, Array{Int(2), Int(1)}, false},
		{"objects", Object{"a": Int(1)}, Object{"a": Int(1)}, true},
		{"object missing key", Object{"a": Int(1)}, Object{"b": Int(1)}, false},
		{"object vs array", Object{}, Array{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}
