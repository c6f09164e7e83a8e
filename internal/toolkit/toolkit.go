// Package toolkit provides small stateless tools that can be registered next
// to the note tools: a greeter and four arithmetic operations.
package toolkit

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/brbranch/mcp-notes/internal/capability"
	"github.com/brbranch/mcp-notes/internal/model"
	"github.com/brbranch/mcp-notes/internal/schema"
)

// GreetParams は greet の引数
type GreetParams struct {
	Name   string `json:"name"`
	Formal bool   `json:"formal"`
}

// GreetTool は greet ツールの宣言
func GreetTool() model.Tool {
	return model.Tool{
		Name:        "greet",
		Description: "Greet someone by name with a friendly message",
		InputSchema: &jsonschema.Schema{
			Type: schema.TypeObject,
			Properties: map[string]*jsonschema.Schema{
				"name": {
					Type:        schema.TypeString,
					Description: "The name of the person to greet",
				},
				"formal": {
					Type:        schema.TypeBoolean,
					Description: "Whether to use formal greeting",
					Default:     []byte("false"),
				},
			},
			Required: []string{"name"},
		},
	}
}

// Greet は greet を処理
func Greet(ctx context.Context, args map[string]any) (*model.ToolsCallResult, error) {
	var p GreetParams
	if err := capability.BindArguments(args, &p); err != nil {
		return nil, err
	}

	if p.Formal {
		return model.NewTextResult(fmt.Sprintf("Good day, %s. It's a pleasure to meet you.", p.Name)), nil
	}
	return model.NewTextResult(fmt.Sprintf("Hey %s! Nice to meet you!", p.Name)), nil
}

// ArithmeticParams は四則演算ツールの引数
type ArithmeticParams struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// operation は四則演算1種の定義
type operation struct {
	name        string
	description string
	aDesc       string
	bDesc       string
	symbol      string
	apply       func(a, b float64) (float64, bool) // 計算不能なら false
}

var operations = []operation{
	{
		name: "add", description: "Add two numbers together",
		aDesc: "First number", bDesc: "Second number", symbol: "+",
		apply: func(a, b float64) (float64, bool) { return a + b, true },
	},
	{
		name: "subtract", description: "Subtract second number from first number",
		aDesc: "Number to subtract from", bDesc: "Number to subtract", symbol: "-",
		apply: func(a, b float64) (float64, bool) { return a - b, true },
	},
	{
		name: "multiply", description: "Multiply two numbers",
		aDesc: "First number", bDesc: "Second number", symbol: "×",
		apply: func(a, b float64) (float64, bool) { return a * b, true },
	},
	{
		name: "divide", description: "Divide first number by second number",
		aDesc: "Numerator", bDesc: "Denominator", symbol: "÷",
		apply: func(a, b float64) (float64, bool) {
			if b == 0 {
				return 0, false
			}
			return a / b, true
		},
	},
}

func (op operation) tool() model.Tool {
	return model.Tool{
		Name:        op.name,
		Description: op.description,
		InputSchema: &jsonschema.Schema{
			Type: schema.TypeObject,
			Properties: map[string]*jsonschema.Schema{
				"a": {Type: schema.TypeNumber, Description: op.aDesc},
				"b": {Type: schema.TypeNumber, Description: op.bDesc},
			},
			Required: []string{"a", "b"},
		},
	}
}

func (op operation) handle(ctx context.Context, args map[string]any) (*model.ToolsCallResult, error) {
	var p ArithmeticParams
	if err := capability.BindArguments(args, &p); err != nil {
		return nil, err
	}

	result, ok := op.apply(p.A, p.B)
	if !ok {
		return model.NewErrorResult("Error: Cannot divide by zero"), nil
	}

	return model.NewTextResult(fmt.Sprintf("%s %s %s = %s",
		formatNumber(p.A), op.symbol, formatNumber(p.B), formatNumber(result))), nil
}

// CalculatorTools は四則演算ツールの宣言を返す
func CalculatorTools() []model.Tool {
	tools := make([]model.Tool, 0, len(operations))
	for _, op := range operations {
		tools = append(tools, op.tool())
	}
	return tools
}

// formatNumber は数値を最短表記で文字列にする（2.0 → "2"）
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Options は登録するツール群の選択
type Options struct {
	Greeting   bool
	Calculator bool
}

// Register は有効なツールを登録する
func Register(r *capability.Registry, opts Options) error {
	if opts.Greeting {
		if err := r.RegisterTool(GreetTool(), Greet); err != nil {
			return fmt.Errorf("register greet: %w", err)
		}
	}

	if opts.Calculator {
		for _, op := range operations {
			if err := r.RegisterTool(op.tool(), op.handle); err != nil {
				return fmt.Errorf("register %s: %w", op.name, err)
			}
		}
	}
	return nil
}
